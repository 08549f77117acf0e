// Package recipient loads recipient records from delimited text files with a
// header row, validating addresses and carrying arbitrary extra columns as
// personalization fields.
package recipient
