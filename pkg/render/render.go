// Package render resolves {field} placeholders in subject and body templates
// against a recipient record. Rendering is pure: templates and records are
// never mutated, and unknown placeholders are left verbatim.
package render

import (
	"regexp"

	"github.com/syntecxhub/mailbot/pkg/recipient"
)

// Template is the subject/body pair shared read-only across all recipients
// of a run. Placeholders use the {field} form, where field is a CSV column
// name such as {name} or {company}.
type Template struct {
	Subject string
	Body    string
}

// placeholderRegex matches {field} tokens. Field names mirror CSV header
// conventions: letters, digits, underscores, dashes and dots.
var placeholderRegex = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// Render substitutes the record's fields into the template and returns the
// resolved subject and body. A placeholder with no matching field is kept
// verbatim rather than treated as an error; that leniency is deliberate so a
// stray brace or an optional column never aborts a batch.
func Render(tpl Template, rec recipient.Record) (subject, body string) {
	return resolve(tpl.Subject, rec), resolve(tpl.Body, rec)
}

// Placeholders returns the distinct placeholder names referenced by the
// template, in order of first appearance.
func Placeholders(tpl Template) []string {
	seen := make(map[string]bool)
	var names []string
	for _, text := range []string{tpl.Subject, tpl.Body} {
		for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names
}

// Unresolved returns the placeholders of tpl that rec cannot satisfy.
func Unresolved(tpl Template, rec recipient.Record) []string {
	var missing []string
	for _, name := range Placeholders(tpl) {
		if _, ok := rec.Field(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func resolve(text string, rec recipient.Record) string {
	return placeholderRegex.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := rec.Field(name); ok {
			return v
		}
		return token
	})
}
