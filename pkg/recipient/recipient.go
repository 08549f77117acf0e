package recipient

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Record is a single recipient row loaded from CSV input. Records are
// immutable after loading; every CSV column is available as a placeholder
// field for message rendering.
type Record struct {
	// Email is the validated destination address (the mandatory "email" column).
	Email string
	// Name and Company are the conventional personalization columns.
	Name    string
	Company string
	// Extra holds any additional columns as free-form key/value pairs.
	Extra map[string]string
}

// Field resolves a placeholder field by its column name.
func (r Record) Field(name string) (string, bool) {
	switch name {
	case "email":
		return r.Email, true
	case "name":
		return r.Name, true
	case "company":
		return r.Company, true
	}
	v, ok := r.Extra[name]
	return v, ok
}

// FieldNames returns every available field name in sorted order.
func (r Record) FieldNames() []string {
	names := maps.Keys(r.Extra)
	names = append(names, "email", "name", "company")
	slices.Sort(names)
	return names
}

// LoadError indicates the CSV input could not be used at all: missing file,
// unreadable content, or no "email" column. It aborts the run before any send.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load recipients from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
