package recipient

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name        string
		csv         string
		wantEmails  []string
		description string
	}{
		{
			name:        "Two well-formed rows",
			csv:         "email,name,company\na@x.com,A,CorpA\nb@x.com,B,CorpB\n",
			wantEmails:  []string{"a@x.com", "b@x.com"},
			description: "Should load both rows in file order",
		},
		{
			name:        "Malformed email is skipped",
			csv:         "email,name\ngood@example.com,Good\nnot-an-email,Bad\nalso.good@example.com,Also\n",
			wantEmails:  []string{"good@example.com", "also.good@example.com"},
			description: "Should skip the malformed row without failing the run",
		},
		{
			name:        "Empty email is skipped",
			csv:         "email,name\n,NoAddress\nreal@example.com,Real\n",
			wantEmails:  []string{"real@example.com"},
			description: "Should skip rows with an empty email field",
		},
		{
			name:        "Duplicates are kept",
			csv:         "email,name\ndup@example.com,First\ndup@example.com,Second\n",
			wantEmails:  []string{"dup@example.com", "dup@example.com"},
			description: "Should not deduplicate repeated addresses",
		},
		{
			name:        "Whitespace around email is trimmed",
			csv:         "email,name\n  padded@example.com ,Padded\n",
			wantEmails:  []string{"padded@example.com"},
			description: "Should trim surrounding whitespace before validating",
		},
		{
			name:        "No data rows",
			csv:         "email,name,company\n",
			wantEmails:  []string{},
			description: "Header-only file should load zero records without error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.csv)

			records, err := NewLoader().Load(path)
			require.NoError(t, err, tt.description)

			emails := make([]string, 0, len(records))
			for _, r := range records {
				emails = append(emails, r.Email)
			}
			assert.Equal(t, tt.wantEmails, emails, tt.description)
		})
	}
}

func TestLoader_Load_FieldMapping(t *testing.T) {
	path := writeCSV(t, "email,name,company,department,employee_id\njane@corp.com,Jane,Corp,Engineering,EMP1001\n")

	records, err := NewLoader().Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "jane@corp.com", rec.Email)
	assert.Equal(t, "Jane", rec.Name)
	assert.Equal(t, "Corp", rec.Company)
	assert.Equal(t, map[string]string{"department": "Engineering", "employee_id": "EMP1001"}, rec.Extra)

	dept, ok := rec.Field("department")
	assert.True(t, ok)
	assert.Equal(t, "Engineering", dept)

	_, ok = rec.Field("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"company", "department", "email", "employee_id", "name"}, rec.FieldNames())
}

func TestLoader_Load_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.csv"))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.True(t, os.IsNotExist(loadErr.Err), "underlying cause should be the missing file")
	})

	t.Run("Missing email column", func(t *testing.T) {
		path := writeCSV(t, "name,company\nJane,Corp\n")
		_, err := NewLoader().Load(path)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.True(t, errors.Is(err, ErrMissingEmailColumn))
	})

	t.Run("Empty file", func(t *testing.T) {
		path := writeCSV(t, "")
		_, err := NewLoader().Load(path)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
	})
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@sub.example.org", "user+tag@example.co"}
	invalid := []string{"", "no-at-sign", "@example.com", "user@", "user@host", "user@host.c"}

	for _, s := range valid {
		assert.True(t, IsValidEmail(s), "expected %q to be valid", s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidEmail(s), "expected %q to be invalid", s)
	}
}
