package recipient

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/syntecxhub/mailbot/pkg/metrics"
)

// ErrMissingEmailColumn is returned (wrapped in a LoadError) when the CSV
// header row has no "email" column.
var ErrMissingEmailColumn = errors.New(`header row has no "email" column`)

// emailRegex is a pragmatic syntax check for destination addresses.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s looks like a well-formed email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Loader reads recipient records from delimited text files.
type Loader struct {
	logger *zap.SugaredLogger
}

// NewLoader creates a Loader with a no-op logger.
func NewLoader() *Loader {
	return &Loader{logger: zap.NewNop().Sugar()}
}

// WithLogger sets the logger for this loader.
func (l *Loader) WithLogger(logger *zap.SugaredLogger) *Loader {
	l.logger = logger.Named("loader")
	return l
}

// Load parses the CSV file at path into an ordered sequence of Records.
// The file must carry a header row containing at least an "email" column;
// otherwise a LoadError is returned and the run must not proceed. Rows with
// an empty or malformed email are skipped with a warning, preserving file
// order for the remaining rows. Duplicate addresses are kept as-is.
func (l *Loader) Load(path string) ([]Record, error) {
	records, _, err := l.LoadWithStats(path)
	return records, err
}

// LoadWithStats behaves like Load and additionally reports how many rows
// were skipped for a missing or malformed email.
func (l *Loader) LoadWithStats(path string) ([]Record, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, &LoadError{Path: path, Err: err}
	}

	header, err := csv.NewReader(bytes.NewReader(content)).Read()
	if err != nil {
		return nil, 0, &LoadError{Path: path, Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !slices.Contains(header, "email") {
		return nil, 0, &LoadError{Path: path, Err: ErrMissingEmailColumn}
	}

	rows, err := gocsv.CSVToMaps(bytes.NewReader(content))
	if err != nil {
		return nil, 0, &LoadError{Path: path, Err: err}
	}

	source := filepath.Base(path)
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		email := strings.TrimSpace(row["email"])
		if email == "" || !IsValidEmail(email) {
			l.logger.Warnw("Skipping row with missing or malformed email",
				"row", i+1, "email", row["email"])
			metrics.RecipientsSkipped.WithLabelValues(source).Inc()
			continue
		}

		rec := Record{
			Email:   email,
			Name:    row["name"],
			Company: row["company"],
			Extra:   make(map[string]string),
		}
		for k, v := range row {
			switch k {
			case "email", "name", "company":
			default:
				rec.Extra[k] = v
			}
		}

		records = append(records, rec)
		l.logger.Debugw("Loaded recipient", "row", i+1, "email", rec.Email)
	}

	l.logger.Infow("Loaded recipients", "file", path, "loaded", len(records), "skipped", len(rows)-len(records))
	metrics.RecipientsLoaded.WithLabelValues(source).Add(float64(len(records)))

	return records, len(rows) - len(records), nil
}
