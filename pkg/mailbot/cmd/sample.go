package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
)

type sampleRow struct {
	Email   string `csv:"email"`
	Name    string `csv:"name"`
	Company string `csv:"company"`
}

var sampleNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi"}

func generateSampleRows(count int) []sampleRow {
	rows := make([]sampleRow, 0, count)
	for i := 0; i < count; i++ {
		name := sampleNames[i%len(sampleNames)]
		rows = append(rows, sampleRow{
			Email:   fmt.Sprintf("%s%d@example.com", strings.ToLower(name), i+1),
			Name:    name,
			Company: fmt.Sprintf("Example Corp %d", i+1),
		})
	}
	return rows
}

// NewSampleCommand writes a starter CSV so users can see the expected format.
func NewSampleCommand() *cobra.Command {
	var (
		output string
		count  int
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample recipients CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be at least 1, got %d", count)
			}
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists, pass --force to overwrite", output)
				}
			}
			rows := generateSampleRows(count)
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			defer file.Close()
			if err := gocsv.MarshalFile(&rows, file); err != nil {
				return fmt.Errorf("failed to write sample CSV: %w", err)
			}
			fmt.Fprintf(rt.Writer(), "Sample CSV with %d recipients written to %s\n", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "recipients.csv", "Where to write the sample file")
	cmd.Flags().IntVarP(&count, "count", "n", 3, "Number of sample recipients to generate")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
