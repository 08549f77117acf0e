package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syntecxhub/mailbot/pkg/recipient"
	"github.com/syntecxhub/mailbot/pkg/render"
)

// NewValidateCommand builds the dry-run command: it loads the CSV and renders
// every message without opening an SMTP connection.
func NewValidateCommand() *cobra.Command {
	var (
		csvPath  string
		subject  string
		body     string
		bodyFile string
		show     int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a CSV and template without sending anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			tpl, err := buildTemplate(subject, body, bodyFile)
			if err != nil {
				return err
			}

			loader := recipient.NewLoader().WithLogger(rt.Logger())
			records, skipped, err := loader.LoadWithStats(csvPath)
			if err != nil {
				return err
			}

			w := rt.Writer()
			fmt.Fprintf(w, "Recipients: %d valid, %d skipped\n", len(records), skipped)
			fmt.Fprintf(w, "Placeholders: %s\n", strings.Join(render.Placeholders(tpl), ", "))

			// Collect which placeholders stay unresolved, and for how many
			// recipients. Unresolved tokens are sent verbatim, so they are a
			// warning here, not an error.
			unresolvedCount := map[string]int{}
			for _, rec := range records {
				for _, name := range render.Unresolved(tpl, rec) {
					unresolvedCount[name]++
				}
			}
			if len(unresolvedCount) > 0 {
				names := make([]string, 0, len(unresolvedCount))
				for name := range unresolvedCount {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(w, "Warning: placeholders with no matching CSV column (sent as-is):")
				for _, name := range names {
					fmt.Fprintf(w, "  {%s}: %d recipient(s)\n", name, unresolvedCount[name])
				}
			}

			for i, rec := range records {
				if i >= show {
					fmt.Fprintf(w, "... and %d more\n", len(records)-show)
					break
				}
				subj, _ := render.Render(tpl, rec)
				fmt.Fprintf(w, "%d. %s  subject=%q\n", i+1, rec.Email, subj)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the recipients CSV file")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject template")
	cmd.Flags().StringVarP(&body, "body", "b", "", "Body template")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the body template from this file")
	cmd.Flags().IntVar(&show, "show", 5, "Number of rendered previews to print")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
