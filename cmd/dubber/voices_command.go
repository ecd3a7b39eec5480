package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/synthesis"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List voices offered by the synthesis service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.synthesisClient()
			if err != nil {
				return err
			}

			voices, err := client.ListVoices(cmd.Context())
			if err != nil {
				return fmt.Errorf("list voices: %w", err)
			}

			filter := strings.ToLower(strings.TrimSpace(language))
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, len(voices))
			for _, voice := range voices {
				if filter != "" && !strings.HasPrefix(strings.ToLower(voice.Locale), filter) {
					continue
				}
				rows = append(rows, []string{
					voice.ShortName,
					voice.Locale,
					voice.Gender,
					voice.FriendlyName,
				})
			}
			if len(rows) == 0 {
				if filter != "" {
					fmt.Fprintf(out, "No voices match language %q (default would be %s)\n",
						language, synthesis.DefaultVoice(language))
					return nil
				}
				fmt.Fprintln(out, "No voices reported")
				return nil
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Voice", "Locale", "Gender", "Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			if filter != "" {
				fmt.Fprintf(out, "Default for %q: %s\n", language, synthesis.DefaultVoice(language))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Filter voices by locale prefix (e.g. en, hi-IN)")
	return cmd
}
