package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCatalogCmd validates the configured catalog and prints a summary.
func NewCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Validate the quiz catalog and list its quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, quiz := range cat.All() {
				fmt.Fprintf(out, "%s\t%s\t%d questions\n", quiz.ID, quiz.Title, len(quiz.Questions))
			}
			return nil
		},
	}
}
