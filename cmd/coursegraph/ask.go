package main

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/coursegraph/internal/app"
	"github.com/OFFIS-RIT/coursegraph/pkg/query"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a definition or relation question",
	Long: `Answer a definition or relation question from the stored graph.

Without a question the example questions are printed.

Examples:
  coursegraph ask 什么是主成分分析？
  coursegraph ask "PCA和LDA有什么关系？"
  coursegraph ask --json "What is PCA?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			for _, q := range query.ExampleQuestions {
				fmt.Fprintln(cmd.OutOrStdout(), q)
			}
			return nil
		}

		services, err := app.Open(cmd.Context(), app.OpenParams{Config: cfg})
		if err != nil {
			return err
		}
		defer services.Close()

		answer, err := services.Answerer.Answer(cmd.Context(), question)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, answer)
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("json", false, "Print the classified intent and matches as JSON")
}
