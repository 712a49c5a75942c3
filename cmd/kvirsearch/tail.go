package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"kvirsearch/internal/eval"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/tail"
)

func newTailCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail <path>",
		Short: "Follow a local IR file, evaluating a query as it grows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, _ := cmd.Flags().GetStringArray("filter")
			projects, _ := cmd.Flags().GetStringArray("project")
			caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
			if !cmd.Flags().Changed("case-sensitive") {
				caseSensitive = configFromCmd(cmd).DefaultCaseSensitive
			}
			if len(projects) == 0 {
				projects = configFromCmd(cmd).DefaultProjections
			}
			pollInterval, _ := cmd.Flags().GetDuration("poll-interval")

			query, projectionDescriptors, err := buildQuery(filters, projects)
			if err != nil {
				return err
			}

			scoped, _ := instanceLogger(logger, "tail")
			res := resolver.New(collectColumns(query), projectionDescriptors)
			handler := &searchHandler{
				logger:    scoped,
				query:     query,
				printer:   newPrinter(outputFormat(cmd)),
				evaluator: &eval.Evaluator{Resolver: res, CaseSensitive: caseSensitive},
			}

			return tail.Run(cmd.Context(), args[0], res, handler, tail.WithPollInterval(pollInterval), tail.WithLogger(scoped))
		},
	}
	cmd.Flags().StringArray("filter", nil, `filter expression (repeatable, ANDed together)`)
	cmd.Flags().StringArray("project", nil, `JSONPath-style projection path (repeatable)`)
	cmd.Flags().Duration("poll-interval", 2*time.Second, "fallback poll cadence alongside fsnotify")
	return cmd
}
