package main

import (
	"encoding/json"
	"fmt"

	"url-insights/enrich/application"
	"url-insights/enrich/domain"

	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var plan string
	cmd := &cobra.Command{
		Use:   "parse <url>",
		Short: "Run the enrichment pipeline once and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.logLevel)

			pipeline, _ := newPipeline(cfg, logger)
			svc := application.NewService(pipeline, nil, application.WithLogger(logger))

			res, err := svc.Parse(cmd.Context(), args[0], domain.LimitsForPlan(plan, cfg.maxEnrichChars))
			if err != nil {
				return fmt.Errorf("%s: %w", domain.KindOf(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", `subscription plan; values containing "free" use the free limits`)
	return cmd
}
