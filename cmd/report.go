package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/songleague/pkg/logger"
)

// errPreprocess is returned when at least one league failed to analyse.
var errPreprocess = errors.New("preprocessing failed")

func newPreprocessCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "preprocess [league...]",
		Short: "Analyse leagues and fill the report cache",
		Long:  "Analyse the named leagues, or every league in the data directory when none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			outcomes, err := svc.Preprocess(ctx, args, force)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEAGUE\tFINGERPRINT\tCACHED\tELAPSED\tERROR")
			failed := 0
			for _, o := range outcomes {
				msg := ""
				if o.Err != nil {
					failed++
					msg = o.Err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", o.League, o.Fingerprint, o.Cached, o.Elapsed.Round(time.Millisecond), msg)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			c.log.Info(ctx, "preprocessing finished",
				logger.Int("leagues", len(outcomes)),
				logger.Int("failed", failed),
			)
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d leagues", errPreprocess, failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore cached reports")
	return cmd
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "analyze <league>",
		Short: "Print the full report of one league as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			r, err := svc.Analyze(ctx, args[0], force)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore cached reports")
	return cmd
}

func newCompareCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <league> <league> [league...]",
		Short: "Compare leagues as JSON",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			cmp, err := svc.Compare(ctx, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cmp)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
