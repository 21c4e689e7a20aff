package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/songleague/internal/testleague"
)

const verifyTimeout = 30 * time.Second

func newGenerateCmd(c *cli) *cobra.Command {
	cfg := testleague.DefaultConfig()
	var verifyURL string

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Write a synthetic league export",
		Long: "Write a deterministic synthetic league under dir (default: the data directory). " +
			"With --verify-url the running API is checked against the generated data.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := c.cfg.DataDir
			if len(args) == 1 {
				dir = args[0]
			}

			d, stats, err := testleague.Run(ctx, cfg, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rounds, %d competitors, %d votes, fingerprint %s\n",
				stats.League, stats.Rounds, stats.Competitors, stats.Votes, stats.Fingerprint)

			if verifyURL == "" {
				return nil
			}
			client := testleague.NewClient(verifyURL, verifyTimeout)
			if err := testleague.Verify(ctx, client, cfg.Name, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: verified against %s\n", stats.League, verifyURL)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Name, "name", cfg.Name, "league name")
	flags.IntVar(&cfg.Competitors, "competitors", cfg.Competitors, "number of competitors")
	flags.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "number of rounds")
	flags.IntVar(&cfg.PointsPerRound, "points", cfg.PointsPerRound, "points each voter spends per round")
	flags.IntVar(&cfg.MaxPointsPerSong, "max-points", cfg.MaxPointsPerSong, "most points one voter may give one song")
	flags.Float64Var(&cfg.UnknownShare, "unknown-share", cfg.UnknownShare, "share of songs without popularity")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flags.StringVar(&verifyURL, "verify-url", "", "API base URL to verify after writing")
	return cmd
}
