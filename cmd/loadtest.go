package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/okian/gitstart/internal/loadgen"
)

func loadtestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running server with synthetic issues and check the answers",
		Args:  cobra.NoArgs,
		RunE:  runLoadtest,
	}
	cmd.Flags().String("url", loadgen.DefaultBaseURL, "Base URL of the service")
	cmd.Flags().Int("issues", loadgen.DefaultNumIssues, "Number of issues to generate")
	cmd.Flags().Int("workers", runtime.NumCPU()*2, "Concurrent requests")
	cmd.Flags().Int("warm-batch", loadgen.DefaultWarmBatch, "Issues per warm request (0 skips warming)")
	cmd.Flags().Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().String("profile", "", "Profile to request a catalog-wide recommendation for")
	cmd.Flags().Float64("check-rate", loadgen.DefaultCheckRate, "Share of issues re-analyzed to check caching")
	cmd.Flags().Uint64("seed", 1, "Generator seed")
	cmd.Flags().String("output", "", "File to save generated issues to")
	return cmd
}

func runLoadtest(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	cfg := &loadgen.Config{}
	cfg.BaseURL, _ = f.GetString("url")
	cfg.NumIssues, _ = f.GetInt("issues")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.WarmBatch, _ = f.GetInt("warm-batch")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.ProfileID, _ = f.GetString("profile")
	cfg.CheckRate, _ = f.GetFloat64("check-rate")
	cfg.Seed, _ = f.GetUint64("seed")
	cfg.OutputFile, _ = f.GetString("output")

	stats, err := loadgen.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), stats)
}
