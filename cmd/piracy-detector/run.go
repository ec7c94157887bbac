package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maltedev/amazon-piracy-detector/internal/jobs"
)

var (
	runTerms    []string
	runMaxPages int
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the detection pipeline once",
		Long: `Search Amazon.com.br for every configured term, score each listing for
piracy suspicion, and write the results CSV and HTML report.`,
		RunE: runPipeline,
	}

	cmd.Flags().StringSliceVarP(&runTerms, "term", "t", nil, "search term, repeatable (overrides scraping.search_terms)")
	cmd.Flags().IntVar(&runMaxPages, "max-pages", 0, "result pages per term (overrides scraping.max_pages)")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := a.newPipeline(ctx, jobs.Request{SearchTerms: runTerms, MaxPages: runMaxPages})
	if err != nil {
		a.logger.Error("setup failed", "error", err)
		return err
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("run summary",
		"harvested", res.Harvested,
		"suspicious", res.Suspicious,
		"high_risk", res.HighRisk,
		"failed_stages", res.FailedStages(),
		"results", a.cfg.Output.ResultsFile,
		"report", a.cfg.Output.ReportFile)
	return nil
}
