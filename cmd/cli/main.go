package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"survivalvolume/adapters/excel"
	"survivalvolume/adapters/report"
	"survivalvolume/domain/study"
	"survivalvolume/internal/analysis"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "survivalvolume",
		Short: "Convert tumour volume time series into survival statistics",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newLogrankCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type readFlags struct {
	file            string
	sheet           string
	format          string
	threshold       float64
	standardizeDays bool
	firstInterval   float64
	secondInterval  float64
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "StudyLog workbook path (required)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "Sheet1", "sheet name")
	cmd.Flags().StringVar(&f.format, "format", "prism", "sheet layout: prism or absolute")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 700, "endpoint volume threshold")
	cmd.Flags().BoolVar(&f.standardizeDays, "standardize-days", false, "renumber days with alternating intervals")
	cmd.Flags().Float64Var(&f.firstInterval, "first-interval", 3, "odd-step day interval")
	cmd.Flags().Float64Var(&f.secondInterval, "second-interval", 4, "even-step day interval")
	cmd.MarkFlagRequired("file")
}

func (f *readFlags) read() ([]study.Subject, error) {
	reader := excel.NewReader(f.file)
	opts := excel.Options{
		Threshold:       f.threshold,
		StandardizeDays: f.standardizeDays,
		FirstInterval:   f.firstInterval,
		SecondInterval:  f.secondInterval,
	}
	switch f.format {
	case "prism":
		return reader.ReadPrism(f.sheet, opts)
	case "absolute":
		return reader.ReadAbsoluteTV(f.sheet, opts)
	default:
		return nil, fmt.Errorf("unknown format %q (want prism or absolute)", f.format)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var flags readFlags
	var output string
	var confidence float64
	var intervalMethod string
	var minGroupSize int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full pipeline and emit the plot bundle or an HTML report",
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := flags.read()
			if err != nil {
				return err
			}

			cfg := study.DefaultStatsConfig()
			cfg.ConfidenceLevel = confidence
			cfg.IntervalMethod = study.IntervalMethod(intervalMethod)
			cfg.MinGroupSize = minGroupSize

			bundle, err := analysis.Analyze(context.Background(), subjects, 0, cfg)
			if err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(bundle)
			case "report":
				_, err := os.Stdout.Write(report.HTML("Survival summary", bundle))
				return err
			default:
				return fmt.Errorf("unknown output %q (want json or report)", output)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&output, "output", "json", "output format: json or report")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for intervals")
	cmd.Flags().StringVar(&intervalMethod, "interval-method", string(study.IntervalNormal), "mean CI method: normal or t")
	cmd.Flags().IntVar(&minGroupSize, "min-group-size", 1, "minimum contributors per summary point")
	return cmd
}

func newLogrankCmd() *cobra.Command {
	var flags readFlags

	cmd := &cobra.Command{
		Use:   "logrank [group-a] [group-b]",
		Short: "Log-rank (Mantel-Cox) test between two groups",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := flags.read()
			if err != nil {
				return err
			}

			cfg := study.DefaultStatsConfig()
			bundle, err := analysis.Analyze(context.Background(), subjects, 0, cfg)
			if err != nil {
				return err
			}

			groupA, ok := bundle.Group(study.GroupID(args[0]))
			if !ok {
				return fmt.Errorf("group %q not found in workbook", args[0])
			}
			groupB, ok := bundle.Group(study.GroupID(args[1]))
			if !ok {
				return fmt.Errorf("group %q not found in workbook", args[1])
			}

			result, err := analysis.LogRank(groupA.Group, groupA.Records, groupB.Group, groupB.Records)
			if err != nil {
				return err
			}

			fmt.Printf("log-rank %s vs %s: chi2=%.4f df=%d p=%.4f\n",
				groupA.Group, groupB.Group, result.Statistic, result.Df, result.PValue)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
