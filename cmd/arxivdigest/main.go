package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ArxivDigest/internal/app"
	"ArxivDigest/internal/config"
	"ArxivDigest/internal/logging"
)

var (
	configFile    string
	logLevel      string
	startFrom     string
	showSummaries bool
	parallelParse bool
)

var rootCmd = &cobra.Command{
	Use:   "arxivdigest",
	Short: "Fetch, parse and summarize recent arXiv papers",
	Long: `arxivdigest runs a staged pipeline: fetch paper metadata for the
configured query, download the PDFs, convert them to structured text,
extract the abstract and conclusion sections, and summarize them with an
LLM. Each stage is resumable with --start-from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg := config.Load()
		if configFile != "" {
			var err error
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("load config %s: %w", configFile, err)
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)

		application, err := app.New(cfg, app.RunOptions{ParallelParse: parallelParse}, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if showSummaries {
			return application.ShowSummaries(ctx, os.Stdout)
		}
		return application.Run(ctx, startFrom)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&startFrom, "start-from", "", "resume the pipeline from this stage")
	rootCmd.Flags().BoolVar(&showSummaries, "show-summaries", false, "print the stored summaries report and exit")
	rootCmd.Flags().BoolVar(&parallelParse, "parallel", false, "convert PDFs with the parallel converter pool")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
