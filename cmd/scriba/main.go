package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/ledger"
	"github.com/ternarybob/scriba/internal/limits"
	"github.com/ternarybob/scriba/internal/storage"
	"github.com/ternarybob/scriba/internal/templates"
	"github.com/ternarybob/scriba/internal/worker"
)

// Exit codes: 0 clean shutdown, 1 configuration error, 2 runtime failure
const (
	exitOK      = 0
	exitConfig  = 1
	exitRuntime = 2
)

var (
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <config.yaml> <workdir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Scriba version %s\n", common.GetFullVersion())
		os.Exit(exitOK)
	}

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(exitConfig)
	}
	configPath := flag.Arg(0)
	workdir := flag.Arg(1)

	config, err := common.LoadConfig(configPath)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		os.Exit(exitConfig)
	}
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("workdir", workdir).Msg("Working directory is not usable")
		os.Exit(exitConfig)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	os.Exit(run(config, workdir, logger))
}

func run(config *common.Config, workdir string, logger arbor.ILogger) int {
	ctx := context.Background()

	objectStorage, err := storage.NewClient(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create the object storage client")
		return exitRuntime
	}

	jobLedger, err := ledger.New(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to the job ledger")
		return exitRuntime
	}
	defer jobLedger.Close()

	watermarker, err := limits.NewWatermarker(config.Experimental.PDFWatermark, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Watermark configuration is not usable")
		return exitRuntime
	}

	pandoc, err := conversion.NewPandoc(config.Externals.Pandoc, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Pandoc configuration is not usable")
		return exitRuntime
	}
	wkhtmltopdf, err := conversion.NewWkHtmlToPdf(config.Externals.Wkhtmltopdf, logger)
	if err != nil {
		logger.Error().Err(err).Msg("wkhtmltopdf configuration is not usable")
		return exitRuntime
	}
	prince, err := conversion.NewPrince(config.Externals.Prince, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Prince configuration is not usable")
		return exitRuntime
	}

	assembler := templates.NewAssembler(workdir, objectStorage, config.Experimental.MoreAppsEnabled, logger)
	coordinator := worker.NewCoordinator(jobLedger, objectStorage, assembler, watermarker,
		pandoc, wkhtmltopdf, prince, config, logger)

	listener := worker.NewListener(jobLedger, coordinator, config.Database.QueueWaitTimeout(), logger)
	listener.HandleSignals()

	logger.Info().
		Str("workdir", workdir).
		Bool("multi_tenant", config.Experimental.MoreAppsEnabled).
		Msg("Worker started")

	if err := listener.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Queue loop failed")
		return exitRuntime
	}
	return exitOK
}
