package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/config"
	"github.com/rvmerge/rvmerge/internal/document"
	"github.com/rvmerge/rvmerge/internal/merger"
)

var (
	// set via ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "rvmerge [flags] INPUT...",
		Short: "Merge RVTools-style xlsx exports into one validated workbook",
		Long: `rvmerge merges multiple RVTools-style inventory exports into a single
workbook. Per sheet, the output carries the columns common to all accepted
documents (header aliases from older export versions are resolved first).
Documents are structurally validated before merging; rows can additionally
pass domain validation, referential filtering and anonymization.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit %s)", Version, GitCommit),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Inputs = args
			return run(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.OutputPath, "output", "o", "merged.xlsx", "path of the merged workbook")
	f.StringVar(&cfg.CatalogPath, "catalog", "", "YAML file extending the built-in sheet catalog")
	f.BoolVar(&cfg.IgnoreMissingOptionalSheets, "ignore-missing-optional-sheets", false,
		"downgrade missing or incomplete optional sheets from fatal to warning")
	f.BoolVar(&cfg.SkipInvalidDocuments, "skip-invalid-documents", false,
		"exclude structurally invalid documents instead of aborting")
	f.BoolVar(&cfg.Anonymize, "anonymize", false,
		"replace sensitive values (VM, host, cluster, ...) with stable substitutes")
	f.BoolVar(&cfg.OnlyMandatoryColumns, "only-mandatory-columns", false,
		"restrict the merged schema to each sheet's mandatory columns")
	f.BoolVar(&cfg.IncludeSourceIdentifier, "include-source-identifier", false,
		"append a column with the source file name to every sheet")
	f.BoolVar(&cfg.SkipRowsWithEmptyMandatoryValues, "skip-rows-with-empty-mandatory-values", false,
		"drop rows with empty mandatory cells instead of only warning")
	f.BoolVar(&cfg.EnableDomainValidation, "enable-domain-validation", false,
		"enable per-row migration checks (key presence, uniqueness, record ceiling)")
	f.IntVar(&cfg.MaxAnchorRows, "max-anchor-rows", 0,
		"cap retained vInfo rows and filter dependent sheets accordingly (0 = no cap)")
	f.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.BoolVarP(&cfg.Quiet, "quiet", "q", false, "only log errors")
	f.BoolVar(&cfg.JSON, "json", false, "emit the run summary as JSON on stdout")

	return cmd
}

// jsonOutput mirrors the fields scripts consume from --json mode.
type jsonOutput struct {
	Success     bool           `json:"success"`
	OutputFiles []string       `json:"output_files,omitempty"`
	Error       string         `json:"error,omitempty"`
	Duration    string         `json:"duration"`
	Report      *merger.Report `json:"report,omitempty"`
}

func run(cfg *config.Config) error {
	start := time.Now()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		emit(cfg, jsonOutput{Success: false, Error: err.Error(), Duration: time.Since(start).String()})
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		emit(cfg, jsonOutput{Success: false, Error: err.Error(), Duration: time.Since(start).String()})
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prog := newSpinnerReporter(cfg.Quiet || cfg.JSON)
	orch := merger.New(cfg, cat, document.NewExcelAccessor(), log.Logger, prog)

	rep, err := orch.Run(ctx)
	prog.stopAll()

	if err != nil {
		emit(cfg, jsonOutput{Success: false, Error: err.Error(), Duration: rep.DurationStr, Report: rep})
		return err
	}

	emit(cfg, jsonOutput{Success: true, OutputFiles: rep.OutputFiles, Duration: rep.DurationStr, Report: rep})
	if !cfg.JSON {
		fmt.Print(rep.Summary())
	}
	return nil
}

func emit(cfg *config.Config, out jsonOutput) {
	if !cfg.JSON {
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error().Err(err).Msg("cannot encode JSON summary")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Quiet {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}
