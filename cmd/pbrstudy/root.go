package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/PaddyFinan/Petrobras-project/internal/config"
	"github.com/PaddyFinan/Petrobras-project/internal/finance"
	"github.com/PaddyFinan/Petrobras-project/internal/openai"
	"github.com/PaddyFinan/Petrobras-project/internal/storage"
	"github.com/PaddyFinan/Petrobras-project/internal/study"
	"github.com/PaddyFinan/Petrobras-project/internal/telegram"
)

type flags struct {
	out      string
	start    string
	end      string
	logLevel string
}

// app holds what a run needs from the outside world.
type app struct {
	stdout        io.Writer
	newDownloader func(cfg *config.Config, logger zerolog.Logger) study.Downloader
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		newDownloader: func(cfg *config.Config, logger zerolog.Logger) study.Downloader {
			return finance.NewYahooClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.RequestInterval, cfg.FetchRetries, logger)
		},
	}
}

func Execute(ctx context.Context) error {
	return newRootCmd(newApp()).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	var f flags
	runE := func(cmd *cobra.Command, _ []string) error { return a.runStudy(cmd.Context(), cmd, f) }

	root := &cobra.Command{
		Use:           "pbrstudy",
		Short:         "Petrobras x Brent x USD/BRL correlation and regression study",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runE,
	}
	root.PersistentFlags().StringVar(&f.out, "out", "", "output directory (default output)")
	root.PersistentFlags().StringVar(&f.start, "start", "", "first date, YYYY-MM-DD (default 2016-01-01)")
	root.PersistentFlags().StringVar(&f.end, "end", "", "last date, YYYY-MM-DD (default latest)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "zerolog level (default info)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Download prices, compute statistics and write charts",
		Args:  cobra.NoArgs,
		RunE:  runE,
	})
	return root
}

func (a *app) runStudy(ctx context.Context, cmd *cobra.Command, f flags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = f.out
	}
	if cmd.Flags().Changed("start") {
		cfg.Start = f.start
	}
	if cmd.Flags().Changed("end") {
		cfg.End = f.end
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.Logger.Level(level)

	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()

	s := study.New(a.newDownloader(cfg, logger), study.Options{
		OutputDir:           cfg.OutputDir,
		Start:               start,
		End:                 end,
		RollingWindow:       cfg.RollingWindow,
		CompleteCorrelation: !cfg.PairwiseCorrelation(),
	}, a.stdout, logger)

	if cfg.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		if err := storage.InitSchema(ctx, db); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("sqlite snapshot enabled")
		s.WithSnapshotter(storage.NewStore(db))
	}
	if cfg.OpenAIKey != "" {
		s.WithCommentator(openai.NewCommentator(cfg.OpenAIKey))
	}
	if cfg.TelegramEnabled() {
		pub, err := telegram.NewPublisher(cfg.TelegramToken, cfg.TelegramChatID, "", logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram disabled")
		} else {
			s.WithPublisher(pub)
		}
	}

	logger.Info().
		Str("start", cfg.Start).
		Str("end", cfg.End).
		Str("out", cfg.OutputDir).
		Msg("study starting")
	_, err = s.Run(ctx)
	return err
}
