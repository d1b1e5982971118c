package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"PredictionTracker/internal/app"
	"PredictionTracker/internal/collector"
	"PredictionTracker/internal/config"
	"PredictionTracker/internal/notifier"
	"PredictionTracker/internal/parser"
	"PredictionTracker/internal/recorder"
	"PredictionTracker/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)
	slog.Info("PredictionTracker starting", slog.String("config", cfgPath))

	source, resolver := setupSource(cfg)
	slog.Info("data source selected", slog.String("source", source.Name()))

	rec := setupRecorder(cfg)
	defer func() {
		if err := rec.Close(); err != nil {
			slog.Error("close recorder", slog.String("err", err.Error()))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := app.NewRegistry(ctx, source, rec, cfg.Policy())
	defer registry.StopAll()
	ctl := app.NewController(parser.New(resolver, nil), registry, rec, cfg.Storage.PredictionsLog)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if tn.Enabled() {

		sched := scheduler.NewScheduler(ctx, registry, tn)
		if err := sched.RegisterAll(cfg.Schedule.DigestCron, cfg.Schedule.ExpiryCron); err != nil {
			slog.Error("register cron tasks", slog.String("err", err.Error()))
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()

		var view notifier.HTMLPresenter
		go tn.StartPolling(ctx, func(ctx context.Context, user, command string) string {
			return ctl.HandleChat(ctx, view, user, command)
		})
		slog.Info("telegram polling started")
	}

	go func() {
		if runREPL(ctx, ctl, os.Stdin, os.Stdout) || !tn.Enabled() {
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", slog.Int("sessions", registry.Len()))
}

// runREPL reads commands from in until quit, EOF or cancellation. It
// reports whether the user asked to quit.
func runREPL(ctx context.Context, ctl *app.Controller, in io.Reader, out io.Writer) bool {
	var view notifier.TerminalPresenter
	fmt.Fprintln(out, view.Help())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
				return true
			}
			fmt.Fprintln(out, ctl.HandleCommand(ctx, view, "cli", line))
		}
	}
}

func setupSource(cfg *config.Config) (collector.PriceSource, collector.SymbolResolver) {
	ds := cfg.DataSource
	yahoo := collector.NewYahooClient(collector.YahooOptions{
		ChartURL:  ds.QuoteURL,
		SearchURL: ds.SearchURL,
		UserAgent: ds.UserAgent,
		Proxy:     cfg.Proxy,
		Timeout:   ds.Timeout,
	})

	switch ds.Name {
	case config.SourceQuoteAPI:
		return collector.NewQuoteAPIFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout), yahoo
	case config.SourceMock:
		return collector.NewMockSource(ds.MockPrice), &collector.StaticResolver{Passthrough: true}
	default:
		return yahoo, yahoo
	}
}

func setupRecorder(cfg *config.Config) recorder.Recorder {
	var recs recorder.Multi
	if cfg.Storage.PredictionsLog != "" {
		recs = append(recs, recorder.NewPredictionLog(cfg.Storage.PredictionsLog))
	}
	if cfg.Storage.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			slog.Warn("init sqlite recorder failed, continuing without it", slog.String("err", err.Error()))
		} else {
			recs = append(recs, sr)
		}
	}
	if len(recs) == 0 {
		return recorder.NewNoopRecorder()
	}
	return recs
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
