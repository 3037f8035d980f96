package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riftline/mmr/internal/adapters/history"
	"github.com/riftline/mmr/internal/adapters/progress"
	"github.com/riftline/mmr/internal/adapters/registry"
	service "github.com/riftline/mmr/internal/app"
	"github.com/riftline/mmr/internal/config"
	"github.com/riftline/mmr/pkg/logger"
)

// Metrics endpoint timeouts.
const (
	metricsReadTimeout       = 5 * time.Second
	metricsReadHeaderTimeout = 5 * time.Second
	topNShown                = 10
)

var cli struct {
	Debug bool `help:"Enable debug logging."`

	Replay struct {
		History     string `help:"Directory of game-history files." placeholder:"DIR"`
		Registry    string `help:"SQLite registry database path." placeholder:"FILE"`
		MetricsAddr string `help:"Expose Prometheus metrics on this address, e.g. :9090."`
		DryRun      bool   `help:"Recompute ratings without writing the registry."`
	} `cmd:"" help:"Recompute every rating from the full game history."`

	Ingest struct {
		File     string `arg:"" help:"History file holding one tournament's games." type:"existingfile"`
		Registry string `help:"SQLite registry database path." placeholder:"FILE"`
		DryRun   bool   `help:"Compute ratings without writing the registry."`
	} `cmd:"" help:"Apply one tournament's games on top of persisted ratings."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	if err := logger.Init(); err != nil {
		writeError(err)
	}
	log := logger.Get()

	kctx := kong.Parse(&cli,
		kong.Name("mmr"),
		kong.Description("team-game MMR engine: full-history replays and incremental tournament ingests"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		writeError(err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cli.Debug {
		_ = logger.SetLevelString("debug")
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithParams(cfg.Params()),
		service.WithBatchSize(cfg.WriteBatchSize),
	)

	switch kctx.Command() {
	case "replay":
		err = runReplay(ctx, cfg, svc, log)
	case "ingest <file>":
		err = runIngest(ctx, cfg, svc, log)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		writeError(err)
	}
}

func runReplay(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) error {
	dir := cfg.HistoryDir
	if cli.Replay.History != "" {
		dir = cli.Replay.History
	}
	src := history.NewFSSource(dir)

	reg, err := openRegistry(cfg, cli.Replay.Registry, cli.Replay.DryRun)
	if err != nil {
		return err
	}

	if addr := metricsAddr(cfg); addr != "" {
		go serveMetrics(ctx, addr, log)
	}

	summary, err := svc.RunReplay(ctx, src, reg, progress.NewLogReporter(log.Named("replay")))
	if err != nil {
		return err
	}

	log.Info(ctx, "replay summary",
		logger.String("runID", summary.RunID),
		logger.Int("filesProcessed", summary.FilesProcessed),
		logger.Int("filesSkipped", summary.FilesSkipped),
		logger.Int("gamesProcessed", summary.GamesProcessed),
		logger.Int("gamesRejected", summary.GamesRejected),
		logger.Int("playersRated", summary.PlayersRated),
		logger.Int("playersUpdated", summary.PlayersUpdated),
		logger.Int("failedWrites", len(summary.FailedWrites)),
		logger.Any("elapsed", summary.Elapsed),
	)
	return nil
}

func runIngest(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) error {
	src := history.NewFSSource(filepath.Dir(cli.Ingest.File))
	rec, err := src.Load(ctx, filepath.Base(cli.Ingest.File))
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg, cli.Ingest.Registry, cli.Ingest.DryRun)
	if err != nil {
		return err
	}

	summary, err := svc.IngestTournament(ctx, rec.Games, reg)
	if err != nil {
		return err
	}

	log.Info(ctx, "ingest summary",
		logger.String("runID", summary.RunID),
		logger.Int("gamesProcessed", summary.GamesProcessed),
		logger.Int("players", len(summary.Standings)),
		logger.Int("playersUpdated", summary.PlayersUpdated),
		logger.Int("failedWrites", len(summary.FailedWrites)),
	)
	for i, st := range summary.Standings {
		if i >= topNShown {
			break
		}
		log.Info(ctx, "standing",
			logger.Int("rank", i+1),
			logger.String("player", string(st.Key)),
			logger.String("name", st.DisplayName),
			logger.Float64("rating", st.Rating),
			logger.Int("games", st.GamesPlayed),
			logger.Int("wins", st.Wins),
		)
	}
	return nil
}

// openRegistry picks the SQLite store, or an in-memory one for dry runs.
func openRegistry(cfg *config.Config, override string, dryRun bool) (registry.Store, error) {
	if dryRun {
		return registry.NewInMemoryStore(), nil
	}
	path := cfg.RegistryPath
	if override != "" {
		path = override
	}
	return registry.NewSQLiteStore(path)
}

func metricsAddr(cfg *config.Config) string {
	if cli.Replay.MetricsAddr != "" {
		return cli.Replay.MetricsAddr
	}
	return cfg.MetricsAddr
}

// serveMetrics exposes the Prometheus endpoint for the lifetime of the run.
func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       metricsReadTimeout,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics server stopped", logger.Error(err))
	}
}
