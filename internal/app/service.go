// Package service wires the rating engine together: it drives games
// through the single-game processor in chronological order, accumulates
// state in a per-run standings store, and reconciles the outcome with
// the persisted registry.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/riftline/mmr/internal/adapters/history"
	"github.com/riftline/mmr/internal/adapters/progress"
	"github.com/riftline/mmr/internal/adapters/registry"
	"github.com/riftline/mmr/internal/domain/engine"
	"github.com/riftline/mmr/internal/domain/formula"
	"github.com/riftline/mmr/internal/domain/model"
	"github.com/riftline/mmr/internal/domain/standings"
	"github.com/riftline/mmr/pkg/logger"
	"github.com/riftline/mmr/pkg/metrics"
)

// Default orchestration constants.
const (
	defaultBatchSize = 100
	fileReportEvery  = 5
	keyReportEvery   = 500
	replayMetricMode = "replay"
	ingestMetricMode = "ingest"
)

// KeyMapper translates an engine player key into the registry's key
// space. ok=false means the player has no persisted identity and is
// skipped during persistence, never errored.
type KeyMapper interface {
	ExternalFor(key model.PlayerKey) (registry.ExternalKey, bool)
}

// KeyMapFunc adapts a function to KeyMapper.
type KeyMapFunc func(key model.PlayerKey) (registry.ExternalKey, bool)

// ExternalFor calls the function.
func (f KeyMapFunc) ExternalFor(key model.PlayerKey) (registry.ExternalKey, bool) {
	return f(key)
}

// IdentityKeyMap maps keys verbatim between the two ID spaces.
type IdentityKeyMap struct{}

// ExternalFor returns the key unchanged.
func (IdentityKeyMap) ExternalFor(key model.PlayerKey) (registry.ExternalKey, bool) {
	return registry.ExternalKey(key), true
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithParams sets the formula parameters for every processed game.
func WithParams(p formula.Params) Option {
	return func(s *Service) {
		s.processor = engine.New(engine.WithParams(p))
	}
}

// WithBatchSize sets how many keys one persistence batch covers.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithKeyMapper sets the engine-to-registry key translation.
func WithKeyMapper(km KeyMapper) Option {
	return func(s *Service) {
		if km != nil {
			s.keymap = km
		}
	}
}

// WithMetrics sets the metrics manager; the default records against
// the process-wide Prometheus registerer.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Service is one configured rating pipeline. It holds no run state;
// each RunReplay or IngestTournament call owns a fresh standings store,
// so concurrent independent runs never interfere.
type Service struct {
	processor *engine.Processor
	keymap    KeyMapper
	batchSize int
	logger    logger.Logger
	metrics   *metrics.Manager
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		processor: engine.New(),
		keymap:    IdentityKeyMap{},
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	return s
}

// ReplaySummary reports the outcome of a full replay.
type ReplaySummary struct {
	RunID          string
	FilesProcessed int
	FilesSkipped   int
	GamesProcessed int
	GamesRejected  int
	PlayersRated   int
	PlayersUpdated int
	FailedWrites   []registry.ExternalKey
	Elapsed        time.Duration
}

// IngestSummary reports the outcome of a single-tournament ingest.
type IngestSummary struct {
	RunID          string
	GamesProcessed int
	Results        []map[model.PlayerKey]model.RatingUpdateResult
	Standings      []standings.RatingState
	PlayersUpdated int
	FailedWrites   []registry.ExternalKey
	Elapsed        time.Duration
}

// RunReplay recomputes every rating from the full ordered history.
// All players start from the initial rating; previously persisted
// values are ignored for computation and only consulted when deciding
// which final ratings to write back. Unreadable or malformed files are
// skipped, never fatal. The replay aborts between files (not mid-file)
// when ctx is cancelled.
func (s *Service) RunReplay(ctx context.Context, src history.Source, reg registry.Store, rep progress.Reporter) (summary ReplaySummary, err error) {
	if rep == nil {
		rep = progress.Noop{}
	}
	summary.RunID = uuid.NewString()
	start := time.Now()
	defer func() {
		summary.Elapsed = time.Since(start)
		s.metrics.ObserveRunDuration(replayMetricMode, summary.Elapsed.Seconds())
	}()

	ids, err := src.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("list history: %w", err)
	}
	// The naming scheme sorts chronologically; sort again so a source
	// returning identifiers in any order cannot reorder the replay.
	sort.Strings(ids)

	s.logger.Info(ctx, "starting full replay",
		logger.String("runID", summary.RunID),
		logger.Int("files", len(ids)),
	)

	store := standings.NewStore()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("replay aborted after %d files: %w", summary.FilesProcessed, err)
		}

		rec, err := src.Load(ctx, id)
		if err != nil {
			summary.FilesSkipped++
			s.metrics.RecordFileSkipped()
			s.logger.Warn(ctx, "skipping history file",
				logger.String("file", id),
				logger.Error(err),
			)
			continue
		}

		processed, rejected := s.processRecord(ctx, store, rec.Games)
		summary.GamesProcessed += processed
		summary.GamesRejected += rejected
		summary.FilesProcessed++
		s.metrics.RecordFileReplayed()

		if summary.FilesProcessed%fileReportEvery == 0 {
			rep.Report(fmt.Sprintf("replayed %d/%d files, %d games, %d players",
				summary.FilesProcessed, len(ids), summary.GamesProcessed, store.Len()))
		}
	}

	summary.PlayersRated = store.Len()
	s.metrics.SetPlayersTracked(store.Len())

	// Write through only players found in the registry whose rating
	// changed; a replay of unchanged history is a persistence no-op.
	updated, failed := s.persist(ctx, store.Snapshot(), reg, rep, true)
	summary.PlayersUpdated = updated
	summary.FailedWrites = failed

	s.logger.Info(ctx, "replay finished",
		logger.String("runID", summary.RunID),
		logger.Int("filesProcessed", summary.FilesProcessed),
		logger.Int("filesSkipped", summary.FilesSkipped),
		logger.Int("gamesProcessed", summary.GamesProcessed),
		logger.Int("playersRated", summary.PlayersRated),
		logger.Int("playersUpdated", summary.PlayersUpdated),
		logger.Int("failedWrites", len(summary.FailedWrites)),
	)
	return summary, nil
}

// IngestTournament applies one tournament's games on top of the
// persisted ratings. Ratings for the participants are fetched once,
// games are processed in chronological order, and only changed final
// ratings are written back. A malformed game aborts the ingest before
// anything is persisted; the caller supplied the data directly, so the
// error propagates instead of being skipped.
func (s *Service) IngestTournament(ctx context.Context, games []model.Game, reg registry.Store) (summary IngestSummary, err error) {
	summary.RunID = uuid.NewString()
	start := time.Now()
	defer func() {
		summary.Elapsed = time.Since(start)
		s.metrics.ObserveRunDuration(ingestMetricMode, summary.Elapsed.Seconds())
	}()

	store := standings.NewStore()
	if err := s.seedFromRegistry(ctx, store, games, reg); err != nil {
		return summary, err
	}
	seeded := snapshotRatings(store)

	ordered := make([]model.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortKey < ordered[j].SortKey })

	for i, game := range ordered {
		results, err := s.processGame(store, game)
		if err != nil {
			s.metrics.RecordGameRejected()
			return summary, fmt.Errorf("game %d: %w", i, err)
		}
		summary.GamesProcessed++
		summary.Results = append(summary.Results, results)
		s.metrics.RecordGameProcessed()
	}

	summary.Standings = store.Snapshot()
	s.metrics.SetPlayersTracked(store.Len())

	updated, failed := s.persistChangedSince(ctx, summary.Standings, seeded, reg)
	summary.PlayersUpdated = updated
	summary.FailedWrites = failed

	s.logger.Info(ctx, "tournament ingested",
		logger.String("runID", summary.RunID),
		logger.Int("games", summary.GamesProcessed),
		logger.Int("players", len(summary.Standings)),
		logger.Int("playersUpdated", summary.PlayersUpdated),
	)
	return summary, nil
}

// ProcessGame exposes isolated single-game computation with caller-
// supplied pre-game ratings, without touching any store or registry.
func (s *Service) ProcessGame(game model.Game, pregame map[model.PlayerKey]float64) (map[model.PlayerKey]model.RatingUpdateResult, error) {
	return s.processor.ProcessGame(game, pregame)
}

// processRecord runs one file's games through the engine, in order.
// Rejected games are logged and skipped; the file still counts as
// processed.
func (s *Service) processRecord(ctx context.Context, store *standings.Store, games []model.Game) (processed, rejected int) {
	ordered := make([]model.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortKey < ordered[j].SortKey })

	for _, game := range ordered {
		if _, err := s.processGame(store, game); err != nil {
			rejected++
			s.metrics.RecordGameRejected()
			s.logger.Warn(ctx, "skipping malformed game", logger.Error(err))
			continue
		}
		processed++
		s.metrics.RecordGameProcessed()
	}
	return processed, rejected
}

// processGame resolves pre-game ratings from the store, runs the
// processor, and folds the results back in.
func (s *Service) processGame(store *standings.Store, game model.Game) (map[model.PlayerKey]model.RatingUpdateResult, error) {
	roster := game.Roster()
	pregame := make(map[model.PlayerKey]float64, len(roster))
	for _, stat := range roster {
		pregame[stat.PlayerKey] = store.Rating(stat.PlayerKey)
	}

	results, err := s.processor.ProcessGame(game, pregame)
	if err != nil {
		return nil, err
	}

	// Apply in roster order so per-player history stays deterministic.
	for _, stat := range roster {
		store.ApplyGameResult(stat.PlayerKey, results[stat.PlayerKey])
	}
	return results, nil
}

// seedFromRegistry fetches persisted ratings for every participant of
// the given games and seeds the store with them. Players missing from
// the registry, or with no external identity, simply start at the
// initial rating.
func (s *Service) seedFromRegistry(ctx context.Context, store *standings.Store, games []model.Game, reg registry.Store) error {
	var keys []registry.ExternalKey
	byExternal := make(map[registry.ExternalKey]model.PlayerKey)
	names := make(map[model.PlayerKey]string)
	seen := make(map[model.PlayerKey]struct{})
	for _, game := range games {
		for _, stat := range game.Roster() {
			if _, ok := seen[stat.PlayerKey]; ok {
				continue
			}
			seen[stat.PlayerKey] = struct{}{}
			names[stat.PlayerKey] = stat.DisplayName
			if ext, ok := s.keymap.ExternalFor(stat.PlayerKey); ok {
				keys = append(keys, ext)
				byExternal[ext] = stat.PlayerKey
			}
		}
	}

	var seedErr error
	batches(keys, s.batchSize)(func(batch []registry.ExternalKey) bool {
		persisted, err := reg.FetchByKeys(ctx, batch)
		if err != nil {
			seedErr = fmt.Errorf("fetch persisted ratings: %w", err)
			return false
		}
		for _, row := range persisted {
			key := byExternal[row.Key]
			store.Seed(key, names[key], row.Rating)
		}
		return true
	})
	return seedErr
}

// snapshotRatings captures current ratings keyed by player, used as
// the changed-entry baseline for an ingest.
func snapshotRatings(store *standings.Store) map[model.PlayerKey]float64 {
	baseline := make(map[model.PlayerKey]float64, store.Len())
	for _, st := range store.Snapshot() {
		baseline[st.Key] = st.Rating
	}
	return baseline
}

// persist writes final ratings through the registry in fixed-size
// batches. With onlyExisting set (full replay), players absent from
// the registry are left alone; otherwise (ingest) they are created.
// Per-key write failures are recorded and never abort the batch.
func (s *Service) persist(ctx context.Context, finals []standings.RatingState, reg registry.Store, rep progress.Reporter, onlyExisting bool) (updated int, failed []registry.ExternalKey) {
	var keys []registry.ExternalKey
	ratingByExternal := make(map[registry.ExternalKey]float64)
	for _, st := range finals {
		ext, ok := s.keymap.ExternalFor(st.Key)
		if !ok {
			continue
		}
		keys = append(keys, ext)
		ratingByExternal[ext] = st.Rating
	}

	var done int
	batches(keys, s.batchSize)(func(batch []registry.ExternalKey) bool {
		persisted, err := reg.FetchByKeys(ctx, batch)
		if err != nil {
			s.logger.Error(ctx, "fetch batch failed, skipping", logger.Error(err))
			failed = append(failed, batch...)
			done += len(batch)
			return true
		}
		existing := make(map[registry.ExternalKey]float64, len(persisted))
		for _, row := range persisted {
			existing[row.Key] = row.Rating
		}

		for _, ext := range batch {
			old, found := existing[ext]
			if onlyExisting && !found {
				continue
			}
			newRating := ratingByExternal[ext]
			if found && old == newRating {
				continue
			}
			if err := reg.WriteRating(ctx, ext, newRating); err != nil {
				failed = append(failed, ext)
				s.metrics.RecordWriteError()
				s.logger.Error(ctx, "rating write failed",
					logger.String("key", string(ext)),
					logger.Error(err),
				)
				continue
			}
			updated++
			s.metrics.RecordRatingWritten()
		}

		done += len(batch)
		if done/keyReportEvery > (done-len(batch))/keyReportEvery {
			rep.Report(fmt.Sprintf("persisted %d/%d keys, %d updated", done, len(keys), updated))
		}
		return true
	})
	return updated, failed
}

// persistChangedSince writes every final rating that differs from the
// ingest baseline, creating registry rows for newly rated players.
func (s *Service) persistChangedSince(ctx context.Context, finals []standings.RatingState, baseline map[model.PlayerKey]float64, reg registry.Store) (updated int, failed []registry.ExternalKey) {
	for _, st := range finals {
		ext, ok := s.keymap.ExternalFor(st.Key)
		if !ok {
			continue
		}
		old, seeded := baseline[st.Key]
		if !seeded {
			old = formula.InitialRating
		}
		if st.Rating == old {
			continue
		}
		if err := reg.WriteRating(ctx, ext, st.Rating); err != nil {
			failed = append(failed, ext)
			s.metrics.RecordWriteError()
			s.logger.Error(ctx, "rating write failed",
				logger.String("key", string(ext)),
				logger.Error(err),
			)
			continue
		}
		updated++
		s.metrics.RecordRatingWritten()
	}
	return updated, failed
}

// batches yields fixed-size slices of keys, last one possibly short.
func batches(keys []registry.ExternalKey, size int) func(yield func([]registry.ExternalKey) bool) {
	return func(yield func([]registry.ExternalKey) bool) {
		for start := 0; start < len(keys); start += size {
			end := start + size
			if end > len(keys) {
				end = len(keys)
			}
			if !yield(keys[start:end]) {
				return
			}
		}
	}
}
