package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/SteelMorgan/logtailn/internal/logreader"
	"github.com/SteelMorgan/logtailn/internal/offset"
	"github.com/SteelMorgan/logtailn/internal/writer"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// Options configures a TailService
type Options struct {
	Files    []string              // Candidates, oldest rotation first; at least one
	Store    offset.Store          // Where the position is persisted
	Output   io.Writer             // Receives the log bytes
	Resolver logreader.Resolver    // Defaults to logreader.StatResolver
	LockPath string                // Advisory lock file; empty disables locking
	Progress writer.ProgressWriter // Optional monitoring mirror
	RunID    string                // Defaults to a new UUID
}

// RunResult describes one completed run
type RunResult struct {
	RunID        string
	Plan         domain.InvocationPlan
	State        domain.PersistedState // State persisted at the end of the run
	BytesEmitted int64
}

// TailService performs one incremental pass over the target files
type TailService struct {
	files    []string
	store    offset.Store
	emitter  *logreader.Emitter
	resolver logreader.Resolver
	lockPath string
	progress writer.ProgressWriter
	runID    string
}

// NewTailService creates a new tail service
func NewTailService(opts Options) (*TailService, error) {
	if len(opts.Files) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("offset store is required")
	}
	if opts.Output == nil {
		return nil, fmt.Errorf("output is required")
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = logreader.StatResolver{}
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	files := make([]string, len(opts.Files))
	copy(files, opts.Files)

	return &TailService{
		files:    files,
		store:    opts.Store,
		emitter:  logreader.NewEmitter(opts.Output),
		resolver: resolver,
		lockPath: opts.LockPath,
		progress: opts.Progress,
		runID:    runID,
	}, nil
}

// Run loads the state, emits everything new and persists the new position.
// Nothing is retried. State is only written after every byte has been
// accepted by the output, so a failed run is re-emitted on the next one.
func (s *TailService) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{RunID: s.runID}

	ctx, span := startSpan(ctx, "logtailn.run",
		attribute.String("run_id", result.RunID),
		attribute.String("state_path", s.store.Path()),
		attribute.StringSlice("files", s.files),
	)
	var err error
	defer func() { endSpan(span, err, "run") }()

	logger := log.With().Str("run_id", result.RunID).Logger()

	if s.lockPath != "" {
		var unlock func()
		unlock, err = s.acquireLock()
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var state domain.PersistedState
	state, err = s.load(ctx)
	if err != nil {
		return nil, err
	}

	result.Plan, err = s.detect(ctx, state)
	if err != nil {
		return nil, err
	}

	var emitted logreader.EmitResult
	emitted, err = s.emit(ctx, result.Plan)
	result.BytesEmitted = emitted.BytesEmitted
	if err != nil {
		logger.Error().
			Err(err).
			Int64("bytes", emitted.BytesEmitted).
			Msg("Emit failed, offset not saved")
		return result, err
	}

	// Re-stat after emitting: the earlier identity scan may be stale by now
	last := s.files[len(s.files)-1]
	var id domain.FileIdentity
	id, err = s.resolver.Stat(last)
	if err != nil {
		return result, err
	}

	result.State = domain.PersistedState{Identity: id.Inode, Offset: emitted.Offset}
	if err = s.save(ctx, result.State); err != nil {
		return result, err
	}

	logger.Info().
		Str("file", last).
		Uint64("inode", result.State.Identity).
		Int64("offset", result.State.Offset).
		Int64("bytes", result.BytesEmitted).
		Msg("Run complete")

	s.mirror(ctx, result, last, time.Since(started))

	return result, nil
}

func (s *TailService) acquireLock() (func(), error) {
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %w", domain.ErrCannotCreate, s.lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocked, s.lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Str("lock", s.lockPath).Msg("Failed to release lock")
		}
	}, nil
}

func (s *TailService) load(ctx context.Context) (state domain.PersistedState, err error) {
	ctx, span := startSpan(ctx, "logtailn.load_state")
	defer func() { endSpan(span, err, "load state") }()

	state, err = s.store.Load(ctx)
	if err != nil {
		return state, err
	}

	span.SetAttributes(
		attribute.Int64("inode", int64(state.Identity)),
		attribute.Int64("offset", state.Offset),
	)
	return state, nil
}

func (s *TailService) detect(ctx context.Context, state domain.PersistedState) (plan domain.InvocationPlan, err error) {
	_, span := startSpan(ctx, "logtailn.detect_rotation")
	defer func() { endSpan(span, err, "detect rotation") }()

	plan, err = logreader.Detect(state, s.files, s.resolver)
	if err != nil {
		return plan, err
	}

	span.SetAttributes(
		attribute.Int("start_index", plan.StartIndex),
		attribute.Int64("start_offset", plan.StartOffset),
		attribute.Bool("truncated", plan.Truncated),
	)
	return plan, nil
}

func (s *TailService) emit(ctx context.Context, plan domain.InvocationPlan) (res logreader.EmitResult, err error) {
	_, span := startSpan(ctx, "logtailn.emit")
	defer func() { endSpan(span, err, "emit") }()

	res, err = s.emitter.Emit(s.files, plan)
	span.SetAttributes(
		attribute.Int64("bytes_emitted", res.BytesEmitted),
		attribute.Int64("offset", res.Offset),
	)
	return res, err
}

func (s *TailService) save(ctx context.Context, state domain.PersistedState) (err error) {
	ctx, span := startSpan(ctx, "logtailn.save_state")
	defer func() { endSpan(span, err, "save state") }()

	return s.store.Save(ctx, state)
}

// mirror records the run in the progress writer. Failures are only logged:
// the store, not the mirror, is what the next run resumes from.
func (s *TailService) mirror(ctx context.Context, result *RunResult, last string, elapsed time.Duration) {
	if s.progress == nil {
		return
	}

	progress := &domain.FileReadingProgress{
		Timestamp:    time.Now(),
		RunID:        result.RunID,
		StatePath:    s.store.Path(),
		Files:        s.files,
		FilePath:     last,
		Inode:        result.State.Identity,
		OffsetBytes:  result.State.Offset,
		BytesEmitted: result.BytesEmitted,
		StartIndex:   result.Plan.StartIndex,
		StartOffset:  result.Plan.StartOffset,
		Truncated:    result.Plan.Truncated,
		DurationMs:   uint64(elapsed.Milliseconds()),
	}

	if err := s.progress.WriteFileReadingProgress(ctx, progress); err != nil {
		log.Warn().
			Err(err).
			Str("run_id", result.RunID).
			Msg("Failed to mirror reading progress")
	}
}
