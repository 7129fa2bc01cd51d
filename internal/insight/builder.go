// Package insight turns an owner's financial snapshot into a generated
// narrative. The generator is called once per request under a timeout and
// is never retried.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

// DefaultTimeout bounds a generation call when none is configured.
const DefaultTimeout = 30 * time.Second

var (
	ErrEmptyResponse = errors.New("generator returned no text")
	ErrNotConfigured = errors.New("generator not configured")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SnapshotSource provides the aggregated data an insight is built from.
type SnapshotSource interface {
	Snapshot(ctx context.Context, owner string) (core.InsightSnapshot, error)
}

// Builder turns an owner's report snapshot into a generated insight.
type Builder struct {
	source  SnapshotSource
	gen     Generator
	timeout time.Duration
	clock   func() time.Time
	logger  *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithTimeout bounds each generation call. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithClock replaces time.Now as the source of the generation timestamp.
func WithClock(clock func() time.Time) Option {
	return func(b *Builder) { b.clock = clock }
}

// WithLogger sets the logger that records generation outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a builder reading snapshots from source and prompting gen.
func NewBuilder(source SnapshotSource, gen Generator, opts ...Option) *Builder {
	b := &Builder{
		source:  source,
		gen:     gen,
		timeout: DefaultTimeout,
		clock:   time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build assembles the snapshot, renders the prompt and generates the
// narrative. Retrieval failures are returned unchanged; every generation
// failure is a *core.GenerationError and no partial insight is returned.
func (b *Builder) Build(ctx context.Context, owner string) (core.Insight, error) {
	snap, err := b.source.Snapshot(ctx, owner)
	if err != nil {
		return core.Insight{}, err
	}

	prompt, err := RenderPrompt(snap)
	if err != nil {
		return core.Insight{}, &core.GenerationError{Err: err}
	}

	start := time.Now()
	text, err := b.generate(ctx, prompt)
	if err != nil {
		b.logger.WarnContext(ctx, "Insight generation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return core.Insight{}, err
	}
	b.logger.InfoContext(ctx, "Insight generated",
		"prompt_bytes", len(prompt),
		"duration_ms", time.Since(start).Milliseconds())

	return core.Insight{
		FinancialData: snap,
		Text:          text,
		GeneratedAt:   b.clock().UTC(),
	}, nil
}

type result struct {
	text string
	err  error
}

// generate runs the generator in its own goroutine and waits for the result
// or the deadline, whichever comes first.
func (b *Builder) generate(ctx context.Context, prompt string) (string, error) {
	if b.gen == nil {
		return "", &core.GenerationError{Err: ErrNotConfigured}
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		text, err := b.gen.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", &core.GenerationError{Err: r.err}
		}
		if strings.TrimSpace(r.text) == "" {
			return "", &core.GenerationError{Err: ErrEmptyResponse}
		}
		return r.text, nil
	case <-ctx.Done():
		return "", &core.GenerationError{Err: fmt.Errorf("no response within %s: %w", b.timeout, ctx.Err())}
	}
}
