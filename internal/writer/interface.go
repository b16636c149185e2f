package writer

import (
	"context"

	"github.com/SteelMorgan/logtailn/internal/domain"
)

// ProgressWriter records reading progress for monitoring.
// It mirrors the persisted state with additional metadata and is never
// the source of truth for resuming.
type ProgressWriter interface {
	// WriteFileReadingProgress records one completed run
	WriteFileReadingProgress(ctx context.Context, progress *domain.FileReadingProgress) error

	// Close releases the underlying connection
	Close() error
}
