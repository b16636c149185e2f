package offset

import (
	"context"

	"github.com/SteelMorgan/logtailn/internal/domain"
)

// Store loads and saves the position remembered between invocations.
// Implementations: sidecar text file (default), BoltDB, ClickHouse mirror wrapper.
type Store interface {
	// Load returns the persisted state.
	// Returns the zero state if nothing has been persisted yet.
	Load(ctx context.Context) (domain.PersistedState, error)

	// Save replaces the persisted state
	Save(ctx context.Context, state domain.PersistedState) error

	// Path identifies where the state lives (file path or bolt key)
	Path() string

	// Close releases resources held by the store
	Close() error
}

// DefaultSuffix is appended to the last target file to name its sidecar
const DefaultSuffix = ".offset"

// DefaultPath returns the sidecar path used when none is given
func DefaultPath(lastFile string) string {
	return lastFile + DefaultSuffix
}
