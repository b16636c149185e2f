package offset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/rs/zerolog/log"
)

// stateFileMode keeps the sidecar private: it reveals how much of a
// possibly sensitive log has already been exposed.
const stateFileMode os.FileMode = 0o600

// SidecarStore implements Store as a small text file holding "<inode> <offset>\n"
type SidecarStore struct {
	path string
}

// NewSidecarStore creates a store backed by the file at path
func NewSidecarStore(path string) *SidecarStore {
	return &SidecarStore{path: path}
}

// Path returns the sidecar file path
func (s *SidecarStore) Path() string {
	return s.path
}

// Load reads the sidecar. A missing or unopenable file yields the zero state.
func (s *SidecarStore) Load(ctx context.Context) (domain.PersistedState, error) {
	f, err := os.Open(s.path)
	if err != nil {
		log.Debug().
			Err(err).
			Str("state_path", s.path).
			Msg("No readable offset file, starting without prior state")
		return domain.PersistedState{}, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidFormat, s.path, err)
	}

	state, err := ParseState(string(data))
	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("%s: %w", s.path, err)
	}

	log.Debug().
		Str("state_path", s.path).
		Uint64("inode", state.Identity).
		Int64("offset", state.Offset).
		Msg("Loaded offset file")

	return state, nil
}

// Save creates or truncates the sidecar, restricts it to the owner and writes the state
func (s *SidecarStore) Save(ctx context.Context, state domain.PersistedState) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, stateFileMode)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrCannotCreate, s.path, err)
	}

	// An existing file keeps its old mode on open, so set it explicitly.
	if err := f.Chmod(stateFileMode); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrCannotSetPermissions, s.path, err)
	}

	if _, err := io.WriteString(f, FormatState(state)); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrCannotCreate, s.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrCannotCreate, s.path, err)
	}

	log.Debug().
		Str("state_path", s.path).
		Uint64("inode", state.Identity).
		Int64("offset", state.Offset).
		Msg("Offset file updated")

	return nil
}

// Close is a no-op; the sidecar is opened per operation
func (s *SidecarStore) Close() error {
	return nil
}

// FormatState renders the sidecar text form
func FormatState(state domain.PersistedState) string {
	return fmt.Sprintf("%d %d\n", state.Identity, state.Offset)
}

// ParseState parses exactly two whitespace-separated integers:
// an unsigned inode followed by a non-negative offset.
func ParseState(text string) (domain.PersistedState, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return domain.PersistedState{}, fmt.Errorf("%w: expected 2 fields, got %d", domain.ErrInvalidFormat, len(fields))
	}

	identity, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("%w: inode %q", domain.ErrInvalidFormat, fields[0])
	}

	offset, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("%w: offset %q", domain.ErrInvalidFormat, fields[1])
	}
	if offset < 0 {
		return domain.PersistedState{}, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidFormat, offset)
	}

	return domain.PersistedState{Identity: identity, Offset: offset}, nil
}
