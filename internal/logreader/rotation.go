package logreader

import (
	"fmt"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/rs/zerolog/log"
)

// Detect decides where reading resumes.
//
// Candidates are stat'ed in order and the first one whose inode equals the
// persisted identity is the match. Without a match everything is read from
// the start of the first candidate. With a match reading resumes at the
// persisted offset inside it, unless the file is now smaller than that
// offset, in which case the matched file is re-read from its start.
//
// Candidates before the match are skipped: the caller is expected to pass
// the same rotation history, oldest first, on every run, so those files
// were fully emitted earlier.
//
// Every candidate is stat'ed, including those after the match, so a missing
// target aborts the run before any output is written.
func Detect(state domain.PersistedState, paths []string, resolver Resolver) (domain.InvocationPlan, error) {
	if len(paths) == 0 {
		return domain.InvocationPlan{}, fmt.Errorf("no files to read")
	}

	var match *domain.FileIdentity
	index := -1
	for i, path := range paths {
		id, err := resolver.Stat(path)
		if err != nil {
			return domain.InvocationPlan{}, err
		}
		if match == nil && !state.IsZero() && id.Inode == state.Identity {
			match = &id
			index = i
		}
	}

	if match == nil {
		log.Debug().
			Uint64("inode", state.Identity).
			Msg("Previous log file not found, reading all files from the start")
		return domain.InvocationPlan{StartIndex: 0, StartOffset: 0}, nil
	}

	if state.Offset > match.Size {
		log.Warn().
			Str("file", match.Path).
			Int64("offset", state.Offset).
			Int64("size", match.Size).
			Msg("Log file is smaller than last time checked! This could indicate tampering.")
		return domain.InvocationPlan{StartIndex: index, StartOffset: 0, Truncated: true}, nil
	}

	log.Debug().
		Str("file", match.Path).
		Int("index", index).
		Int64("offset", state.Offset).
		Msg("Resuming from saved offset")

	return domain.InvocationPlan{StartIndex: index, StartOffset: state.Offset}, nil
}
