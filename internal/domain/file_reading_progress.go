package domain

import "time"

// FileReadingProgress describes one completed run for monitoring.
// It mirrors the persisted state with additional metadata.
type FileReadingProgress struct {
	Timestamp    time.Time
	RunID        string
	StatePath    string   // Sidecar path or bolt key the state was saved under
	Files        []string // Candidate list in the order given
	FilePath     string   // Last candidate, the file the state refers to
	Inode        uint64
	OffsetBytes  int64 // Persisted offset
	BytesEmitted int64 // Bytes written to output during this run
	StartIndex   int
	StartOffset  int64
	Truncated    bool
	DurationMs   uint64
}
