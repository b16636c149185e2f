package domain

// PersistedState is the position remembered between invocations.
// Identity 0 means there is no prior state.
type PersistedState struct {
	Identity uint64 // inode of the last file read
	Offset   int64  // byte offset to resume from, never negative
}

// IsZero reports whether no previous run has been recorded.
// An identity of 0 never matches a file, whatever the offset.
func (s PersistedState) IsZero() bool {
	return s.Identity == 0
}

// FileIdentity is the result of a stat on a target path.
// Only Inode identifies the file; Size feeds the truncation check.
type FileIdentity struct {
	Path  string
	Inode uint64
	Size  int64
}

// InvocationPlan says where the emitter starts reading
type InvocationPlan struct {
	StartIndex  int   // index into the candidate list
	StartOffset int64 // byte offset inside the candidate at StartIndex
	Truncated   bool  // matched file was smaller than the persisted offset
}
