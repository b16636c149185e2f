package writer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/rs/zerolog/log"
)

// ClickHouse DateTime64 valid range: 1925-01-01 to 2283-11-11
var (
	minClickHouseDateTime = time.Date(1925, 1, 1, 0, 0, 0, 0, time.UTC)
	maxClickHouseDateTime = time.Date(2283, 11, 11, 23, 59, 59, 999999999, time.UTC)
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ensureValidDateTime ensures the time value is within ClickHouse DateTime64 range
func ensureValidDateTime(t time.Time) time.Time {
	if t.IsZero() || t.Before(minClickHouseDateTime) || t.After(maxClickHouseDateTime) {
		return minClickHouseDateTime
	}
	return t
}

// Execer is the subset of clickhouse.Conn the writer needs
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ClickHouseWriter writes reading progress rows to ClickHouse
type ClickHouseWriter struct {
	conn  Execer
	table string
	close func() error
}

// NewClickHouseWriter creates a writer inserting into table.
// closeFn, if set, is called by Close.
func NewClickHouseWriter(conn Execer, table string, closeFn func() error) (*ClickHouseWriter, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ClickHouseWriter{
		conn:  conn,
		table: table,
		close: closeFn,
	}, nil
}

// EnsureSchema creates the progress table if it does not exist
func (w *ClickHouseWriter) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	timestamp DateTime64(3),
	run_id String,
	state_path String,
	files Array(String),
	file_path String,
	inode UInt64,
	offset_bytes Int64,
	bytes_emitted Int64,
	start_index UInt32,
	start_offset Int64,
	truncated UInt8,
	duration_ms UInt64
) ENGINE = MergeTree ORDER BY (state_path, timestamp)`, w.table)

	if err := w.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.table, err)
	}
	return nil
}

// WriteFileReadingProgress inserts one progress row
func (w *ClickHouseWriter) WriteFileReadingProgress(ctx context.Context, progress *domain.FileReadingProgress) error {
	query := fmt.Sprintf(`INSERT INTO %s (timestamp, run_id, state_path, files, file_path, inode,
	offset_bytes, bytes_emitted, start_index, start_offset, truncated, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, w.table)

	var truncated uint8
	if progress.Truncated {
		truncated = 1
	}

	err := w.conn.Exec(ctx, query,
		ensureValidDateTime(progress.Timestamp),
		progress.RunID,
		progress.StatePath,
		progress.Files,
		progress.FilePath,
		progress.Inode,
		progress.OffsetBytes,
		progress.BytesEmitted,
		uint32(progress.StartIndex),
		progress.StartOffset,
		truncated,
		progress.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading progress: %w", err)
	}

	log.Debug().
		Str("run_id", progress.RunID).
		Str("table", w.table).
		Msg("Reading progress mirrored to ClickHouse")

	return nil
}

// Close closes the underlying connection
func (w *ClickHouseWriter) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}
