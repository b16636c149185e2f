package logreader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultBufferSize is the size of the intermediate copy buffer
const DefaultBufferSize = 32 * 1024

// EmitResult is the outcome of streaming the planned files
type EmitResult struct {
	Offset       int64 // position reached in the last file
	BytesEmitted int64 // total bytes written to the output
}

// Emitter streams log files to an output as opaque bytes
type Emitter struct {
	out io.Writer
	buf []byte
}

// NewEmitter creates an emitter writing to out
func NewEmitter(out io.Writer) *Emitter {
	return &Emitter{
		out: out,
		buf: make([]byte, DefaultBufferSize),
	}
}

// Emit streams paths[plan.StartIndex] from plan.StartOffset, then every later
// path in full. The returned offset is the end position of the last path.
// On a failed write the partial result is returned with domain.ErrOutput.
func (e *Emitter) Emit(paths []string, plan domain.InvocationPlan) (EmitResult, error) {
	var result EmitResult

	if plan.StartIndex < 0 || plan.StartIndex >= len(paths) {
		return result, fmt.Errorf("start index %d out of range for %d files", plan.StartIndex, len(paths))
	}

	start := plan.StartOffset
	for _, path := range paths[plan.StartIndex:] {
		end, written, err := e.emitFile(path, start)
		result.BytesEmitted += written
		result.Offset = end
		if err != nil {
			return result, err
		}

		log.Debug().
			Str("file", path).
			Int64("from", start).
			Int64("offset", end).
			Int64("bytes", written).
			Msg("File emitted")

		// Every file after the first one is read from its beginning
		start = 0
	}

	return result, nil
}

// emitFile copies path from start to EOF and returns the position reached
func (e *Emitter) emitFile(path string, start int64) (int64, int64, error) {
	// Opened read-only as raw bytes so binary logs pass through unchanged
	f, err := os.Open(path)
	if err != nil {
		return start, 0, fmt.Errorf("%w: %s: %w", domain.ErrInputNotReadable, path, err)
	}
	defer f.Close()

	if start != 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return start, 0, fmt.Errorf("%w: seek %s to %d: %w", domain.ErrInputNotReadable, path, start, err)
		}
	}

	sink := &sinkWriter{w: e.out}
	// Wrapping the file hides WriterTo so every byte goes through the buffer
	written, copyErr := io.CopyBuffer(sink, struct{ io.Reader }{f}, e.buf)

	end, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		end = start + written
	}

	if copyErr != nil {
		if sink.err != nil || errors.Is(copyErr, io.ErrShortWrite) {
			return end, written, fmt.Errorf("%w: %s: %w", domain.ErrOutput, path, copyErr)
		}
		return end, written, fmt.Errorf("%w: %s: %w", domain.ErrInputNotReadable, path, copyErr)
	}

	return end, written, nil
}

// sinkWriter remembers write failures so they can be told apart from read failures
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}
