package offset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/SteelMorgan/logtailn/internal/domain"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.PersistedState
		wantErr bool
	}{
		{
			name:  "inode and offset with newline",
			input: "1234 567\n",
			want:  domain.PersistedState{Identity: 1234, Offset: 567},
		},
		{
			name:  "no trailing newline",
			input: "1234 567",
			want:  domain.PersistedState{Identity: 1234, Offset: 567},
		},
		{
			name:  "extra whitespace",
			input: "  42\t\t0 \n\n",
			want:  domain.PersistedState{Identity: 42, Offset: 0},
		},
		{
			name:  "largest inode",
			input: "18446744073709551615 9",
			want:  domain.PersistedState{Identity: 18446744073709551615, Offset: 9},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
		{
			name:    "single number",
			input:   "1234\n",
			wantErr: true,
		},
		{
			name:    "trailing garbage",
			input:   "1234 567 junk\n",
			wantErr: true,
		},
		{
			name:    "non-numeric inode",
			input:   "abc 567\n",
			wantErr: true,
		},
		{
			name:    "non-numeric offset",
			input:   "1234 5x\n",
			wantErr: true,
		},
		{
			name:    "negative offset",
			input:   "1234 -1\n",
			wantErr: true,
		},
		{
			name:    "negative inode",
			input:   "-5 10\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidFormat) {
					t.Errorf("ParseState(%q) error = %v, want ErrInvalidFormat", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSidecarLoadMissingFile(t *testing.T) {
	store := NewSidecarStore(filepath.Join(t.TempDir(), "absent.offset"))

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !state.IsZero() {
		t.Errorf("Load() = %+v, want zero state", state)
	}
}

func TestSidecarLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.offset")
	if err := os.WriteFile(path, []byte("not an offset\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewSidecarStore(path).Load(context.Background())
	if !errors.Is(err, domain.ErrInvalidFormat) {
		t.Fatalf("Load() error = %v, want ErrInvalidFormat", err)
	}
}

func TestSidecarSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.offset")
	store := NewSidecarStore(path)
	ctx := context.Background()

	want := domain.PersistedState{Identity: 987654, Offset: 4096}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "987654 4096\n" {
		t.Errorf("file content = %q, want %q", data, "987654 4096\n")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSidecarSaveRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.offset")
	// A pre-existing world-readable file must be tightened, not just truncated
	if err := os.WriteFile(path, []byte("1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewSidecarStore(path).Save(context.Background(), domain.PersistedState{Identity: 2, Offset: 3}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
}

func TestSidecarSaveTruncatesLongerContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.offset")
	if err := os.WriteFile(path, []byte("123456789 123456789\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := NewSidecarStore(path).Save(context.Background(), domain.PersistedState{Identity: 1, Offset: 2}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1 2\n" {
		t.Errorf("file content = %q, want %q", data, "1 2\n")
	}
}

func TestSidecarSaveCannotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "app.log.offset")

	err := NewSidecarStore(path).Save(context.Background(), domain.PersistedState{Identity: 1, Offset: 1})
	if !errors.Is(err, domain.ErrCannotCreate) {
		t.Fatalf("Save() error = %v, want ErrCannotCreate", err)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		lastFile string
		want     string
	}{
		{lastFile: "/var/log/syslog", want: "/var/log/syslog.offset"},
		{lastFile: "app.log", want: "app.log.offset"},
		{lastFile: "logs/app.log.1", want: "logs/app.log.1.offset"},
	}

	for _, tt := range tests {
		t.Run(tt.lastFile, func(t *testing.T) {
			if got := DefaultPath(tt.lastFile); got != tt.want {
				t.Errorf("DefaultPath(%q) = %q, want %q", tt.lastFile, got, tt.want)
			}
		})
	}
}
