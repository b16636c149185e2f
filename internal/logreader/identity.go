package logreader

import (
	"fmt"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"golang.org/x/sys/unix"
)

// StatResolver resolves identities with stat(2), following symlinks
type StatResolver struct{}

// Stat returns the inode and size of path
func (StatResolver) Stat(path string) (domain.FileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return domain.FileIdentity{}, fmt.Errorf("%w: %s: %w", domain.ErrStat, path, err)
	}

	return domain.FileIdentity{
		Path:  path,
		Inode: uint64(st.Ino),
		Size:  st.Size,
	}, nil
}
