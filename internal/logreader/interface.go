package logreader

import (
	"github.com/SteelMorgan/logtailn/internal/domain"
)

// Resolver obtains the identity of a file by path
type Resolver interface {
	// Stat returns the inode and size of the file currently at path.
	// Two names for the same underlying file yield the same inode.
	Stat(path string) (domain.FileIdentity, error)
}
