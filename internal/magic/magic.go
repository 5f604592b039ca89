package magic

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

// Read returns the first word of r in host (little-endian) order.
func Read(r io.ReaderAt) (macho.Magic, error) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return 0, fmt.Errorf("failed to read magic: %w", err)
	}
	return macho.Magic(binary.LittleEndian.Uint32(magic[:])), nil
}

// IsMachO reports whether m starts a thin or fat Mach-O file.
func IsMachO(m macho.Magic) bool {
	switch m {
	case macho.Magic32, macho.Magic64, macho.MagicFatBE, macho.MagicFatLE:
		return true
	default:
		return false
	}
}

// IsFat reports whether m starts a universal binary, and whether its
// fields must be byte-swapped after a little-endian read.
func IsFat(m macho.Magic) (fat, swap bool) {
	switch m {
	case macho.MagicFatBE:
		return true, false
	case macho.MagicFatLE:
		return true, true
	default:
		return false, false
	}
}
