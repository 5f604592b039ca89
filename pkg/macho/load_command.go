package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blacktop/go-macho/types"
)

// A LoadCmd is a Mach-O load command.
type LoadCmd uint32

// LoadCmdDylib is LC_LOAD_DYLIB, the only command this package writes.
const LoadCmdDylib LoadCmd = LoadCmd(types.LC_LOAD_DYLIB)

var cmdStrings = []intName{
	{uint32(LoadCmdDylib), "LC_LOAD_DYLIB"},
}

func (i LoadCmd) String() string { return stringName(uint32(i), cmdStrings) }

// LoadCmdAlign is the alignment every 64-bit load command size must honour.
const LoadCmdAlign = 8

// DylibCmdSize is the size of a dylib_command without its trailing name.
const DylibCmdSize = 6 * 4

// A DylibCmd is a Mach-O load dynamic library command.
type DylibCmd struct {
	Cmd            LoadCmd
	Len            uint32
	NameOffset     uint32
	Timestamp      uint32
	CurrentVersion uint32
	CompatVersion  uint32
}

// NewDylibCmd returns an LC_LOAD_DYLIB command sized for an already padded name.
func NewDylibCmd(paddedName []byte) DylibCmd {
	return DylibCmd{
		Cmd:        LoadCmdDylib,
		Len:        uint32(DylibCmdSize + len(paddedName)),
		NameOffset: DylibCmdSize,
	}
}

// DecodeDylibCmd decodes a little-endian dylib_command header from b.
func DecodeDylibCmd(b []byte) (DylibCmd, error) {
	if len(b) < DylibCmdSize {
		return DylibCmd{}, fmt.Errorf("dylib_command needs %d bytes, got %d", DylibCmdSize, len(b))
	}
	o := binary.LittleEndian
	return DylibCmd{
		Cmd:            LoadCmd(o.Uint32(b[0:])),
		Len:            o.Uint32(b[4:]),
		NameOffset:     o.Uint32(b[8:]),
		Timestamp:      o.Uint32(b[12:]),
		CurrentVersion: o.Uint32(b[16:]),
		CompatVersion:  o.Uint32(b[20:]),
	}, nil
}

// Put encodes c into b, which must hold at least DylibCmdSize bytes.
func (c *DylibCmd) Put(b []byte) int {
	o := binary.LittleEndian
	o.PutUint32(b[0:], uint32(c.Cmd))
	o.PutUint32(b[4:], c.Len)
	o.PutUint32(b[8:], c.NameOffset)
	o.PutUint32(b[12:], c.Timestamp)
	o.PutUint32(b[16:], c.CurrentVersion)
	o.PutUint32(b[20:], c.CompatVersion)
	return DylibCmdSize
}

// Encode returns the full command: the fixed header followed by the padded name.
func (c *DylibCmd) Encode(paddedName []byte) []byte {
	b := make([]byte, DylibCmdSize+len(paddedName))
	n := c.Put(b)
	copy(b[n:], paddedName)
	return b
}

// PadPath appends between 1 and LoadCmdAlign zero bytes to path so the result
// is NUL terminated and its length is a multiple of LoadCmdAlign.
func PadPath(path []byte) []byte {
	extra := LoadCmdAlign - len(path)%LoadCmdAlign
	out := make([]byte, len(path)+extra)
	copy(out, path)
	return out
}

// DylibName returns the NUL-terminated name stored in a full dylib command.
func DylibName(cmd []byte) (string, error) {
	c, err := DecodeDylibCmd(cmd)
	if err != nil {
		return "", err
	}
	if c.Len > uint32(len(cmd)) || c.NameOffset >= c.Len {
		return "", fmt.Errorf("invalid name offset %#x in %d byte command", c.NameOffset, c.Len)
	}
	name := cmd[c.NameOffset:c.Len]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name), nil
}
