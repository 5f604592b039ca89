package macho

import (
	"encoding/binary"
	"fmt"

	"github.com/blacktop/go-macho/types"
)

// Magic is the first word of a Mach-O or fat file, read in host (little-endian) order.
type Magic uint32

const (
	Magic32    Magic = Magic(types.Magic32)
	Magic64    Magic = Magic(types.Magic64)
	MagicFatBE Magic = Magic(types.MagicFat)
	MagicFatLE Magic = 0xbebafeca // MagicFatBE as seen through a little-endian read
)

var magicStrings = []intName{
	{uint32(Magic32), "32-bit Mach-O"},
	{uint32(Magic64), "64-bit Mach-O"},
	{uint32(MagicFatBE), "fat_be"},
	{uint32(MagicFatLE), "fat_le"},
}

func (i Magic) Int() uint32    { return uint32(i) }
func (i Magic) String() string { return stringName(uint32(i), magicStrings) }

// Header64Size is the on-disk size of a mach_header_64.
const Header64Size = types.FileHeaderSize64

// A Header64 represents a 64-bit Mach-O file header.
type Header64 struct {
	Magic      Magic
	Cpu        Cpu
	SubCpu     uint32
	Type       uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

// DecodeHeader64 decodes a little-endian mach_header_64 from b.
func DecodeHeader64(b []byte) (Header64, error) {
	if len(b) < Header64Size {
		return Header64{}, fmt.Errorf("mach_header_64 needs %d bytes, got %d", Header64Size, len(b))
	}
	o := binary.LittleEndian
	return Header64{
		Magic:      Magic(o.Uint32(b[0:])),
		Cpu:        Cpu(o.Uint32(b[4:])),
		SubCpu:     o.Uint32(b[8:]),
		Type:       o.Uint32(b[12:]),
		NCmds:      o.Uint32(b[16:]),
		SizeOfCmds: o.Uint32(b[20:]),
		Flags:      o.Uint32(b[24:]),
		Reserved:   o.Uint32(b[28:]),
	}, nil
}

// Put encodes h into b, which must hold at least Header64Size bytes.
func (h *Header64) Put(b []byte) int {
	o := binary.LittleEndian
	o.PutUint32(b[0:], uint32(h.Magic))
	o.PutUint32(b[4:], uint32(h.Cpu))
	o.PutUint32(b[8:], h.SubCpu)
	o.PutUint32(b[12:], h.Type)
	o.PutUint32(b[16:], h.NCmds)
	o.PutUint32(b[20:], h.SizeOfCmds)
	o.PutUint32(b[24:], h.Flags)
	o.PutUint32(b[28:], h.Reserved)
	return Header64Size
}

// Bytes returns the encoded header.
func (h *Header64) Bytes() []byte {
	b := make([]byte, Header64Size)
	h.Put(b)
	return b
}

// CommandsEnd is the offset, relative to the header, just past the last load command.
func (h *Header64) CommandsEnd() uint64 {
	return Header64Size + uint64(h.SizeOfCmds)
}

func (h Header64) String() string {
	return fmt.Sprintf(
		"Magic         = %s\n"+
			"CPU           = %s\n"+
			"Commands      = %d (Size: %d)\n",
		h.Magic,
		h.Cpu,
		h.NCmds,
		h.SizeOfCmds,
	)
}
