package macho

import (
	"encoding/binary"
	"fmt"
)

const (
	// FatHeaderSize is the on-disk size of a fat_header.
	FatHeaderSize = 2 * 4
	// FatArchSize is the on-disk size of a fat_arch entry.
	FatArchSize = 5 * 4
)

// A FatHeader is the header of a universal binary.
type FatHeader struct {
	Magic Magic
	NArch uint32
}

// DecodeFatHeader decodes a fat_header from b. Fields are read little-endian
// and then swapped when swap is set; Magic is left exactly as read.
func DecodeFatHeader(b []byte, swap bool) (FatHeader, error) {
	if len(b) < FatHeaderSize {
		return FatHeader{}, fmt.Errorf("fat_header needs %d bytes, got %d", FatHeaderSize, len(b))
	}
	return FatHeader{
		Magic: Magic(binary.LittleEndian.Uint32(b[0:])),
		NArch: SwapIf(binary.LittleEndian.Uint32(b[4:]), swap),
	}, nil
}

// FatArchOffset is the file offset of the i'th fat_arch entry.
func FatArchOffset(i uint32) int64 {
	return FatHeaderSize + int64(i)*FatArchSize
}

// A FatArch is one entry of a universal binary's architecture table.
type FatArch struct {
	Cpu    Cpu
	SubCpu uint32
	Offset uint32
	Size   uint32
	Align  uint32
}

// DecodeFatArch decodes a fat_arch entry from b, swapping every field when swap is set.
func DecodeFatArch(b []byte, swap bool) (FatArch, error) {
	if len(b) < FatArchSize {
		return FatArch{}, fmt.Errorf("fat_arch needs %d bytes, got %d", FatArchSize, len(b))
	}
	o := binary.LittleEndian
	return FatArch{
		Cpu:    Cpu(SwapIf(o.Uint32(b[0:]), swap)),
		SubCpu: SwapIf(o.Uint32(b[4:]), swap),
		Offset: SwapIf(o.Uint32(b[8:]), swap),
		Size:   SwapIf(o.Uint32(b[12:]), swap),
		Align:  SwapIf(o.Uint32(b[16:]), swap),
	}, nil
}

// Put encodes a into b in the archive's byte order.
func (a *FatArch) Put(b []byte, swap bool) int {
	o := binary.LittleEndian
	o.PutUint32(b[0:], SwapIf(uint32(a.Cpu), swap))
	o.PutUint32(b[4:], SwapIf(a.SubCpu, swap))
	o.PutUint32(b[8:], SwapIf(a.Offset, swap))
	o.PutUint32(b[12:], SwapIf(a.Size, swap))
	o.PutUint32(b[16:], SwapIf(a.Align, swap))
	return FatArchSize
}

// Put encodes h into b in the archive's byte order. Magic is written as is.
func (h *FatHeader) Put(b []byte, swap bool) int {
	o := binary.LittleEndian
	o.PutUint32(b[0:], uint32(h.Magic))
	o.PutUint32(b[4:], SwapIf(h.NArch, swap))
	return FatHeaderSize
}

// End is the file offset just past the slice.
func (a FatArch) End() uint64 {
	return uint64(a.Offset) + uint64(a.Size)
}

func (a FatArch) String() string {
	return fmt.Sprintf("%s offset=%#x size=%#x align=2^%d", a.Cpu, a.Offset, a.Size, a.Align)
}
