package patch

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/blacktop/go-macho/types"

	"github.com/ch1y1z1/insert-dylib/internal/buffer"
	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

const libSystem = "/usr/lib/libSystem.B.dylib"

// image describes a synthetic thin 64-bit Mach-O.
type image struct {
	cpu       macho.Cpu
	sectOff   uint32 // file offset of __TEXT,__text
	sectSize  uint32
	sectFlags uint32
	dylibs    []string
	noSegment bool
}

func (img image) commands() [][]byte {
	var cmds [][]byte
	if !img.noSegment {
		cmds = append(cmds, textSegment(img.sectOff, img.sectSize, img.sectFlags))
	}
	for _, name := range img.dylibs {
		padded := macho.PadPath([]byte(name))
		dc := macho.NewDylibCmd(padded)
		cmds = append(cmds, dc.Encode(padded))
	}
	return cmds
}

// commandsEnd is the offset just past the load commands of img.
func (img image) commandsEnd() uint32 {
	end := uint32(macho.Header64Size)
	for _, c := range img.commands() {
		end += uint32(len(c))
	}
	return end
}

func (img image) build(t testing.TB) []byte {
	t.Helper()
	cmds := img.commands()
	hdr := macho.Header64{
		Magic:  macho.Magic64,
		Cpu:    img.cpu,
		SubCpu: 3,
		Type:   2, // MH_EXECUTE
		NCmds:  uint32(len(cmds)),
		Flags:  0x00200085,
	}
	for _, c := range cmds {
		hdr.SizeOfCmds += uint32(len(c))
	}
	if img.commandsEnd() > img.sectOff {
		t.Fatalf("fixture: load commands end at %#x past section at %#x", img.commandsEnd(), img.sectOff)
	}

	out := make([]byte, img.sectOff+img.sectSize)
	off := hdr.Put(out)
	for _, c := range cmds {
		off += copy(out[off:], c)
	}
	if !zerofill(types.SectionFlag(img.sectFlags)) {
		for i := img.sectOff; i < uint32(len(out)); i++ {
			out[i] = 0xcc
		}
	}
	return out
}

// textSegment returns an LC_SEGMENT_64 for __TEXT holding one section.
func textSegment(sectOff, sectSize, sectFlags uint32) []byte {
	filesz := uint64(sectOff + sectSize)
	seg := types.Segment64{
		LoadCmd: types.LC_SEGMENT_64,
		Len:     uint32(binary.Size(types.Segment64{}) + binary.Size(types.Section64{})),
		Addr:    0x100000000,
		Memsz:   filesz,
		Filesz:  filesz,
		Maxprot: 5,
		Prot:    5,
		Nsect:   1,
	}
	copy(seg.Name[:], "__TEXT")
	sect := types.Section64{
		Addr:   0x100000000 + uint64(sectOff),
		Size:   uint64(sectSize),
		Offset: sectOff,
		Align:  2,
		Flags:  types.SectionFlag(sectFlags),
	}
	copy(sect.Name[:], "__text")
	copy(sect.Seg[:], "__TEXT")

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, seg)
	binary.Write(&buf, binary.LittleEndian, sect)
	return buf.Bytes()
}

// S_ATTR_PURE_INSTRUCTIONS|S_ATTR_SOME_INSTRUCTIONS
const textFlags = 0x80000400

func defaultImage(cpu macho.Cpu) image {
	return image{cpu: cpu, sectOff: 0x1000, sectSize: 0x100, sectFlags: textFlags, dylibs: []string{libSystem}}
}

const fatAlign = 12

// buildFat lays out archs in a universal binary, each slice aligned to 2^fatAlign.
// swap selects the usual big-endian on-disk layout.
func buildFat(t testing.TB, swap bool, cpus []macho.Cpu, slices ...[]byte) ([]byte, []macho.FatArch) {
	t.Helper()
	if len(cpus) != len(slices) {
		t.Fatalf("fixture: %d cpus for %d slices", len(cpus), len(slices))
	}
	align := uint32(1) << fatAlign
	alignUp := func(v uint32) uint32 { return (v + align - 1) &^ (align - 1) }

	archs := make([]macho.FatArch, len(slices))
	off := alignUp(uint32(macho.FatArchOffset(uint32(len(slices)))))
	for i, s := range slices {
		archs[i] = macho.FatArch{Cpu: cpus[i], SubCpu: 0, Offset: off, Size: uint32(len(s)), Align: fatAlign}
		off = alignUp(off + uint32(len(s)))
	}

	out := make([]byte, off)
	fh := macho.FatHeader{Magic: macho.MagicFatBE, NArch: uint32(len(slices))}
	if swap {
		fh.Magic = macho.MagicFatLE
	}
	fh.Put(out, swap)
	for i := range archs {
		archs[i].Put(out[macho.FatArchOffset(uint32(i)):], swap)
		copy(out[archs[i].Offset:], slices[i])
	}
	return out, archs
}

func newStore(data []byte) *buffer.ReadWriteBuffer {
	return buffer.NewFixedBuffer(data)
}

// recorder collects events.
type recorder struct {
	events []Event
}

func (r *recorder) on(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	var ks []EventKind
	for _, e := range r.events {
		ks = append(ks, e.Kind)
	}
	return ks
}

// scripted answers prompts in order and records them.
type scripted struct {
	t       testing.TB
	answers []bool
	prompts []string
}

func (s *scripted) confirm(prompt string) bool {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		s.t.Fatalf("unexpected prompt %q", prompt)
		return false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}

func header(t testing.TB, data []byte, base uint32) macho.Header64 {
	t.Helper()
	h, err := macho.DecodeHeader64(data[base:])
	if err != nil {
		t.Fatal(err)
	}
	return h
}
