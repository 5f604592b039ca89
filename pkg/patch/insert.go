package patch

import (
	"errors"
	"fmt"
	"io"

	gomacho "github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

// Section types that occupy no file space.
const (
	sectionTypeMask    = 0xff
	sectionZerofill    = 0x1
	sectionGBZerofill  = 0xc
	sectionTLVZerofill = 0x12
)

func zerofill(flags types.SectionFlag) bool {
	switch uint32(flags) & sectionTypeMask {
	case sectionZerofill, sectionGBZerofill, sectionTLVZerofill:
		return true
	}
	return false
}

// insertion is a checked, not yet applied, load command insertion.
type insertion struct {
	base   int64 // start of the Mach-O image
	limit  int64 // end of the Mach-O image
	header macho.Header64
	offset int64 // where the command goes
	cmd    []byte
	slack  int64
}

// plan reads the header at base and checks the new command fits in the
// zeroed padding between the load commands and the first section.
// It never writes.
func (p *Patcher) plan(base, limit int64) (*insertion, error) {
	if limit-base < macho.Header64Size {
		return nil, fmt.Errorf("%w: image at %#x is only %d bytes", ErrTruncatedHeader, base, max(limit-base, 0))
	}
	var hb [macho.Header64Size]byte
	if err := p.readFull(hb[:], base); err != nil {
		return nil, err
	}
	hdr, err := macho.DecodeHeader64(hb[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	switch hdr.Magic {
	case macho.Magic64:
	case macho.Magic32:
		return nil, &UnsupportedFormatError{Format: "32-bit Mach-O"}
	default:
		return nil, &UnknownMagicError{Magic: hdr.Magic, Offset: base}
	}

	dc := macho.NewDylibCmd(p.padded)
	ins := &insertion{
		base:   base,
		limit:  limit,
		header: hdr,
		offset: base + int64(hdr.CommandsEnd()),
		cmd:    dc.Encode(p.padded),
	}

	end, err := p.headerEnd(&ins.header, base, limit)
	if err != nil {
		return nil, err
	}
	ins.slack = end - ins.offset
	if ins.slack < int64(len(ins.cmd)) {
		return nil, &InconsistentError{
			Reason: fmt.Sprintf("not enough space after load commands at %#x: need %d bytes, have %d", ins.offset, len(ins.cmd), max(ins.slack, 0)),
		}
	}

	region := make([]byte, len(ins.cmd))
	if err := p.readFull(region, ins.offset); err != nil {
		return nil, err
	}
	for i, b := range region {
		if b != 0 {
			return nil, &InconsistentError{
				Reason: fmt.Sprintf("space after load commands is in use: non-zero byte at %#x", ins.offset+int64(i)),
			}
		}
	}
	return ins, nil
}

// headerEnd returns the absolute offset where the header padding ends: the
// lowest file offset of any segment or section contents in the image, or
// limit when the image maps nothing past its header.
func (p *Patcher) headerEnd(hdr *macho.Header64, base, limit int64) (int64, error) {
	if base+int64(hdr.CommandsEnd()) > limit {
		return 0, &InconsistentError{
			Reason: fmt.Sprintf("load commands (%d bytes) run past the end of the image at %#x", hdr.SizeOfCmds, limit),
		}
	}

	sr := io.NewSectionReader(p.store, base, limit-base)
	m, err := gomacho.NewFile(sr, gomacho.FileConfig{
		LoadFilter: []types.LoadCmd{types.LC_SEGMENT_64},
		SrcReader:  sr,
	})
	if err != nil {
		return 0, &InconsistentError{Reason: fmt.Sprintf("cannot parse load commands of image at %#x", base), Err: err}
	}
	defer m.Close()

	end := limit
	lower := func(off uint64) {
		if off == 0 {
			return
		}
		if abs := base + int64(off); abs < end {
			end = abs
		}
	}
	for _, seg := range m.Segments() {
		if seg.Filesz > 0 {
			lower(seg.Offset)
		}
	}
	for _, s := range m.Sections {
		if s.Size > 0 && !zerofill(s.Flags) {
			lower(uint64(s.Offset))
		}
	}
	return end, nil
}

// apply writes the command and then the header that advertises it.
func (p *Patcher) apply(ins *insertion) (Slice, error) {
	if err := p.writeFull(ins.cmd, ins.offset); err != nil {
		return Slice{}, err
	}
	p.emit(Event{
		Kind:   EventCommandWritten,
		Cpu:    ins.header.Cpu,
		Offset: ins.offset,
		Slack:  ins.slack,
		Data:   ins.cmd,
	})
	if s, ok := p.store.(syncer); ok {
		if err := s.Sync(); err != nil {
			return Slice{}, p.rollback(ins, &IOError{Op: "sync", Offset: ins.offset, Err: err})
		}
	}

	hdr := ins.header
	hdr.NCmds++
	hdr.SizeOfCmds += uint32(len(ins.cmd))
	if err := p.writeFull(hdr.Bytes(), ins.base); err != nil {
		return Slice{}, p.rollback(ins, err)
	}
	p.emit(Event{
		Kind:   EventHeaderUpdated,
		Cpu:    hdr.Cpu,
		Offset: ins.base,
		Header: hdr,
	})

	if p.opts.Verify {
		if err := p.verify(ins); err != nil {
			return Slice{}, err
		}
		p.emit(Event{Kind: EventVerified, Cpu: hdr.Cpu, Offset: ins.base})
	}

	return Slice{
		Cpu:     hdr.Cpu,
		Base:    ins.base,
		Offset:  ins.offset,
		CmdSize: uint32(len(ins.cmd)),
		Header:  hdr,
	}, nil
}

// rollback zeroes the command region after the header could not be written,
// so the padding reads as unused again.
func (p *Patcher) rollback(ins *insertion, cause error) error {
	if err := p.writeFull(make([]byte, len(ins.cmd)), ins.offset); err != nil {
		return &InconsistentError{
			Reason: fmt.Sprintf("command written at %#x but header at %#x was not updated", ins.offset, ins.base),
			Err:    errors.Join(cause, err),
		}
	}
	return cause
}
