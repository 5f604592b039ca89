package patch

import (
	"fmt"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

// patchFat walks the architecture table of a universal binary. Every entry is
// classified and every selected slice is planned before the first write, so
// an unsupported or unpatchable slice leaves the file untouched.
func (p *Patcher) patchFat(swap bool) ([]Slice, error) {
	var hb [macho.FatHeaderSize]byte
	if err := p.readFull(hb[:], 0); err != nil {
		return nil, err
	}
	fh, err := macho.DecodeFatHeader(hb[:], swap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	p.emit(Event{Kind: EventArchCount, Magic: fh.Magic, Count: fh.NArch})
	if fh.NArch == 0 {
		return nil, ErrNoArchitectures
	}

	size := p.store.Size()
	if tableEnd := macho.FatArchOffset(fh.NArch); tableEnd > size {
		return nil, fmt.Errorf("%w: %d fat_arch entries end at %#x, store is %d bytes", ErrTruncatedHeader, fh.NArch, tableEnd, size)
	}
	table := make([]byte, int(fh.NArch)*macho.FatArchSize)
	if err := p.readFull(table, macho.FatHeaderSize); err != nil {
		return nil, err
	}

	archs := make([]macho.FatArch, 0, fh.NArch)
	for i := uint32(0); i < fh.NArch; i++ {
		arch, err := macho.DecodeFatArch(table[i*macho.FatArchSize:], swap)
		if err != nil {
			return nil, fmt.Errorf("%w: fat_arch[%d]: %v", ErrTruncatedHeader, i, err)
		}
		if !arch.Cpu.Supported() {
			return nil, &UnsupportedArchError{Cpu: arch.Cpu, Index: i}
		}
		p.emit(Event{Kind: EventArch, Index: i, Arch: arch, Cpu: arch.Cpu, Offset: int64(arch.Offset)})
		archs = append(archs, arch)
	}

	var plans []*insertion
	for i, arch := range p.selectArchs(archs) {
		if arch == nil {
			p.emit(Event{Kind: EventArchSkipped, Index: uint32(i), Arch: archs[i], Cpu: archs[i].Cpu, Offset: int64(archs[i].Offset)})
			continue
		}
		if arch.End() > uint64(size) {
			return nil, fmt.Errorf("%w: %s slice ends at %#x, store is %d bytes", ErrTruncatedHeader, arch.Cpu, arch.End(), size)
		}
		ins, err := p.plan(int64(arch.Offset), int64(arch.End()))
		if err != nil {
			return nil, fmt.Errorf("%s slice: %w", arch.Cpu, err)
		}
		plans = append(plans, ins)
	}

	slices := make([]Slice, 0, len(plans))
	for _, ins := range plans {
		s, err := p.apply(ins)
		if err != nil {
			return slices, fmt.Errorf("%s slice: %w", ins.header.Cpu, err)
		}
		slices = append(slices, s)
	}
	return slices, nil
}

// selectArchs returns archs with declined entries set to nil. A single
// architecture is always selected.
func (p *Patcher) selectArchs(archs []macho.FatArch) []*macho.FatArch {
	selected := make([]*macho.FatArch, len(archs))
	all := len(archs) == 1 || p.confirm("More than one arch found, insert dylib to all?")
	for i := range archs {
		if all || p.confirm(fmt.Sprintf("Insert dylib into %s slice?", archs[i].Cpu)) {
			selected[i] = &archs[i]
		}
	}
	return selected
}
