// Package patch inserts an LC_LOAD_DYLIB load command into 64-bit and
// universal Mach-O binaries in place.
//
// The new command is appended after the existing load commands, in the
// header padding the linker leaves before the first section. Nothing is
// shifted: if the padding is too small or already in use the patch is
// refused and the store is left untouched.
package patch

import (
	"errors"
	"fmt"
	"io"

	"github.com/ch1y1z1/insert-dylib/internal/magic"
	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

// A Confirmer answers a yes/no question. It is consulted only when a
// universal binary holds more than one architecture.
type Confirmer func(prompt string) bool

// Options control a patch run.
type Options struct {
	// AllYes answers every question with yes without calling Confirm.
	AllYes bool
	// Confirm is asked before patching multiple slices. A nil Confirm means yes.
	Confirm Confirmer
	// OnEvent receives progress events. It may be nil.
	OnEvent func(Event)
	// Verify re-parses every patched image and checks the dylib is imported.
	Verify bool
}

// Slice describes one patched Mach-O image.
type Slice struct {
	Cpu     macho.Cpu
	Base    int64
	Offset  int64
	CmdSize uint32
	Header  macho.Header64
}

// Result summarizes a successful patch.
type Result struct {
	Format macho.Magic
	Slices []Slice
}

// Patcher inserts one dylib path into one store.
type Patcher struct {
	store  Store
	dylib  string
	padded []byte
	opts   Options
}

// New returns a Patcher that will insert dylib into store.
func New(store Store, dylib []byte, opts Options) (*Patcher, error) {
	if len(dylib) == 0 {
		return nil, ErrEmptyPath
	}
	return &Patcher{
		store:  store,
		dylib:  string(dylib),
		padded: macho.PadPath(dylib),
		opts:   opts,
	}, nil
}

// Patch inserts dylib into store. See Patcher.Patch.
func Patch(store Store, dylib []byte, opts Options) (*Result, error) {
	p, err := New(store, dylib, opts)
	if err != nil {
		return nil, err
	}
	return p.Patch()
}

// Detect reads the magic at the start of r and returns an error for anything
// that cannot be patched.
func Detect(r io.ReaderAt) (macho.Magic, error) {
	m, err := magic.Read(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: file is shorter than a magic number", ErrTruncatedHeader)
		}
		return 0, &IOError{Op: "read", Err: err}
	}
	switch {
	case !magic.IsMachO(m):
		return m, &UnknownMagicError{Magic: m}
	case m == macho.Magic32:
		return m, &UnsupportedFormatError{Format: "32-bit Mach-O"}
	}
	return m, nil
}

// Patch dispatches on the file's magic and inserts the dylib into a thin
// 64-bit image or into the selected slices of a universal binary.
func (p *Patcher) Patch() (*Result, error) {
	m, err := Detect(p.store)
	if err != nil {
		return nil, err
	}
	p.emit(Event{Kind: EventFormat, Magic: m})

	res := &Result{Format: m}
	if fat, swap := magic.IsFat(m); fat {
		res.Slices, err = p.patchFat(swap)
	} else {
		res.Slices, err = p.patchThin()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Patcher) patchThin() ([]Slice, error) {
	ins, err := p.plan(0, p.store.Size())
	if err != nil {
		return nil, err
	}
	s, err := p.apply(ins)
	if err != nil {
		return nil, err
	}
	return []Slice{s}, nil
}

func (p *Patcher) confirm(prompt string) bool {
	if p.opts.AllYes || p.opts.Confirm == nil {
		return true
	}
	return p.opts.Confirm(prompt)
}

func (p *Patcher) emit(e Event) {
	if p.opts.OnEvent != nil {
		p.opts.OnEvent(e)
	}
}

// readFull reads exactly len(b) bytes at off.
func (p *Patcher) readFull(b []byte, off int64) error {
	n, err := p.store.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: need %d bytes at offset %#x, store is %d bytes", ErrTruncatedHeader, len(b), off, p.store.Size())
	}
	return &IOError{Op: "read", Offset: off, Err: err}
}

func (p *Patcher) writeFull(b []byte, off int64) error {
	n, err := p.store.WriteAt(b, off)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &IOError{Op: "write", Offset: off, Err: err}
	}
	return nil
}
