package patch

import (
	"errors"
	"fmt"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

var (
	// ErrNoArchitectures is returned for a fat archive with an empty architecture table.
	ErrNoArchitectures = errors.New("no architectures found in fat archive")
	// ErrTruncatedHeader is returned when a header or table runs past the end of the store.
	ErrTruncatedHeader = errors.New("truncated header")
	// ErrEmptyPath is returned when the dylib path is empty.
	ErrEmptyPath = errors.New("dylib path is empty")
	// ErrInvalidInput is wrapped by callers that reject the input or output
	// paths before a store is opened.
	ErrInvalidInput = errors.New("invalid input")
)

// UnknownMagicError is returned when a file or slice does not start with a
// magic number this package understands.
type UnknownMagicError struct {
	Magic  macho.Magic
	Offset int64
}

func (e *UnknownMagicError) Error() string {
	if e.Offset != 0 {
		return fmt.Sprintf("unknown magic %#x at offset %#x", e.Magic.Int(), e.Offset)
	}
	return fmt.Sprintf("unknown magic %#x", e.Magic.Int())
}

// UnsupportedFormatError is returned for recognized formats that cannot be patched.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Format)
}

// UnsupportedArchError is returned when a fat archive carries an
// architecture outside macho.SupportedCpus.
type UnsupportedArchError struct {
	Cpu   macho.Cpu
	Index uint32
}

func (e *UnsupportedArchError) Error() string {
	return fmt.Sprintf("unsupported arch %s (cputype %#x) at fat_arch[%d]", e.Cpu, uint32(e.Cpu), e.Index)
}

// IOError wraps a failed read or write on the store.
type IOError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s at offset %#x failed: %v", e.Op, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// InconsistentError is returned when writing the command would corrupt the
// file, or when the file was left with a header and command list that disagree.
type InconsistentError struct {
	Reason string
	Err    error
}

func (e *InconsistentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inconsistent: %s: %v", e.Reason, e.Err)
	}
	return "inconsistent: " + e.Reason
}

func (e *InconsistentError) Unwrap() error { return e.Err }

// Kind groups errors by what went wrong.
type Kind int

const (
	KindOther Kind = iota
	KindBadInput
	KindUnsupported
	KindIO
	KindInconsistent
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad input"
	case KindUnsupported:
		return "unsupported format"
	case KindIO:
		return "i/o failure"
	case KindInconsistent:
		return "inconsistent"
	default:
		return "error"
	}
}

// Category classifies err. Inconsistency wins over its wrapped cause.
func Category(err error) Kind {
	var (
		inconsistent *InconsistentError
		unknown      *UnknownMagicError
		format       *UnsupportedFormatError
		arch         *UnsupportedArchError
		ioErr        *IOError
	)
	switch {
	case err == nil:
		return KindOther
	case errors.As(err, &inconsistent):
		return KindInconsistent
	case errors.As(err, &unknown),
		errors.Is(err, ErrNoArchitectures),
		errors.Is(err, ErrTruncatedHeader),
		errors.Is(err, ErrEmptyPath),
		errors.Is(err, ErrInvalidInput):
		return KindBadInput
	case errors.As(err, &format), errors.As(err, &arch):
		return KindUnsupported
	case errors.As(err, &ioErr):
		return KindIO
	default:
		return KindOther
	}
}
