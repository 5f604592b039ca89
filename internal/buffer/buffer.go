package buffer

import (
	"errors"
	"io"
)

// ReadWriteBuffer is an in-memory random access byte store. It implements
// io.ReaderAt and io.WriterAt over a byte slice.
// The zero value of this type is an empty buffer ready to use.
type ReadWriteBuffer struct {
	d     []byte
	fixed bool
}

// NewReadWriteBuffer creates a ReadWriteBuffer holding a copy of b.
func NewReadWriteBuffer(b []byte) *ReadWriteBuffer {
	d := make([]byte, len(b))
	copy(d, b)
	return &ReadWriteBuffer{d: d}
}

// NewFixedBuffer is like NewReadWriteBuffer but refuses writes that would
// grow the buffer, the way a patch over an existing file must not.
func NewFixedBuffer(b []byte) *ReadWriteBuffer {
	rw := NewReadWriteBuffer(b)
	rw.fixed = true
	return rw
}

// FromReader reads all of r into a new ReadWriteBuffer.
func FromReader(r io.Reader) (*ReadWriteBuffer, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &ReadWriteBuffer{d: d}, nil
}

// Size returns the current length of the underlying byte slice.
func (rw *ReadWriteBuffer) Size() int64 { return int64(len(rw.d)) }

// Bytes returns the ReadWriteBuffer's underlying data. This value will remain valid so long
// as no other methods are called on the ReadWriteBuffer.
func (rw *ReadWriteBuffer) Bytes() []byte {
	return rw.d
}

// WriteAt implements the io.WriterAt interface.
func (rw *ReadWriteBuffer) WriteAt(dat []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("buffer.ReadWriteBuffer.WriteAt: negative offset")
	}
	end := off + int64(len(dat))
	if end > int64(len(rw.d)) {
		if rw.fixed {
			return 0, errors.New("buffer.ReadWriteBuffer.WriteAt: write past end of fixed buffer")
		}
		// Check fast path extension
		if off == int64(len(rw.d)) {
			rw.d = append(rw.d, dat...)
			return len(dat), nil
		}
		nd := make([]byte, end)
		copy(nd, rw.d)
		rw.d = nd
	}
	// Once no extension is needed just copy bytes into place.
	copy(rw.d[off:], dat)
	return len(dat), nil
}

// ReadAt implements the io.ReaderAt interface.
func (rw *ReadWriteBuffer) ReadAt(b []byte, off int64) (n int, err error) {
	// cannot modify state - see io.ReaderAt
	if off < 0 {
		return 0, errors.New("buffer.ReadWriteBuffer.ReadAt: negative offset")
	}
	if off >= int64(len(rw.d)) {
		return 0, io.EOF
	}
	n = copy(b, rw.d[off:])
	if n < len(b) {
		err = io.EOF
	}
	return
}
