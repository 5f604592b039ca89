package buffer

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReadWriteBuffer(t *testing.T) {
	src := []byte("0123456789")
	rw := NewReadWriteBuffer(src)

	if _, err := rw.WriteAt([]byte("ab"), 2); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if !bytes.Equal(src, []byte("0123456789")) {
		t.Fatal("NewReadWriteBuffer must copy its input")
	}
	if got := string(rw.Bytes()); got != "01ab456789" {
		t.Errorf("Bytes() = %q", got)
	}

	// grow past the end
	if _, err := rw.WriteAt([]byte("XY"), 12); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if rw.Size() != 14 {
		t.Errorf("Size() = %d, want 14", rw.Size())
	}
	if got := rw.Bytes()[10:]; !bytes.Equal(got, []byte{0, 0, 'X', 'Y'}) {
		t.Errorf("tail = %q", got)
	}

	buf := make([]byte, 4)
	n, err := rw.ReadAt(buf, 12)
	if n != 2 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt past end = %d, %v; want 2, EOF", n, err)
	}
	if _, err := rw.ReadAt(buf, 20); !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt beyond end err = %v, want EOF", err)
	}
	if _, err := rw.ReadAt(buf, -1); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestFixedBuffer(t *testing.T) {
	rw := NewFixedBuffer(make([]byte, 8))
	if _, err := rw.WriteAt([]byte{1, 2, 3, 4}, 4); err != nil {
		t.Fatalf("in-bounds write failed: %v", err)
	}
	if _, err := rw.WriteAt([]byte{1, 2}, 7); err == nil {
		t.Fatal("expected error writing past end of fixed buffer")
	}
	if rw.Size() != 8 {
		t.Errorf("Size() = %d, want 8", rw.Size())
	}
}

func TestFromReader(t *testing.T) {
	rw, err := FromReader(bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatal(err)
	}
	if string(rw.Bytes()) != "hello" {
		t.Errorf("Bytes() = %q", rw.Bytes())
	}
}
