package patch

import (
	"fmt"
	"io"
	"os"
)

// Store is the random access byte store a patch is applied to.
type Store interface {
	io.ReaderAt
	io.WriterAt
	// Size returns the length of the store in bytes.
	Size() int64
}

type syncer interface {
	Sync() error
}

// FileStore is a Store backed by an open file.
type FileStore struct {
	f    *os.File
	size int64
}

// NewFileStore wraps f, which must be open for reading and writing.
func NewFileStore(f *os.File) (*FileStore, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, &IOError{Op: "stat", Err: err}
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", f.Name())
	}
	return &FileStore{f: f, size: fi.Size()}, nil
}

// OpenFileStore opens path for reading and writing.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	s, err := NewFileStore(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *FileStore) ReadAt(b []byte, off int64) (int, error)  { return s.f.ReadAt(b, off) }
func (s *FileStore) WriteAt(b []byte, off int64) (int, error) { return s.f.WriteAt(b, off) }
func (s *FileStore) Size() int64                              { return s.size }
func (s *FileStore) Sync() error                              { return s.f.Sync() }

// Close flushes and closes the underlying file.
func (s *FileStore) Close() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return &IOError{Op: "sync", Err: err}
	}
	if err := s.f.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}
