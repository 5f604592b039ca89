package utils

import (
	"fmt"
	"io"
	"os"
)

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Cp copies src to dst, replacing any existing dst and keeping the source
// permission bits. The copy is synced before it is closed.
func Cp(src, dst string) (err error) {
	from, err := os.Open(src)
	if err != nil {
		return err
	}
	defer from.Close()

	fi, err := from.Stat()
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	to, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := to.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(to, from); err != nil {
		return err
	}
	// O_CREATE ignores the mode of a file that already exists
	if err = to.Chmod(fi.Mode().Perm()); err != nil {
		return err
	}
	return to.Sync()
}
