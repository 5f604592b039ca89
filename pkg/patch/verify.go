package patch

import (
	"fmt"
	"io"

	gomacho "github.com/blacktop/go-macho"
)

// verify re-parses the patched image and checks the dylib is imported.
func (p *Patcher) verify(ins *insertion) error {
	m, err := gomacho.NewFile(io.NewSectionReader(p.store, ins.base, ins.limit-ins.base))
	if err != nil {
		return &InconsistentError{Reason: fmt.Sprintf("patched image at %#x no longer parses", ins.base), Err: err}
	}
	defer m.Close()

	for _, lib := range m.ImportedLibraries() {
		if lib == p.dylib {
			return nil
		}
	}
	return &InconsistentError{Reason: fmt.Sprintf("%s missing from imported libraries of image at %#x", p.dylib, ins.base)}
}
