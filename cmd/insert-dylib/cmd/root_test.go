package cmd

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

func resetFlags(t *testing.T) {
	t.Helper()
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// machO returns a minimal x86_64 image with a page of header padding.
func machO() []byte {
	padded := macho.PadPath([]byte("/usr/lib/libSystem.B.dylib"))
	dc := macho.NewDylibCmd(padded)
	lib := dc.Encode(padded)
	hdr := macho.Header64{
		Magic:      macho.Magic64,
		Cpu:        macho.CpuAmd64,
		Type:       2,
		NCmds:      1,
		SizeOfCmds: uint32(len(lib)),
	}
	out := make([]byte, 0x1000)
	n := hdr.Put(out)
	copy(out[n:], lib)
	return out
}

func TestRootCmdWritesPatchedCopy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	resetFlags(t)
	defer resetFlags(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "tool")
	output := filepath.Join(dir, "tool.hooked")
	if err := os.WriteFile(input, machO(), 0o755); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"-y", "-o", output, input, "@rpath/libHook.dylib"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	hdr, err := macho.DecodeHeader64(data)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.NCmds != 2 {
		t.Errorf("ncmds = %d, want 2", hdr.NCmds)
	}
	first := binary.LittleEndian.Uint32(data[macho.Header64Size+4:])
	if got := binary.LittleEndian.Uint32(data[macho.Header64Size+first:]); got != uint32(macho.LoadCmdDylib) {
		t.Errorf("second command = %#x, want LC_LOAD_DYLIB", got)
	}
}

func TestRootCmdRejectsInplaceWithOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	resetFlags(t)
	defer resetFlags(t)

	rootCmd.SetArgs([]string{"-i", "-o", "out", "in", "lib.dylib"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "inplace") || !strings.Contains(err.Error(), "output") {
		t.Errorf("unexpected error: %v", err)
	}
}
