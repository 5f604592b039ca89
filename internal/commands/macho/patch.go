package macho

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/ch1y1z1/insert-dylib/internal/buffer"
	"github.com/ch1y1z1/insert-dylib/internal/colors"
	"github.com/ch1y1z1/insert-dylib/internal/utils"
	"github.com/ch1y1z1/insert-dylib/pkg/macho"
	"github.com/ch1y1z1/insert-dylib/pkg/patch"
)

// ErrAborted is returned when a confirmation prompt is declined.
var ErrAborted = errors.New("aborted by user")

// PatchedSuffix is appended to the input path when no output is given.
const PatchedSuffix = "_patched"

// InsertConfig is the configuration for inserting a dylib into a MachO.
type InsertConfig struct {
	Input   string
	Dylib   string
	Output  string
	InPlace bool
	AllYes  bool
	DryRun  bool
	Verify  bool
	// Dump hex dumps every written load command to Stdout.
	Dump bool
	// Confirm asks a yes/no question. A nil Confirm answers yes.
	Confirm patch.Confirmer
	// Stdout receives hex dumps; defaults to os.Stdout.
	Stdout io.Writer
}

func (c *InsertConfig) ask(msg string) bool {
	if c.AllYes || c.Confirm == nil {
		return true
	}
	return c.Confirm(msg)
}

// OutputPath returns the file the patch is applied to.
func (c *InsertConfig) OutputPath() string {
	switch {
	case c.InPlace:
		return c.Input
	case len(c.Output) > 0:
		return c.Output
	default:
		return c.Input + PatchedSuffix
	}
}

// InsertDylib inserts an LC_LOAD_DYLIB command for conf.Dylib into a copy of
// conf.Input (or into conf.Input itself with InPlace).
func InsertDylib(conf *InsertConfig) (*patch.Result, error) {
	if conf.InPlace && len(conf.Output) > 0 {
		return nil, fmt.Errorf("--inplace and --output cannot be used together")
	}
	if len(conf.Dylib) == 0 {
		return nil, patch.ErrEmptyPath
	}

	info, err := os.Stat(conf.Input)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: input file %s does not exist", patch.ErrInvalidInput, conf.Input)
	} else if err != nil {
		return nil, errors.Wrapf(&patch.IOError{Op: "stat", Err: err}, "failed to stat %s", conf.Input)
	} else if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: input file %s is not a file", patch.ErrInvalidInput, conf.Input)
	}
	if !conf.InPlace && len(conf.Output) > 0 {
		if out, err := os.Stat(conf.Output); err == nil && os.SameFile(info, out) {
			return nil, fmt.Errorf("%w: output %s is the input file, use --inplace to patch it directly", patch.ErrInvalidInput, conf.Output)
		}
	}

	// reject what cannot be patched before anything is copied or asked
	if err := detect(conf.Input); err != nil {
		return nil, err
	}

	if !utils.Exists(conf.Dylib) {
		if !conf.ask(fmt.Sprintf("Dylib file `%s` does not exist, continue?", conf.Dylib)) {
			return nil, ErrAborted
		}
	}

	r := &renderer{dump: conf.Dump, w: conf.Stdout}
	if r.w == nil {
		r.w = os.Stdout
	}
	opts := patch.Options{
		AllYes:  conf.AllYes,
		Confirm: conf.Confirm,
		Verify:  conf.Verify,
		OnEvent: r.render,
	}

	log.WithFields(log.Fields{
		"input": conf.Input,
		"dylib": conf.Dylib,
	}).Debug("Inserting dylib")

	if conf.DryRun {
		return dryRun(conf, opts)
	}

	output := conf.OutputPath()
	if conf.InPlace {
		if !conf.ask(fmt.Sprintf("Input file `%s` will be modified in place, continue?", conf.Input)) {
			return nil, ErrAborted
		}
	} else {
		if utils.Exists(output) {
			if !conf.ask(fmt.Sprintf("Output file `%s` already exists, overwrite?", output)) {
				return nil, ErrAborted
			}
		}
		if err := utils.Cp(conf.Input, output); err != nil {
			return nil, errors.Wrapf(&patch.IOError{Op: "copy", Err: err}, "failed to copy %s to %s", conf.Input, output)
		}
		log.Debugf("Copied %s to %s", conf.Input, output)
	}

	res, err := patchFile(output, conf.Dylib, opts)
	if err != nil {
		if !conf.InPlace {
			os.Remove(output)
		}
		return nil, errors.Wrapf(err, "failed to insert dylib into %s", output)
	}

	log.Info(colors.BoldGreen().Sprint("Done!"))
	return res, nil
}

func detect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(&patch.IOError{Op: "open", Err: err}, "failed to open %s", path)
	}
	defer f.Close()
	if _, err := patch.Detect(f); err != nil {
		return errors.Wrapf(err, "cannot patch %s", path)
	}
	return nil
}

func patchFile(path, dylib string, opts patch.Options) (*patch.Result, error) {
	store, err := patch.OpenFileStore(path)
	if err != nil {
		return nil, err
	}
	res, err := patch.Patch(store, []byte(dylib), opts)
	if cerr := store.Close(); err == nil && cerr != nil {
		return nil, cerr
	}
	return res, err
}

// dryRun applies the patch to an in-memory copy of the input.
func dryRun(conf *InsertConfig, opts patch.Options) (*patch.Result, error) {
	f, err := os.Open(conf.Input)
	if err != nil {
		return nil, errors.Wrapf(&patch.IOError{Op: "open", Err: err}, "failed to open %s", conf.Input)
	}
	defer f.Close()

	buf, err := buffer.FromReader(f)
	if err != nil {
		return nil, errors.Wrapf(&patch.IOError{Op: "read", Err: err}, "failed to read %s", conf.Input)
	}
	res, err := patch.Patch(buf, []byte(conf.Dylib), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to insert dylib into %s", conf.Input)
	}
	log.Warnf("Dry run: %s was not written", conf.OutputPath())
	return res, nil
}

// ExitCode maps an InsertDylib error to a process exit status.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrAborted) {
		return 0
	}
	switch patch.Category(err) {
	case patch.KindBadInput:
		return 2
	case patch.KindUnsupported:
		return 3
	case patch.KindIO:
		return 4
	case patch.KindInconsistent:
		return 5
	default:
		return 1
	}
}

type renderer struct {
	dump bool
	w    io.Writer
}

func (r *renderer) render(e patch.Event) {
	switch e.Kind {
	case patch.EventFormat:
		log.Infof("Matched %s file", colors.Bold().Sprint(e.Magic))
	case patch.EventArchCount:
		log.Infof("Found %d archs", e.Count)
	case patch.EventArch:
		log.WithFields(log.Fields{
			"offset": fmt.Sprintf("%#x", e.Arch.Offset),
			"size":   humanize.Bytes(uint64(e.Arch.Size)),
		}).Infof("Matched %s arch", colors.Bold().Sprint(e.Cpu))
	case patch.EventArchSkipped:
		log.Warnf("Skipping %s slice", colors.Yellow().Sprint(e.Cpu))
	case patch.EventCommandWritten:
		log.WithFields(log.Fields{
			"cmdsize": len(e.Data),
			"padding": humanize.Bytes(uint64(e.Slack)),
		}).Infof("Writing %s at offset %#x", macho.LoadCmdDylib, e.Offset)
		if r.dump {
			fmt.Fprint(r.w, utils.HexDump(e.Data, uint64(e.Offset)))
		}
	case patch.EventHeaderUpdated:
		log.WithFields(log.Fields{
			"ncmds":      e.Header.NCmds,
			"sizeofcmds": fmt.Sprintf("%#x", e.Header.SizeOfCmds),
		}).Debugf("Updated %s header at %#x", e.Cpu, e.Offset)
	case patch.EventVerified:
		log.Infof("Verified %s image at %#x imports the dylib", colors.Green().Sprint(e.Cpu), e.Offset)
	}
}
