package patch

import "github.com/ch1y1z1/insert-dylib/pkg/macho"

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventFormat carries the Magic the file was dispatched on.
	EventFormat EventKind = iota
	// EventArchCount carries the number of fat_arch entries in Count.
	EventArchCount
	// EventArch carries a supported fat_arch entry in Arch and its position in Index.
	EventArch
	// EventArchSkipped is sent for an entry the confirmer declined.
	EventArchSkipped
	// EventCommandWritten carries the command bytes in Data and where they went in Offset.
	EventCommandWritten
	// EventHeaderUpdated carries the rewritten header in Header and its location in Offset.
	EventHeaderUpdated
	// EventVerified is sent once a patched image re-parses with the new dylib imported.
	EventVerified
)

var eventStrings = []string{
	EventFormat:         "format",
	EventArchCount:      "arch-count",
	EventArch:           "arch",
	EventArchSkipped:    "arch-skipped",
	EventCommandWritten: "command-written",
	EventHeaderUpdated:  "header-updated",
	EventVerified:       "verified",
}

func (k EventKind) String() string {
	if int(k) < len(eventStrings) {
		return eventStrings[k]
	}
	return "unknown"
}

// An Event is progress information for a presentation layer. Which fields are
// set depends on Kind.
type Event struct {
	Kind   EventKind
	Magic  macho.Magic
	Count  uint32
	Index  uint32
	Arch   macho.FatArch
	Cpu    macho.Cpu
	Offset int64
	Slack  int64
	Data   []byte
	Header macho.Header64
}
