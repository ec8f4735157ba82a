package shared

import "fmt"

type Event int

const (
	Quit Event = iota
	Record
	PlayPause
	Loop
	Tempo
	ChannelToggle
	SelectMemory
	NextChord
	PreviousChord
	ResetChord
	Transpose
	Quantize
	StateImport
	StateExport
	ExportMIDI
	ImportMIDI
	MemoryRename
	MemoryRemove
	MemoryBatch
	MemoryMove
	NoteUndo
	ClearState
	NoteAdd
	EventAdd
	EventDelete
	EventReplace
	MemoryAnnotate
	Error
	StatusNotify
)

// Message travels between the loop and the front end. Number, Number2,
// Boolean and String are interpreted per Type.
type Message struct {
	Type    Event
	Number  int
	Boolean bool
	String  string
	Number2 int
	Status  *Status
}

// Status is the read-only projection of the session sent to the front end
// after every state change.
type Status struct {
	Recording   bool
	Playing     bool
	Looping     bool
	Tempo       int
	Channels    []string
	Memories    []MemoryStatus
	Selected    int
	Transpose   int
	Chord       string
	ActiveNotes []string
	// Events are the rows of the selected memory as event lines.
	Events []string
}

type MemoryStatus struct {
	Name     string
	Events   int
	Duration   float64
	Batch      bool
	Annotation string
	Annotated  bool
}

func MemoryName(n int) string {
	return fmt.Sprintf("memory %d", n+1)
}
