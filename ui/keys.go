package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Record        key.Binding
	PlayPause     key.Binding
	Loop          key.Binding
	TempoUp       key.Binding
	TempoDown     key.Binding
	Memory        key.Binding
	Deselect      key.Binding
	NextChord     key.Binding
	PreviousChord key.Binding
	ResetChord    key.Binding
	TransposeUp   key.Binding
	TransposeDown key.Binding
	Quantize      key.Binding
	Channel       key.Binding
	Save          key.Binding
	Open          key.Binding
	ExportMIDI    key.Binding
	ImportMIDI    key.Binding
	Rename        key.Binding
	Remove        key.Binding
	Batch         key.Binding
	MoveUp        key.Binding
	MoveDown      key.Binding
	Undo          key.Binding
	Clear         key.Binding
	AddNotes      key.Binding
	AddEvent      key.Binding
	DeleteEvent   key.Binding
	ReplaceEvent  key.Binding
	Annotate      key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	Record:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record")),
	PlayPause:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/stop")),
	Loop:          key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "loop")),
	TempoUp:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "tempo")),
	TempoDown:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "tempo")),
	Memory:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "select")),
	Deselect:      key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "deselect")),
	NextChord:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→", "next chord")),
	PreviousChord: key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←", "prev chord")),
	ResetChord:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "reset chord")),
	TransposeUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "transpose")),
	TransposeDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "transpose")),
	Quantize:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quantize")),
	Channel:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "channel")),
	Save:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Open:          key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
	ExportMIDI:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export .mid")),
	ImportMIDI:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import .mid")),
	Rename:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename")),
	Remove:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
	Batch:         key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "batch")),
	MoveUp:        key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move up")),
	MoveDown:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move down")),
	Undo:          key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo note")),
	Clear:         key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),
	AddNotes:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add notes")),
	AddEvent:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "add row")),
	DeleteEvent:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete row")),
	ReplaceEvent:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "rewrite row")),
	Annotate:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "annotate")),
	Quit:          key.NewBinding(key.WithKeys("ctrl+c", "Q"), key.WithHelp("Q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.PlayPause, k.Loop, k.Memory, k.NextChord, k.TransposeUp, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Record, k.Undo, k.PlayPause, k.Loop, k.TempoUp, k.TempoDown},
		{k.Memory, k.Deselect, k.Batch, k.Rename, k.Remove, k.MoveUp, k.MoveDown},
		{k.NextChord, k.PreviousChord, k.ResetChord, k.TransposeUp, k.TransposeDown, k.Quantize, k.Channel},
		{k.AddNotes, k.AddEvent, k.DeleteEvent, k.ReplaceEvent, k.Annotate},
		{k.Save, k.Open, k.ExportMIDI, k.ImportMIDI, k.Clear, k.Quit},
	}
}
