package ui

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/JeanRibes/memory-recorder/config"
	. "github.com/JeanRibes/memory-recorder/shared"
	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testModel(t *testing.T, st *Status) (Model, chan Message) {
	t.Helper()
	sink := make(chan Message, 4)
	m := NewModel(make(chan Message), sink, nil, nil)
	if st != nil {
		m.status = st
	}
	return m, sink
}

// press feeds k to m and runs the returned command, which must send
// exactly one message to the loop.
func press(t *testing.T, m Model, k tea.KeyMsg, sink chan Message) (Model, Message) {
	t.Helper()
	next, cmd := m.Update(k)
	if cmd == nil {
		t.Fatalf("%q: no command", k.String())
	}
	cmd()
	select {
	case msg := <-sink:
		return next.(Model), msg
	default:
		t.Fatalf("%q: nothing sent", k.String())
	}
	return next.(Model), Message{}
}

func TestKeysSendMessages(t *testing.T) {
	st := &Status{
		Tempo:    100,
		Selected: 1,
		Memories: []MemoryStatus{{Name: "a"}, {Name: "b", Batch: true}, {Name: "c"}},
	}
	tests := []struct {
		key  tea.KeyMsg
		want Message
	}{
		{runes("r"), Message{Type: Record}},
		{runes(" "), Message{Type: PlayPause}},
		{runes("l"), Message{Type: Loop, Boolean: true}},
		{runes("+"), Message{Type: Tempo, Number: tempoStep, Boolean: true}},
		{runes("-"), Message{Type: Tempo, Number: -tempoStep, Boolean: true}},
		{runes("3"), Message{Type: SelectMemory, Number: 2}},
		{runes("0"), Message{Type: SelectMemory, Number: -1}},
		{tea.KeyMsg{Type: tea.KeyRight}, Message{Type: NextChord}},
		{tea.KeyMsg{Type: tea.KeyLeft}, Message{Type: PreviousChord}},
		{tea.KeyMsg{Type: tea.KeyHome}, Message{Type: ResetChord}},
		{tea.KeyMsg{Type: tea.KeyUp}, Message{Type: Transpose, Number: 1}},
		{tea.KeyMsg{Type: tea.KeyDown}, Message{Type: Transpose, Number: -1}},
		{runes("q"), Message{Type: Quantize}},
		{runes("b"), Message{Type: MemoryBatch, Number: 1, Boolean: false}},
		{runes("x"), Message{Type: MemoryRemove, Number: 1}},
		{runes("["), Message{Type: MemoryMove, Number: 1, Number2: 0}},
		{runes("]"), Message{Type: MemoryMove, Number: 1, Number2: 2}},
		{runes("u"), Message{Type: NoteUndo}},
		{runes("C"), Message{Type: ClearState}},
	}
	for _, tt := range tests {
		m, sink := testModel(t, st)
		_, got := press(t, m, tt.key, sink)
		if got != tt.want {
			t.Errorf("%q sent %+v, want %+v", tt.key.String(), got, tt.want)
		}
	}
}

func TestTempoStepsAreRelative(t *testing.T) {
	m, sink := testModel(t, &Status{Tempo: 100, Selected: -1})
	// two presses before any status arrives must not collapse into one value
	_, first := press(t, m, runes("+"), sink)
	_, second := press(t, m, runes("+"), sink)
	if first != second || !first.Boolean || first.Number != tempoStep {
		t.Errorf("steps = %+v %+v", first, second)
	}
}

func TestNoSelectionIgnoresMemoryKeys(t *testing.T) {
	m, _ := testModel(t, &Status{Tempo: 100, Selected: -1})
	for _, k := range []string{"b", "x", "[", "]", "R", "a", "v", "d", "w", "A"} {
		if _, cmd := m.Update(runes(k)); cmd != nil {
			t.Errorf("%q without selection returned a command", k)
		}
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(runes(string(r)))
		m = next.(Model)
	}
	return m
}

func TestSavePrompt(t *testing.T) {
	prefs, err := config.LoadPreferences(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatal(err)
	}
	sink := make(chan Message, 1)
	m := NewModel(make(chan Message), sink, prefs, nil)

	next, _ := m.Update(runes("s"))
	m = typeText(next.(Model), "song.yaml")
	if !strings.Contains(m.View(), "save memories to") {
		t.Error("prompt not shown")
	}
	m, got := press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, sink)
	if got != (Message{Type: StateExport, String: "song.yaml"}) {
		t.Errorf("sent %+v", got)
	}
	if m.prompt != noPrompt {
		t.Error("prompt still open")
	}
	if s := prefs.Sessions(); len(s) != 1 || s[0].Path != "song.yaml" {
		t.Errorf("recent sessions = %v", s)
	}
}

func TestPromptEscape(t *testing.T) {
	m, _ := testModel(t, nil)
	next, _ := m.Update(runes("c"))
	m = typeText(next.(Model), "3")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil || next.(Model).prompt != noPrompt {
		t.Error("escape did not cancel the prompt")
	}
}

func TestErrorsKeepLastThree(t *testing.T) {
	m, _ := testModel(t, nil)
	for _, e := range []string{"a", "b", "c", "d"} {
		next, _ := m.Update(ErrorMsg{Text: e})
		m = next.(Model)
	}
	if strings.Join(m.errors, "") != "bcd" {
		t.Errorf("errors = %v", m.errors)
	}
	next, _ := m.Update(StatusMsg{Status: &Status{Tempo: 80, Selected: -1}})
	if next.(Model).status.Tempo != 80 {
		t.Error("status not replaced")
	}
}

func TestListenForUpdates(t *testing.T) {
	SinkUI := make(chan Message, 3)
	SinkUI <- Message{Type: Record}
	SinkUI <- Message{Type: Error, String: "boom"}
	if msg := ListenForUpdates(SinkUI)(); msg != (ErrorMsg{Text: "boom"}) {
		t.Errorf("got %#v", msg)
	}
	close(SinkUI)
	if _, ok := ListenForUpdates(SinkUI)().(tea.QuitMsg); !ok {
		t.Error("closed channel should quit")
	}
}

// submitPrompt opens the prompt of key k, types text and submits it.
func submitPrompt(t *testing.T, m Model, k, text string, sink chan Message) Message {
	t.Helper()
	next, _ := m.Update(runes(k))
	m = typeText(next.(Model), text)
	if m.prompt == noPrompt {
		t.Fatalf("%q opened no prompt", k)
	}
	_, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, sink)
	return msg
}

func TestEditPrompts(t *testing.T) {
	st := &Status{
		Tempo:    100,
		Selected: 0,
		Memories: []MemoryStatus{{Name: "a", Annotation: "da capo"}},
		Events:   []string{"on C4 vel=100 at=0 ch=1", "off C4 at=1 ch=1"},
	}
	tests := []struct {
		key, text string
		want      Message
	}{
		{"a", "C4 E4 1/4 at=2", Message{Type: NoteAdd, String: "C4 E4 1/4 at=2"}},
		{"v", "cc 64 127", Message{Type: EventAdd, String: "cc 64 127"}},
		{"d", "1", Message{Type: EventDelete, Number: 1}},
		{"w", "0 on D4 vel=80", Message{Type: EventReplace, Number: 0, String: "on D4 vel=80"}},
		{"A", " al fine", Message{Type: MemoryAnnotate, Number: 0, String: "da capo al fine"}},
	}
	for _, tt := range tests {
		m, sink := testModel(t, st)
		if got := submitPrompt(t, m, tt.key, tt.text, sink); got != tt.want {
			t.Errorf("%q %q sent %+v, want %+v", tt.key, tt.text, got, tt.want)
		}
	}
}

func TestDeletePromptNeedsANumber(t *testing.T) {
	m, sink := testModel(t, &Status{Tempo: 100, Selected: 0, Memories: []MemoryStatus{{Name: "a"}}, Events: []string{"pc 1 at=0 ch=1"}})
	next, _ := m.Update(runes("d"))
	m = typeText(next.(Model), "first")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("no feedback")
	}
	next, _ = next.(Model).Update(cmd())
	if len(sink) != 0 {
		t.Errorf("bad row number reached the loop: %+v", <-sink)
	}
	if errs := next.(Model).errors; len(errs) != 1 || !strings.Contains(errs[0], "row number") {
		t.Errorf("errors = %v", errs)
	}
}

func TestViewShowsRowsAndAnnotation(t *testing.T) {
	m, _ := testModel(t, &Status{
		Tempo:    100,
		Selected: 0,
		Memories: []MemoryStatus{{Name: "a", Annotated: true}},
		Events:   []string{"cc 64 127 at=0 ch=1"},
	})
	view := m.View()
	if !strings.Contains(view, "cc 64 127 at=0 ch=1") || !strings.Contains(view, "✎") {
		t.Errorf("view = %s", view)
	}
}
