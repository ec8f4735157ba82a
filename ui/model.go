package ui

import (
	"strconv"
	"strings"

	"github.com/JeanRibes/memory-recorder/config"
	. "github.com/JeanRibes/memory-recorder/shared"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"
)

const tempoStep = 5

type prompt int

const (
	noPrompt prompt = iota
	savePrompt
	openPrompt
	exportPrompt
	importPrompt
	renamePrompt
	channelPrompt
	notesPrompt
	eventPrompt
	deletePrompt
	replacePrompt
	annotatePrompt
)

var promptTitles = map[prompt]string{
	savePrompt:    "save memories to",
	openPrompt:    "open memories from",
	exportPrompt:  "export MIDI to",
	importPrompt:  "import MIDI from",
	renamePrompt:  "rename memory to",
	channelPrompt:  "toggle channel (Omni, 1-16)",
	notesPrompt:    "add notes (C4 E4 G4 1/4 at=0 vel=100 ch=1 finger=1)",
	eventPrompt:    "add row (cc 64 127 at=0 | pc 5 | on C4 vel=90 | off C4 at=1)",
	deletePrompt:   "delete row number",
	replacePrompt:  "rewrite row (number, then the row)",
	annotatePrompt: "annotation",
}

// Model is the terminal front end. It only ever shows the last Status the
// loop sent; every key becomes a Message for the loop.
type Model struct {
	SinkUI   <-chan Message
	SinkLoop chan<- Message

	status   *Status
	errors   []string
	prompt   prompt
	input    textinput.Model
	help     help.Model
	prefs    *config.Preferences
	logger   *charmlog.Logger
	quitting bool
}

// StatusMsg and ErrorMsg carry what the loop sent on SinkUI.
type StatusMsg struct{ Status *Status }

type ErrorMsg struct{ Text string }

func NewModel(SinkUI <-chan Message, SinkLoop chan<- Message, prefs *config.Preferences, logger *charmlog.Logger) Model {
	input := textinput.New()
	input.CharLimit = 256
	return Model{
		SinkUI:   SinkUI,
		SinkLoop: SinkLoop,
		status:   &Status{Selected: -1, Tempo: 100},
		input:    input,
		help:     help.New(),
		prefs:    prefs,
		logger:   logger,
	}
}

// ListenForUpdates waits for the next message of the loop.
func ListenForUpdates(SinkUI <-chan Message) tea.Cmd {
	return func() tea.Msg {
		for msg := range SinkUI {
			switch msg.Type {
			case StatusNotify:
				return StatusMsg{Status: msg.Status}
			case Error:
				return ErrorMsg{Text: msg.String}
			}
		}
		return tea.Quit()
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.SinkUI)
}

// send hands msg to the loop off the update goroutine so a busy loop never
// blocks the terminal.
func (m Model) send(msg Message) tea.Cmd {
	sink := m.SinkLoop
	return func() tea.Msg {
		sink <- msg
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusMsg:
		if msg.Status != nil {
			m.status = msg.Status
		}
		return m, ListenForUpdates(m.SinkUI)
	case ErrorMsg:
		m.addError(msg.Text)
		return m, ListenForUpdates(m.SinkUI)
	case errorNote:
		m.addError(string(msg))
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if m.prompt != noPrompt {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// addError keeps the last three errors.
func (m *Model) addError(text string) {
	m.errors = append(m.errors, text)
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.status
	m.errors = nil
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Sequence(m.send(Message{Type: Quit}), tea.Quit)
	case key.Matches(msg, keys.Record):
		return m, m.send(Message{Type: Record})
	case key.Matches(msg, keys.PlayPause):
		return m, m.send(Message{Type: PlayPause})
	case key.Matches(msg, keys.Loop):
		return m, m.send(Message{Type: Loop, Boolean: !st.Looping})
	case key.Matches(msg, keys.TempoUp):
		return m, m.send(Message{Type: Tempo, Number: tempoStep, Boolean: true})
	case key.Matches(msg, keys.TempoDown):
		return m, m.send(Message{Type: Tempo, Number: -tempoStep, Boolean: true})
	case key.Matches(msg, keys.Memory):
		n, _ := strconv.Atoi(msg.String())
		return m, m.send(Message{Type: SelectMemory, Number: n - 1})
	case key.Matches(msg, keys.Deselect):
		return m, m.send(Message{Type: SelectMemory, Number: -1})
	case key.Matches(msg, keys.NextChord):
		return m, m.send(Message{Type: NextChord})
	case key.Matches(msg, keys.PreviousChord):
		return m, m.send(Message{Type: PreviousChord})
	case key.Matches(msg, keys.ResetChord):
		return m, m.send(Message{Type: ResetChord})
	case key.Matches(msg, keys.TransposeUp):
		return m, m.send(Message{Type: Transpose, Number: 1})
	case key.Matches(msg, keys.TransposeDown):
		return m, m.send(Message{Type: Transpose, Number: -1})
	case key.Matches(msg, keys.Quantize):
		return m, m.send(Message{Type: Quantize})
	case key.Matches(msg, keys.Batch):
		if i := st.Selected; i >= 0 && i < len(st.Memories) {
			return m, m.send(Message{Type: MemoryBatch, Number: i, Boolean: !st.Memories[i].Batch})
		}
	case key.Matches(msg, keys.Remove):
		if st.Selected >= 0 {
			return m, m.send(Message{Type: MemoryRemove, Number: st.Selected})
		}
	case key.Matches(msg, keys.MoveUp):
		if st.Selected > 0 {
			return m, m.send(Message{Type: MemoryMove, Number: st.Selected, Number2: st.Selected - 1})
		}
	case key.Matches(msg, keys.MoveDown):
		if st.Selected >= 0 && st.Selected < len(st.Memories)-1 {
			return m, m.send(Message{Type: MemoryMove, Number: st.Selected, Number2: st.Selected + 1})
		}
	case key.Matches(msg, keys.Undo):
		return m, m.send(Message{Type: NoteUndo})
	case key.Matches(msg, keys.Clear):
		return m, m.send(Message{Type: ClearState})
	case key.Matches(msg, keys.Save):
		return m.ask(savePrompt, m.recentSession())
	case key.Matches(msg, keys.Open):
		return m.ask(openPrompt, m.recentSession())
	case key.Matches(msg, keys.ExportMIDI):
		return m.ask(exportPrompt, m.recentTrack())
	case key.Matches(msg, keys.ImportMIDI):
		return m.ask(importPrompt, m.recentTrack())
	case key.Matches(msg, keys.Rename):
		if i := st.Selected; i >= 0 && i < len(st.Memories) {
			return m.ask(renamePrompt, st.Memories[i].Name)
		}
	case key.Matches(msg, keys.Channel):
		return m.ask(channelPrompt, "")
	case key.Matches(msg, keys.AddNotes):
		if st.Selected >= 0 {
			return m.ask(notesPrompt, "")
		}
	case key.Matches(msg, keys.AddEvent):
		if st.Selected >= 0 {
			return m.ask(eventPrompt, "")
		}
	case key.Matches(msg, keys.DeleteEvent):
		if len(st.Events) > 0 {
			return m.ask(deletePrompt, "")
		}
	case key.Matches(msg, keys.ReplaceEvent):
		if len(st.Events) > 0 {
			return m.ask(replacePrompt, "")
		}
	case key.Matches(msg, keys.Annotate):
		if i := st.Selected; i >= 0 && i < len(st.Memories) {
			return m.ask(annotatePrompt, st.Memories[i].Annotation)
		}
	case msg.String() == "?":
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) ask(p prompt, value string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.Prompt = promptTitles[p] + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = noPrompt
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		p := m.prompt
		m.prompt = noPrompt
		m.input.Blur()
		if value == "" && p != annotatePrompt {
			return m, nil
		}
		return m, m.submit(p, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(p prompt, value string) tea.Cmd {
	switch p {
	case savePrompt:
		m.remember(func() { m.prefs.AddSession(value) })
		return m.send(Message{Type: StateExport, String: value})
	case openPrompt:
		m.remember(func() { m.prefs.AddSession(value) })
		return m.send(Message{Type: StateImport, String: value})
	case exportPrompt:
		m.remember(func() { m.prefs.AddTrack(value) })
		return m.send(Message{Type: ExportMIDI, String: value})
	case importPrompt:
		m.remember(func() { m.prefs.AddTrack(value) })
		return m.send(Message{Type: ImportMIDI, String: value})
	case renamePrompt:
		return m.send(Message{Type: MemoryRename, Number: m.status.Selected, String: value})
	case channelPrompt:
		return m.send(Message{Type: ChannelToggle, String: value})
	case notesPrompt:
		return m.send(Message{Type: NoteAdd, String: value})
	case eventPrompt:
		return m.send(Message{Type: EventAdd, String: value})
	case deletePrompt:
		row, err := strconv.Atoi(value)
		if err != nil {
			return fail("row number expected, got " + strconv.Quote(value))
		}
		return m.send(Message{Type: EventDelete, Number: row})
	case replacePrompt:
		num, line, _ := strings.Cut(value, " ")
		row, err := strconv.Atoi(num)
		if err != nil || strings.TrimSpace(line) == "" {
			return fail("type the row number, then the row")
		}
		return m.send(Message{Type: EventReplace, Number: row, String: strings.TrimSpace(line)})
	case annotatePrompt:
		return m.send(Message{Type: MemoryAnnotate, Number: m.status.Selected, String: value})
	}
	return nil
}

// fail reports a prompt mistake without a round trip to the loop.
func fail(text string) tea.Cmd {
	return func() tea.Msg { return errorNote(text) }
}

// errorNote is an ErrorMsg produced by the front end itself; it does not
// re-arm the loop listener.
type errorNote string

func (m Model) remember(add func()) {
	if m.prefs == nil {
		return
	}
	add()
	if err := m.prefs.Save(); err != nil && m.logger != nil {
		m.logger.Warn("cannot save preferences", "err", err)
	}
}

func (m Model) recentSession() string {
	if m.prefs == nil {
		return ""
	}
	if s := m.prefs.Sessions(); len(s) > 0 {
		return s[0].Path
	}
	return ""
}

func (m Model) recentTrack() string {
	if m.prefs == nil {
		return ""
	}
	if s := m.prefs.Tracks(); len(s) > 0 {
		return s[0].Path
	}
	return ""
}
