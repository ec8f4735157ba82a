package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	recStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	playStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("212"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Model) header() string {
	st := m.status
	state := dimStyle.Render("IDLE")
	switch {
	case st.Recording:
		state = recStyle.Render("● REC")
	case st.Playing:
		state = playStyle.Render("▶ PLAY")
	}
	loop := ""
	if st.Looping {
		loop = " ⟳"
	}
	return headerStyle.Render("memory recorder") + "  " + state + loop +
		fmt.Sprintf("  tempo %d%%  transpose %+d  channels %s", st.Tempo, st.Transpose, strings.Join(st.Channels, ","))
}

func (m Model) memories() string {
	st := m.status
	if len(st.Memories) == 0 {
		return dimStyle.Render("no memories yet, press r to record")
	}
	lines := make([]string, 0, len(st.Memories))
	for i, mem := range st.Memories {
		box := "[ ]"
		if mem.Batch {
			box = "[x]"
		}
		note := " "
		if mem.Annotated {
			note = "✎"
		}
		line := fmt.Sprintf("%d %s %s %-20s %4d events %7.2fs", i+1, box, note, mem.Name, mem.Events, mem.Duration)
		if i == st.Selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) keyboard() string {
	st := m.status
	chord := st.Chord
	if chord == "" {
		chord = "-"
	}
	notes := strings.Join(st.ActiveNotes, " ")
	if notes == "" {
		notes = "-"
	}
	return fmt.Sprintf("chord: %s\nsounding: %s", chord, notes)
}

const maxRows = 12

// rows is the event table of the selected memory, cut to maxRows.
func (m Model) rows() string {
	events := m.status.Events
	if len(events) == 0 {
		return dimStyle.Render("no rows")
	}
	lines := []string{}
	for i, e := range events {
		if i == maxRows {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more", len(events)-maxRows)))
			break
		}
		lines = append(lines, fmt.Sprintf("%3d  %s", i, e))
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	parts := []string{
		m.header(),
		boxStyle.Render(m.memories()),
		m.keyboard(),
	}
	if m.status.Selected >= 0 {
		parts = append(parts, boxStyle.Render(m.rows()))
	}
	for _, e := range m.errors {
		parts = append(parts, errorStyle.Render("error: "+e))
	}
	if m.prompt != noPrompt {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
