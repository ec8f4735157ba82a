package music

import (
	"errors"
	"testing"
)

func TestAddNotes(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", nil)
	err := s.AddNotes(NoteEntry{Notes: "C4, E4 G4", Start: 1, Duration: "1/4", Channel: "2", Fingering: "1"})
	if err != nil {
		t.Fatal(err)
	}
	seq := s.Selected()
	if len(seq.Events) != 6 {
		t.Fatalf("events = %v", seq.Events)
	}
	on := seq.Events[0].(NoteOn)
	if on.Velocity != 100 || on.Channel != "2" || on.Fingering != "1" {
		t.Errorf("noteOn = %+v", on)
	}
	if seq.Duration != 1.5 {
		t.Errorf("duration = %v, want 1.5 (quarter at 120 BPM)", seq.Duration)
	}
	if s.Navigator().Len() != 1 {
		t.Errorf("chord index not rebuilt: %d", s.Navigator().Len())
	}
}

func TestAddNotesValidatesFirst(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", nil)
	tests := []struct {
		entry NoteEntry
		err   error
	}{
		{NoteEntry{Notes: "C4", Duration: "soon"}, ErrInvalidDuration},
		{NoteEntry{Notes: "C4 X9", Duration: "1"}, ErrInvalidNote},
		{NoteEntry{Notes: "C4 C9", Duration: "1"}, ErrInvalidEvent},
		{NoteEntry{Notes: "C4", Duration: "1", Velocity: 200}, ErrInvalidEvent},
		{NoteEntry{Notes: " ", Duration: "1"}, ErrInvalidEvent},
	}
	for _, tt := range tests {
		if err := s.AddNotes(tt.entry); !errors.Is(err, tt.err) {
			t.Errorf("AddNotes(%+v) = %v, want %v", tt.entry, err, tt.err)
		}
	}
	if len(s.Selected().Events) != 0 {
		t.Errorf("rejected entries added %v", s.Selected().Events)
	}
	s.Select(-1)
	if err := s.AddNotes(NoteEntry{Notes: "C4", Duration: "1"}); !errors.Is(err, ErrNoSelectedMemory) {
		t.Errorf("no selection: %v", err)
	}
}

func TestEditEvents(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", note("C4", 0, 1, ""))
	if err := s.AddEvent(ControlChange{Time: 3, Controller: 64, Value: 127}); err != nil {
		t.Fatal(err)
	}
	if s.Selected().Duration != 3 {
		t.Errorf("duration = %v", s.Selected().Duration)
	}
	if err := s.ReplaceEvent(2, ProgramChange{Time: 0.5, Program: 4}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Selected().Events[1].(ProgramChange); !ok {
		t.Errorf("replaced event not re-sorted: %v", s.Selected().Events)
	}
	if err := s.DeleteEvent(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("DeleteEvent(5) = %v", err)
	}
	if err := s.AddEvent(NoteOn{Note: MustPitch("C4"), Velocity: 0}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("velocity 0 accepted: %v", err)
	}
	if err := s.DeleteEvent(0); err != nil || len(s.Selected().Events) != 2 {
		t.Errorf("delete: %v %v", err, s.Selected().Events)
	}
}

func TestMemoryList(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("a", nil)
	s.Commit("b", nil)
	s.Commit("c", nil)
	if err := s.Move(2, 0); err != nil {
		t.Fatal(err)
	}
	names := func() (out []string) {
		for _, m := range s.Memories() {
			out = append(out, m.Name)
		}
		return
	}
	if got := names(); got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("order = %v", got)
	}
	if s.Selected().Name != "c" || s.SelectedIndex() != 0 {
		t.Errorf("selection did not follow the move: %d", s.SelectedIndex())
	}
	m := s.Memories()
	if !(m[0].Rank < m[1].Rank && m[1].Rank < m[2].Rank) {
		t.Errorf("ranks out of order: %v %v %v", m[0].Rank, m[1].Rank, m[2].Rank)
	}

	s.Select(1)
	if err := s.Remove(0); err != nil {
		t.Fatal(err)
	}
	if s.Selected() == nil || s.Selected().Name != "a" {
		t.Errorf("selection lost after removing another memory")
	}
	if err := s.Remove(0); err != nil || s.Selected() != nil {
		t.Errorf("removing the selected memory must deselect: %v", err)
	}
	if err := s.Rename(5, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Rename(5) = %v", err)
	}
	if err := s.Select(7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Select(7) = %v", err)
	}
}

func TestLoadOrdersByRank(t *testing.T) {
	s, _, _ := newTestSession()
	a := NewSequence("a", nil)
	a.Rank = 2
	b := NewSequence("b", nil)
	b.Rank = 1
	s.Load([]*Sequence{a, b})
	if s.Memories()[0].Name != "b" || s.SelectedIndex() != 0 {
		t.Errorf("load order %v", s.Memories())
	}
}
