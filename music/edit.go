package music

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidateEvent checks the ranges of every field of e.
func ValidateEvent(e Event) error {
	if t := TimeOf(e); t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: time %v", ErrInvalidEvent, t)
	}
	if _, ok := ParseChannel(string(ChannelOf(e))); !ok {
		return fmt.Errorf("%w: channel %q", ErrInvalidEvent, ChannelOf(e))
	}
	switch ev := e.(type) {
	case NoteOn:
		if !ev.Note.Valid() {
			return fmt.Errorf("%w: note %v", ErrInvalidEvent, ev.Note)
		}
		if ev.Velocity < 1 || ev.Velocity > 127 {
			return fmt.Errorf("%w: velocity %d", ErrInvalidEvent, ev.Velocity)
		}
	case NoteOff:
		if !ev.Note.Valid() {
			return fmt.Errorf("%w: note %v", ErrInvalidEvent, ev.Note)
		}
	case ControlChange:
		if ev.Controller > 127 || ev.Value > 127 {
			return fmt.Errorf("%w: controller %d=%d", ErrInvalidEvent, ev.Controller, ev.Value)
		}
	case ProgramChange:
		if ev.Program > 127 {
			return fmt.Errorf("%w: program %d", ErrInvalidEvent, ev.Program)
		}
	case nil:
		return fmt.Errorf("%w: nil", ErrInvalidEvent)
	}
	return nil
}

func (s *Session) Memories() []*Sequence { return s.memories }

func (s *Session) SelectedIndex() int { return s.selected }

// Selected is the memory under edit, nil when none.
func (s *Session) Selected() *Sequence {
	if s.selected < 0 || s.selected >= len(s.memories) {
		return nil
	}
	return s.memories[s.selected]
}

func (s *Session) memory(i int) (*Sequence, error) {
	if i < 0 || i >= len(s.memories) {
		return nil, notFound(ErrIndexOutOfRange, fmt.Sprintf("no memory %d", i+1))
	}
	return s.memories[i], nil
}

// Select makes memory i the one recorded into, edited and navigated. -1
// deselects.
func (s *Session) Select(i int) error {
	if i != -1 {
		if _, err := s.memory(i); err != nil {
			return err
		}
	}
	if i != s.selected {
		s.navigator.Release(s)
	}
	s.selected = i
	s.transposer.Select(s.Selected())
	s.reindex()
	return nil
}

// Commit stores events as a new memory at the end of the list and selects it.
func (s *Session) Commit(name string, events []Event) *Sequence {
	seq := NewSequence(name, events)
	seq.Rank = 1
	if n := len(s.memories); n > 0 {
		seq.Rank = s.memories[n-1].Rank + 1
	}
	s.memories = append(s.memories, seq)
	s.Select(len(s.memories) - 1)
	s.logger.Info("new memory", "name", name, "events", len(seq.Events))
	return seq
}

func (s *Session) Rename(i int, name string) error {
	seq, err := s.memory(i)
	if err != nil {
		return err
	}
	seq.Name = name
	return nil
}

func (s *Session) SetAnnotation(i int, blob string) error {
	seq, err := s.memory(i)
	if err != nil {
		return err
	}
	seq.Annotation = blob
	return nil
}

// SetBatch ticks or unticks memory i for batch playback.
func (s *Session) SetBatch(i int, on bool) error {
	seq, err := s.memory(i)
	if err != nil {
		return err
	}
	seq.Selected = on
	return nil
}

func (s *Session) Remove(i int) error {
	if _, err := s.memory(i); err != nil {
		return err
	}
	current := s.Selected()
	s.memories = slices.Delete(s.memories, i, i+1)
	next := -1
	if current != nil {
		next = slices.Index(s.memories, current)
	}
	s.navigator.Release(s)
	s.selected = -1
	return s.Select(next)
}

// Move puts memory from at position to and gives it a rank between its new
// neighbours.
func (s *Session) Move(from, to int) error {
	seq, err := s.memory(from)
	if err != nil {
		return err
	}
	if _, err := s.memory(to); err != nil {
		return err
	}
	current := s.Selected()
	s.memories = slices.Delete(s.memories, from, from+1)
	s.memories = slices.Insert(s.memories, to, seq)
	switch {
	case len(s.memories) == 1:
	case to == 0:
		seq.Rank = s.memories[1].Rank - 1
	case to == len(s.memories)-1:
		seq.Rank = s.memories[to-1].Rank + 1
	default:
		seq.Rank = (s.memories[to-1].Rank + s.memories[to+1].Rank) / 2
	}
	s.selected = slices.Index(s.memories, current)
	return nil
}

// Load replaces the memory list, ordered by rank.
func (s *Session) Load(seqs []*Sequence) {
	s.Stop()
	s.memories = slices.Clone(seqs)
	slices.SortStableFunc(s.memories, func(a, b *Sequence) int {
		switch {
		case a.Rank < b.Rank:
			return -1
		case a.Rank > b.Rank:
			return 1
		}
		return 0
	})
	s.selected = -1
	if len(s.memories) > 0 {
		s.Select(0)
	} else {
		s.Select(-1)
	}
}

// NoteEntry is one row of the "add notes" form.
type NoteEntry struct {
	Notes     string // space or comma separated pitches, e.g. "C4 E4 G4"
	Velocity  int
	Start     float64
	Duration  string
	Channel   Channel
	Fingering string
}

// AddNotes adds a noteOn/noteOff pair per pitch of entry to the selected
// memory. Nothing is added unless every field is valid.
func (s *Session) AddNotes(entry NoteEntry) error {
	seq := s.Selected()
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "select a memory first")
	}
	length, err := ParseDuration(entry.Duration, s.BPM)
	if err != nil {
		return err
	}
	if entry.Velocity == 0 {
		entry.Velocity = 100
	}
	if entry.Velocity < 1 || entry.Velocity > 127 {
		return invalid(ErrInvalidEvent, fmt.Sprintf("velocity %d", entry.Velocity), "Velocity goes from 1 to 127")
	}
	fields := strings.FieldsFunc(entry.Notes, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return invalid(ErrInvalidEvent, "no notes given", "Type at least one note, e.g. C4")
	}
	added := make([]Event, 0, 2*len(fields))
	for _, f := range fields {
		p, err := ParsePitch(f)
		if err != nil {
			return invalid(err, err.Error(), "Notes look like C4, F#3 or Bb5")
		}
		if !s.Range.Contains(p) {
			return invalid(ErrInvalidEvent, p.String()+" is outside the keyboard", "Out of range")
		}
		on := NoteOn{Time: entry.Start, Note: p, Velocity: uint8(entry.Velocity), Channel: entry.Channel, Fingering: entry.Fingering}
		off := NoteOff{Time: entry.Start + length, Note: p, Channel: entry.Channel}
		for _, e := range []Event{on, off} {
			if err := ValidateEvent(e); err != nil {
				return invalid(err, err.Error(), "Invalid note entry")
			}
		}
		added = append(added, on, off)
	}
	seq.Events = append(seq.Events, added...)
	seq.Touch()
	s.edited()
	return nil
}

// AddEvent adds a single validated event (controller or program change
// rows of the table) to the selected memory.
func (s *Session) AddEvent(e Event) error {
	seq := s.Selected()
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "select a memory first")
	}
	if err := ValidateEvent(e); err != nil {
		return invalid(err, err.Error(), "Invalid event")
	}
	seq.Events = append(seq.Events, e)
	seq.Touch()
	s.edited()
	return nil
}

func (s *Session) DeleteEvent(i int) error {
	seq := s.Selected()
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "select a memory first")
	}
	if i < 0 || i >= len(seq.Events) {
		return notFound(ErrIndexOutOfRange, fmt.Sprintf("no event %d", i))
	}
	seq.Events = slices.Delete(seq.Events, i, i+1)
	seq.Touch()
	s.edited()
	return nil
}

// ReplaceEvent overwrites row i of the selected memory, which is then
// re-sorted. A noteOn without annotation keeps the one of the noteOn it
// replaces.
func (s *Session) ReplaceEvent(i int, e Event) error {
	seq := s.Selected()
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "select a memory first")
	}
	if i < 0 || i >= len(seq.Events) {
		return notFound(ErrIndexOutOfRange, fmt.Sprintf("no event %d", i))
	}
	if err := ValidateEvent(e); err != nil {
		return invalid(err, err.Error(), "Invalid event")
	}
	// the table row carries no annotation; keep the note's
	if on, ok := e.(NoteOn); ok && on.Annotation == "" {
		if old, ok := seq.Events[i].(NoteOn); ok {
			on.Annotation = old.Annotation
			e = on
		}
	}
	seq.Events[i] = e
	seq.Touch()
	s.edited()
	return nil
}
