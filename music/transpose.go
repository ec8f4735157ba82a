package music

import (
	"fmt"
	"slices"
)

// Transpose shifts every note by semitones. A note spelled with a flat keeps
// flat spellings, every other note gets sharps on black keys. If one note
// leaves rng the whole call fails and events is returned untouched.
func Transpose(events []Event, semitones int, rng Range) ([]Event, error) {
	out := slices.Clone(events)
	for i, e := range events {
		var p Pitch
		switch ev := e.(type) {
		case NoteOn:
			p = ev.Note
		case NoteOff:
			p = ev.Note
		default:
			continue
		}
		shifted := PitchFromOffset(p.Offset()+semitones, p.IsFlat())
		if !rng.Contains(shifted) {
			return events, invalid(ErrTranspositionOutOfRange,
				fmt.Sprintf("%s%+d leaves %s..%s", p, semitones, rng.Lowest(), rng.Highest()),
				"Out of range")
		}
		switch ev := e.(type) {
		case NoteOn:
			ev.Note = shifted
			out[i] = ev
		case NoteOff:
			ev.Note = shifted
			out[i] = ev
		}
	}
	return out, nil
}

// Transposer steps the selected memory up and down and keeps the running
// amount. Shifts are always computed from the spelling the memory had when
// the amount was last zero, so going up then down restores it exactly.
type Transposer struct {
	Range  Range
	Amount int

	seq   *Sequence
	base  []Event
	since int
}

// Select resets the amount when seq differs from the last transposed memory.
func (t *Transposer) Select(seq *Sequence) {
	if seq == t.seq {
		return
	}
	t.seq = seq
	t.Amount = 0
	t.base = nil
	t.since = 0
}

// Rebase takes the current events as the new reference, for use after
// an edit. The displayed amount is kept.
func (t *Transposer) Rebase() {
	t.base = nil
}

func (t *Transposer) Shift(seq *Sequence, semitones int) error {
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "nothing to transpose")
	}
	t.Select(seq)
	if t.base == nil {
		t.base = slices.Clone(seq.Events)
		t.since = t.Amount
	}
	events, err := Transpose(t.base, t.Amount+semitones-t.since, t.Range)
	if err != nil {
		return err
	}
	seq.Events = events
	seq.Touch()
	t.Amount += semitones
	return nil
}
