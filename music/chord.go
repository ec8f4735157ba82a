package music

import (
	"strings"
)

// DefaultChordWindow is how far after the first note of a chord another
// noteOn may start and still belong to it, in seconds.
const DefaultChordWindow = 0.2

type ChordNote struct {
	Note       Pitch
	Velocity   uint8
	Channel    Channel
	Fingering  string
	Annotation string
}

type Chord struct {
	Start float64
	Notes []ChordNote
}

func (c Chord) String() string {
	names := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		names[i] = n.Note.String()
	}
	return strings.Join(names, " ")
}

// Chords groups the noteOn events of events. A note joins the current group
// while its time is within window of the group's first note.
func Chords(events []Event, window float64) []Chord {
	chords := []Chord{}
	for _, e := range events {
		on, ok := e.(NoteOn)
		if !ok {
			continue
		}
		n := ChordNote{
			Note:       on.Note,
			Velocity:   on.Velocity,
			Channel:    ChannelOf(on),
			Fingering:  on.Fingering,
			Annotation: on.Annotation,
		}
		if last := len(chords) - 1; last >= 0 && on.Time-chords[last].Start <= window {
			chords[last].Notes = append(chords[last].Notes, n)
			continue
		}
		chords = append(chords, Chord{Start: on.Time, Notes: []ChordNote{n}})
	}
	return chords
}

// sounder is what the navigator plays through; Session implements it.
type sounder interface {
	NoteOn(p Pitch, velocity uint8, ch Channel) bool
	NoteOff(p Pitch) bool
}

// Navigator steps through the chords of a memory by hand.
type Navigator struct {
	Window float64

	chords  []Chord
	cursor  int
	playing []Pitch
}

func NewNavigator(window float64) *Navigator {
	return &Navigator{Window: window, cursor: -1}
}

// Index rebuilds the chord list from the allowed channels of seq and puts the
// cursor before the first chord. Notes still sounding from a previous step
// are released through out.
func (n *Navigator) Index(out sounder, seq *Sequence, allowed ChannelSet) {
	n.Release(out)
	n.cursor = -1
	n.chords = nil
	if seq == nil {
		return
	}
	n.chords = Chords(FilterChannels(seq.Events, allowed), n.Window)
}

func (n *Navigator) Len() int { return len(n.chords) }

func (n *Navigator) Cursor() int { return n.cursor }

func (n *Navigator) Chords() []Chord { return n.chords }

// Current is the chord under the cursor.
func (n *Navigator) Current() (Chord, bool) {
	if n.cursor < 0 || n.cursor >= len(n.chords) {
		return Chord{}, false
	}
	return n.chords[n.cursor], true
}

func (n *Navigator) Next(out sounder) (Chord, bool) {
	if len(n.chords) == 0 {
		return Chord{}, false
	}
	return n.step(out, (n.cursor+1)%len(n.chords))
}

func (n *Navigator) Previous(out sounder) (Chord, bool) {
	if len(n.chords) == 0 {
		return Chord{}, false
	}
	i := n.cursor - 1
	if i < 0 {
		i = len(n.chords) - 1
	}
	return n.step(out, i)
}

func (n *Navigator) step(out sounder, i int) (Chord, bool) {
	n.Release(out)
	n.cursor = i
	c := n.chords[i]
	for _, note := range c.Notes {
		if out.NoteOn(note.Note, note.Velocity, note.Channel) {
			n.playing = append(n.playing, note.Note)
		}
	}
	return c, true
}

// Release stops the notes sounded by the last step.
func (n *Navigator) Release(out sounder) {
	for _, p := range n.playing {
		out.NoteOff(p)
	}
	n.playing = n.playing[:0]
}

// Reset puts the cursor back before the first chord.
func (n *Navigator) Reset(out sounder) {
	n.Release(out)
	n.cursor = -1
}
