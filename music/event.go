package music

import (
	"slices"
	"strconv"
)

// Channel is "Omni" or "1".."16". The zero value means Omni.
type Channel string

const Omni Channel = "Omni"

func ChannelNumber(n int) Channel {
	return Channel(strconv.Itoa(n))
}

func ParseChannel(s string) (Channel, bool) {
	if s == "" || s == string(Omni) {
		return Omni, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 16 {
		return "", false
	}
	return ChannelNumber(n), true
}

// MIDI returns the 0-based wire channel. Omni goes out on channel 0.
func (c Channel) MIDI() uint8 {
	n, err := strconv.Atoi(string(c))
	if err != nil || n < 1 || n > 16 {
		return 0
	}
	return uint8(n - 1)
}

// ChannelSet is a set of selected channels. A set containing Omni matches
// every channel.
type ChannelSet map[Channel]bool

func Channels(chs ...Channel) ChannelSet {
	set := ChannelSet{}
	for _, ch := range chs {
		if ch == "" {
			ch = Omni
		}
		set[ch] = true
	}
	return set
}

func (s ChannelSet) Allows(ch Channel) bool {
	if len(s) == 0 || s[Omni] {
		return true
	}
	if ch == "" {
		ch = Omni
	}
	return s[ch]
}

// Sorted lists the set with Omni first and numbered channels ascending.
func (s ChannelSet) Sorted() []Channel {
	out := make([]Channel, 0, len(s))
	if s[Omni] {
		out = append(out, Omni)
	}
	for n := 1; n <= 16; n++ {
		if s[ChannelNumber(n)] {
			out = append(out, ChannelNumber(n))
		}
	}
	return out
}

// Event is one of NoteOn, NoteOff, ControlChange or ProgramChange.
type Event interface {
	isEvent()
}

type NoteOn struct {
	Time       float64
	Note       Pitch
	Velocity   uint8
	Channel    Channel
	Fingering  string
	Annotation string
}

type NoteOff struct {
	Time    float64
	Note    Pitch
	Channel Channel
}

type ControlChange struct {
	Time       float64
	Channel    Channel
	Controller uint8
	Value      uint8
}

type ProgramChange struct {
	Time    float64
	Channel Channel
	Program uint8
}

func (NoteOn) isEvent()        {}
func (NoteOff) isEvent()       {}
func (ControlChange) isEvent() {}
func (ProgramChange) isEvent() {}

func TimeOf(e Event) float64 {
	switch ev := e.(type) {
	case NoteOn:
		return ev.Time
	case NoteOff:
		return ev.Time
	case ControlChange:
		return ev.Time
	case ProgramChange:
		return ev.Time
	}
	return 0
}

func ChannelOf(e Event) Channel {
	var ch Channel
	switch ev := e.(type) {
	case NoteOn:
		ch = ev.Channel
	case NoteOff:
		ch = ev.Channel
	case ControlChange:
		ch = ev.Channel
	case ProgramChange:
		ch = ev.Channel
	}
	if ch == "" {
		return Omni
	}
	return ch
}

// WithTime returns a copy of e moved to t.
func WithTime(e Event, t float64) Event {
	switch ev := e.(type) {
	case NoteOn:
		ev.Time = t
		return ev
	case NoteOff:
		ev.Time = t
		return ev
	case ControlChange:
		ev.Time = t
		return ev
	case ProgramChange:
		ev.Time = t
		return ev
	}
	return e
}

func WithChannel(e Event, ch Channel) Event {
	switch ev := e.(type) {
	case NoteOn:
		ev.Channel = ch
		return ev
	case NoteOff:
		ev.Channel = ch
		return ev
	case ControlChange:
		ev.Channel = ch
		return ev
	case ProgramChange:
		ev.Channel = ch
		return ev
	}
	return e
}

// Duration is the latest event time, 0 for no events.
func Duration(events []Event) float64 {
	d := 0.0
	for _, e := range events {
		d = max(d, TimeOf(e))
	}
	return d
}

// SortEvents orders events by time in place, keeping insertion order on ties.
func SortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		ta, tb := TimeOf(a), TimeOf(b)
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		return 0
	})
}

func FilterChannels(events []Event, allowed ChannelSet) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if allowed.Allows(ChannelOf(e)) {
			out = append(out, e)
		}
	}
	return out
}

type Sequence struct {
	Name       string
	Events     []Event
	Duration   float64
	Annotation string
	Selected   bool
	Rank       float64
}

func NewSequence(name string, events []Event) *Sequence {
	seq := &Sequence{Name: name, Events: slices.Clone(events)}
	seq.Touch()
	return seq
}

// Touch restores the ordering invariant and recomputes the duration. Every
// mutation of Events must be followed by it.
func (s *Sequence) Touch() {
	SortEvents(s.Events)
	s.Duration = Duration(s.Events)
}

func (s *Sequence) Clone() *Sequence {
	c := *s
	c.Events = slices.Clone(s.Events)
	return &c
}

// Channels lists the channels that carry at least one event.
func (s *Sequence) Channels() ChannelSet {
	set := ChannelSet{}
	for _, e := range s.Events {
		set[ChannelOf(e)] = true
	}
	return set
}

func (s *Sequence) NoteCount() (n int) {
	for _, e := range s.Events {
		if _, ok := e.(NoteOn); ok {
			n++
		}
	}
	return
}
