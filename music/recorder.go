package music

import "slices"

// Recorder timestamps live input into a pending take. Overdub replay of the
// other channels goes through its own scheduler and never reaches pending.
type Recorder struct {
	recording bool
	start     float64
	channel   Channel
	pending   []Event
	open      map[int]bool

	replay *Scheduler
}

func (r *Recorder) Recording() bool { return r.recording }

func (r *Recorder) Channel() Channel { return r.channel }

// Pending is a copy of the take so far.
func (r *Recorder) Pending() []Event { return slices.Clone(r.pending) }

// Start opens a take at now. It returns false when a take is already open.
func (r *Recorder) Start(now float64, ch Channel) bool {
	if r.recording {
		return false
	}
	r.recording = true
	r.start = now
	r.channel = ch
	r.pending = []Event{}
	r.open = map[int]bool{}
	return true
}

// Observe appends e to the take, stamped relative to the take start and
// moved to the record channel. A noteOn for a note already held in the take
// and a noteOff for a note the take never started are ignored.
func (r *Recorder) Observe(e Event, now float64) error {
	if !r.recording {
		return ErrNoActiveRecording
	}
	t := max(0, now-r.start)
	switch ev := e.(type) {
	case NoteOn:
		if r.open[ev.Note.Offset()] {
			return nil
		}
		r.open[ev.Note.Offset()] = true
	case NoteOff:
		if !r.open[ev.Note.Offset()] {
			return nil
		}
		delete(r.open, ev.Note.Offset())
	}
	r.pending = append(r.pending, WithChannel(WithTime(e, t), r.channel))
	return nil
}

// Stop closes the take. Notes still held get a noteOff at now so the take
// never ends on a dangling noteOn. The overdub replay is stopped too.
func (r *Recorder) Stop(now float64) ([]Event, Channel, error) {
	if !r.recording {
		return nil, "", ErrNoActiveRecording
	}
	t := max(0, now-r.start)
	held := []Event{}
	for _, e := range r.pending {
		if on, ok := e.(NoteOn); ok && r.open[on.Note.Offset()] {
			held = append(held, NoteOff{Time: t, Note: on.Note, Channel: r.channel})
			delete(r.open, on.Note.Offset())
		}
	}
	events := append(r.pending, held...)
	SortEvents(events)
	r.recording = false
	r.pending = nil
	r.open = nil
	if r.replay != nil && r.replay.Playing() {
		r.replay.Stop()
	}
	return events, r.channel, nil
}

// Undo removes the last recorded note and its noteOff.
func (r *Recorder) Undo() error {
	if !r.recording {
		return ErrNoActiveRecording
	}
	for i := len(r.pending) - 1; i >= 0; i-- {
		on, ok := r.pending[i].(NoteOn)
		if !ok {
			continue
		}
		key := on.Note.Offset()
		for j := i + 1; j < len(r.pending); j++ {
			if off, ok := r.pending[j].(NoteOff); ok && off.Note.Offset() == key {
				r.pending = slices.Delete(r.pending, j, j+1)
				break
			}
		}
		r.pending = slices.Delete(r.pending, i, i+1)
		delete(r.open, key)
		return nil
	}
	return nil
}
