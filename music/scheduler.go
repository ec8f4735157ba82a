package music

import (
	"cmp"
	"slices"

	charmlog "github.com/charmbracelet/log"
)

// DefaultGap is the silence between memories played in one batch, in
// seconds at 100% tempo.
const DefaultGap = 1.0

// minCycle keeps a looping batch whose events all sit at time zero from
// restarting within the same queue run.
const minCycle = 0.01

// Timed is an event placed on the batch timeline.
type Timed struct {
	At    float64
	Event Event
	Index int // memory index within the batch
}

// Timeline lays seqs end to end, gap seconds apart, keeps the events of the
// allowed channels and scales everything by 100/tempo. The result is sorted
// by time with ties in batch order.
func Timeline(seqs []*Sequence, tempo int, allowed ChannelSet, gap float64) (timeline []Timed, length float64) {
	scale := 100 / float64(tempo)
	offset := 0.0
	for k, seq := range seqs {
		for _, e := range seq.Events {
			if !allowed.Allows(ChannelOf(e)) {
				continue
			}
			timeline = append(timeline, Timed{At: TimeOf(e)*scale + offset, Event: e, Index: k})
		}
		length = offset + seq.Duration*scale
		offset += (seq.Duration + gap) * scale
	}
	sortTimed(timeline)
	return timeline, length
}

func sortTimed(tl []Timed) {
	slices.SortStableFunc(tl, func(a, b Timed) int { return cmp.Compare(a.At, b.At) })
}

// dispatcher receives due events; Session implements it.
type dispatcher interface {
	sounder
	Control(e Event)
	ReleaseAll()
}

// Scheduler plays batches of memories on the virtual clock. Each instance
// owns its queue entries under one Owner tag.
type Scheduler struct {
	Gap     float64
	Looping bool

	owner  Owner
	queue  *Queue
	clock  Clock
	out    dispatcher
	logger *charmlog.Logger

	playing bool
	take    uint64
	start   float64

	seqs    []*Sequence
	tempo   int
	allowed ChannelSet

	// OnIdle is called when a batch finishes without looping.
	OnIdle func()
}

func newScheduler(owner Owner, q *Queue, clock Clock, out dispatcher, logger *charmlog.Logger) *Scheduler {
	return &Scheduler{Gap: DefaultGap, owner: owner, queue: q, clock: clock, out: out, logger: logger}
}

func (s *Scheduler) Playing() bool { return s.playing }

// Play schedules every event of the batch. It is a no-op while a batch
// is already playing.
func (s *Scheduler) Play(seqs []*Sequence, tempo int, allowed ChannelSet) bool {
	if s.playing {
		return false
	}
	if tempo <= 0 {
		tempo = 100
	}
	s.seqs, s.tempo, s.allowed = seqs, tempo, allowed
	s.playing = true
	s.schedule()
	return s.playing
}

func (s *Scheduler) schedule() {
	s.take++
	take := s.take
	s.start = s.clock.Now()
	timeline, length := Timeline(s.seqs, s.tempo, s.allowed, s.Gap)
	if len(timeline) == 0 {
		s.logger.Debug("nothing to play")
		s.finish()
		return
	}
	dropped := 0
	for _, t := range timeline {
		delay := t.At - (s.clock.Now() - s.start)
		if delay < 0 {
			dropped++
			continue
		}
		ev := t.Event
		s.queue.Schedule(s.owner, s.start+t.At, func() { s.dispatch(take, ev) })
	}
	end := max(length, timeline[len(timeline)-1].At, minCycle)
	s.queue.Schedule(s.owner, s.start+end, func() { s.exhausted(take) })
	s.logger.Debug("scheduled", "events", len(timeline)-dropped, "dropped", dropped, "length", length)
}

func (s *Scheduler) dispatch(take uint64, e Event) {
	if !s.playing || take != s.take {
		return
	}
	switch ev := e.(type) {
	case NoteOn:
		s.out.NoteOn(ev.Note, ev.Velocity, ChannelOf(ev))
	case NoteOff:
		s.out.NoteOff(ev.Note)
	case ControlChange, ProgramChange:
		s.out.Control(ev)
	}
}

func (s *Scheduler) exhausted(take uint64) {
	if !s.playing || take != s.take {
		return
	}
	if s.Looping {
		s.logger.Debug("loop")
		s.schedule()
		return
	}
	s.finish()
}

func (s *Scheduler) finish() {
	s.playing = false
	s.take++
	if s.OnIdle != nil {
		s.OnIdle()
	}
}

// Stop cancels every pending entry of this scheduler and silences every
// active note, whoever started it.
func (s *Scheduler) Stop() {
	n := s.queue.Cancel(s.owner)
	s.playing = false
	s.take++
	s.out.ReleaseAll()
	s.logger.Debug("stopped", "cancelled", n)
}
