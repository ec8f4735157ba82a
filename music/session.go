package music

import (
	"io"
	"math"
	"slices"

	"github.com/JeanRibes/memory-recorder/shared"
	charmlog "github.com/charmbracelet/log"
)

// Options configures a Session. Zero fields take the defaults below.
type Options struct {
	Clock       Clock
	Voice       Voice
	Logger      *charmlog.Logger
	Range       Range
	ChordWindow float64
	Gap         float64
	Tempo       int
	BPM         float64
}

var DefaultRange = Range{StartOctave: 1, TotalOctaves: 6}

type activeNote struct {
	pitch   Pitch
	channel Channel
	handle  VoiceHandle
}

// Session holds everything that lives as long as the process: sounding
// notes, the memory list, selections and the timer queue. It is not safe for
// concurrent use; Run is its only caller in the binaries.
type Session struct {
	Clock Clock
	Voice Voice
	Queue *Queue
	Range Range
	BPM   float64

	logger *charmlog.Logger

	active   map[int]activeNote
	memories []*Sequence
	selected int
	channels ChannelSet
	tempo    int

	recorder   *Recorder
	player     *Scheduler
	navigator  *Navigator
	transposer Transposer
}

func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = NewWallClock()
	}
	if opts.Logger == nil {
		opts.Logger = charmlog.New(io.Discard)
	}
	if opts.Range.TotalOctaves <= 0 {
		opts.Range = DefaultRange
	}
	if opts.ChordWindow <= 0 {
		opts.ChordWindow = DefaultChordWindow
	}
	if opts.Gap <= 0 {
		opts.Gap = DefaultGap
	}
	if opts.Tempo <= 0 {
		opts.Tempo = 100
	}
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	s := &Session{
		Clock:    opts.Clock,
		Voice:    opts.Voice,
		Queue:    &Queue{},
		Range:    opts.Range,
		BPM:      opts.BPM,
		logger:   opts.Logger,
		active:   map[int]activeNote{},
		selected: -1,
		channels: Channels(Omni),
		tempo:    opts.Tempo,
	}
	s.player = newScheduler(OwnerScheduler, s.Queue, s.Clock, s, opts.Logger.WithPrefix("play"))
	s.player.Gap = opts.Gap
	s.recorder = &Recorder{replay: newScheduler(OwnerRecorder, s.Queue, s.Clock, s, opts.Logger.WithPrefix("overdub"))}
	s.recorder.replay.Gap = opts.Gap
	s.navigator = NewNavigator(opts.ChordWindow)
	s.transposer.Range = opts.Range
	return s
}

// NoteOn starts a voice for p unless one is already sounding. It reports
// whether a voice was started.
func (s *Session) NoteOn(p Pitch, velocity uint8, ch Channel) bool {
	key := p.Offset()
	if _, ok := s.active[key]; ok {
		return false
	}
	var h VoiceHandle = silentHandle{}
	if s.Voice != nil {
		h = s.Voice.Play(p, s.Clock.Now(), PlayOptions{Gain: float64(velocity) / 127, Channel: ch})
	}
	s.active[key] = activeNote{pitch: p, channel: ch, handle: h}
	return true
}

func (s *Session) NoteOff(p Pitch) bool {
	key := p.Offset()
	n, ok := s.active[key]
	if !ok {
		return false
	}
	delete(s.active, key)
	n.handle.Stop()
	return true
}

func (s *Session) Control(e Event) {
	if sink, ok := s.Voice.(ControlSink); ok {
		sink.Control(e)
	}
}

// ReleaseAll stops every sounding voice.
func (s *Session) ReleaseAll() {
	for key, n := range s.active {
		delete(s.active, key)
		n.handle.Stop()
	}
}

func (s *Session) IsActive(p Pitch) bool {
	_, ok := s.active[p.Offset()]
	return ok
}

// ActiveNotes lists the sounding notes from low to high.
func (s *Session) ActiveNotes() []Pitch {
	out := make([]Pitch, 0, len(s.active))
	for _, n := range s.active {
		out = append(out, n.pitch)
	}
	slices.SortFunc(out, func(a, b Pitch) int { return a.Offset() - b.Offset() })
	return out
}

// Input handles one live event: it sounds it and, while recording, records it.
func (s *Session) Input(e Event) {
	now := s.Clock.Now()
	switch ev := e.(type) {
	case NoteOn:
		s.NoteOn(ev.Note, ev.Velocity, ChannelOf(ev))
	case NoteOff:
		s.NoteOff(ev.Note)
	case ControlChange, ProgramChange:
		s.Control(ev)
	}
	if s.recorder.Recording() {
		if err := s.recorder.Observe(e, now); err != nil {
			s.logger.Debug("input not recorded", "err", err)
		}
	}
}

func (s *Session) Tempo() int { return s.tempo }

func (s *Session) SetTempo(percent int) error {
	if percent <= 0 {
		return invalid(ErrInvalidTempo, "tempo must be positive", "Tempo must be above 0%")
	}
	s.tempo = percent
	return nil
}

func (s *Session) Channels() ChannelSet { return s.channels }

// SetChannels replaces the channel selection. An empty selection means Omni.
func (s *Session) SetChannels(set ChannelSet) {
	if len(set) == 0 {
		set = Channels(Omni)
	}
	s.channels = set
	s.reindex()
}

// ToggleChannel flips one channel. Selecting Omni clears the numbered
// channels and selecting a numbered channel clears Omni.
func (s *Session) ToggleChannel(ch Channel) {
	next := ChannelSet{}
	switch {
	case ch == Omni:
		next[Omni] = true
	case s.channels[ch]:
		for c := range s.channels {
			if c != ch {
				next[c] = true
			}
		}
	default:
		for c := range s.channels {
			if c != Omni {
				next[c] = true
			}
		}
		next[ch] = true
	}
	s.SetChannels(next)
}

// RecordChannel is the channel new takes are written to: the lowest selected
// numbered channel, or Omni.
func (s *Session) RecordChannel() Channel {
	if s.channels[Omni] {
		return Omni
	}
	if chs := s.channels.Sorted(); len(chs) > 0 {
		return chs[0]
	}
	return Omni
}

func (s *Session) Recording() bool { return s.recorder.Recording() }

func (s *Session) Playing() bool { return s.player.Playing() }

func (s *Session) Looping() bool { return s.player.Looping }

func (s *Session) SetLooping(loop bool) { s.player.Looping = loop }

// StartRecording opens a take on the record channel. Other channels of the
// selected memory replay meanwhile. It is a no-op while playing or already
// recording.
func (s *Session) StartRecording() bool {
	if s.player.Playing() {
		s.logger.Debug("recording refused while playing")
		return false
	}
	ch := s.RecordChannel()
	if !s.recorder.Start(s.Clock.Now(), ch) {
		return false
	}
	s.navigator.Release(s)
	if seq := s.Selected(); seq != nil && ch != Omni {
		others := []Event{}
		for _, e := range seq.Events {
			if ChannelOf(e) != ch {
				others = append(others, e)
			}
		}
		if len(others) > 0 {
			s.recorder.replay.Play([]*Sequence{NewSequence(seq.Name, others)}, 100, Channels(Omni))
		}
	}
	s.logger.Info("recording", "channel", ch)
	return true
}

// StopRecording closes the take and writes it into the selected memory,
// replacing only the record channel, or into a new memory when none is
// selected. It returns the memory that received the take.
func (s *Session) StopRecording() (*Sequence, error) {
	events, ch, err := s.recorder.Stop(s.Clock.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("stop recording", "events", len(events), "channel", ch)
	seq := s.Selected()
	if seq == nil {
		if len(events) == 0 {
			return nil, nil
		}
		return s.Commit(shared.MemoryName(len(s.memories)), Normalize(events)), nil
	}
	if len(events) == 0 {
		s.logger.Warn("empty take discarded", "memory", seq.Name, "channel", ch)
		return seq, nil
	}
	// Times stay on the memory's timeline so unrecorded channels keep
	// their place.
	MergeInto(seq, events, Channels(ch))
	s.edited()
	return seq, nil
}

// UndoNote drops the last note of the running take.
func (s *Session) UndoNote() error {
	return s.recorder.Undo()
}

// Batch is what Play plays: the memories ticked for batch play in list
// order, or the selected memory alone.
func (s *Session) Batch() []*Sequence {
	batch := []*Sequence{}
	for _, seq := range s.memories {
		if seq.Selected {
			batch = append(batch, seq)
		}
	}
	if len(batch) == 0 {
		if seq := s.Selected(); seq != nil {
			batch = append(batch, seq)
		}
	}
	return batch
}

// Play starts the batch at the session tempo on the selected channels.
func (s *Session) Play() (bool, error) {
	if s.recorder.Recording() {
		s.logger.Debug("playback refused while recording")
		return false, nil
	}
	batch := s.Batch()
	if len(batch) == 0 {
		return false, notFound(ErrNoSelectedMemory, "nothing to play")
	}
	s.navigator.Release(s)
	return s.player.Play(batch, s.tempo, s.channels), nil
}

// Stop ends playback and recording and silences everything.
func (s *Session) Stop() {
	if s.recorder.Recording() {
		if _, err := s.StopRecording(); err != nil {
			s.logger.Error("stop recording", "err", err)
		}
	}
	s.player.Stop()
	s.navigator.Release(s)
	s.ReleaseAll()
}

// Pump fires every timer due on the session clock.
func (s *Session) Pump() int {
	return s.Queue.Run(s.Clock.Now())
}

func (s *Session) NextChord() (Chord, bool) {
	return s.navigator.Next(s)
}

func (s *Session) PreviousChord() (Chord, bool) {
	return s.navigator.Previous(s)
}

func (s *Session) ResetChord() {
	s.navigator.Reset(s)
}

func (s *Session) Navigator() *Navigator { return s.navigator }

// Transpose shifts the selected memory by semitones.
func (s *Session) Transpose(semitones int) error {
	if err := s.transposer.Shift(s.Selected(), semitones); err != nil {
		return err
	}
	s.reindex()
	return nil
}

func (s *Session) TransposeAmount() int { return s.transposer.Amount }

// Snap quantizes the note times of the selected memory to the beat grid.
func (s *Session) Snap() error {
	seq := s.Selected()
	if seq == nil {
		return notFound(ErrNoSelectedMemory, "nothing to quantize")
	}
	events, err := SnapToGrid(seq.Events, s.BPM)
	if err != nil {
		return err
	}
	seq.Events = events
	seq.Touch()
	s.edited()
	return nil
}

func (s *Session) reindex() {
	s.navigator.Index(s, s.Selected(), s.channels)
}

// edited is called after any change to the selected memory's events.
func (s *Session) edited() {
	s.transposer.Rebase()
	s.reindex()
}

// Clear drops every memory and resets the session state.
func (s *Session) Clear() {
	s.Stop()
	s.Queue.Cancel(OwnerScheduler)
	s.Queue.Cancel(OwnerRecorder)
	s.memories = nil
	s.selected = -1
	s.channels = Channels(Omni)
	s.transposer.Select(nil)
	s.reindex()
}

func (s *Session) Status() *shared.Status {
	st := &shared.Status{
		Recording: s.Recording(),
		Playing:   s.Playing(),
		Looping:   s.Looping(),
		Tempo:     s.tempo,
		Selected:  s.selected,
		Transpose: s.transposer.Amount,
	}
	for _, ch := range s.channels.Sorted() {
		st.Channels = append(st.Channels, string(ch))
	}
	for _, seq := range s.memories {
		st.Memories = append(st.Memories, shared.MemoryStatus{
			Name:     seq.Name,
			Events:   len(seq.Events),
			Duration:   math.Round(seq.Duration*100) / 100,
			Batch:      seq.Selected,
			Annotation: seq.Annotation,
			Annotated:  !AnnotationEmpty(seq.Annotation),
		})
	}
	if seq := s.Selected(); seq != nil {
		for _, e := range seq.Events {
			st.Events = append(st.Events, FormatEvent(e))
		}
	}
	if c, ok := s.navigator.Current(); ok {
		st.Chord = c.String()
	}
	for _, p := range s.ActiveNotes() {
		st.ActiveNotes = append(st.ActiveNotes, p.String())
	}
	return st
}
