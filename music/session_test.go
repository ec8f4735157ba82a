package music

import (
	"errors"
	"slices"
	"testing"
)

func TestNoteOnTwiceKeepsOneVoice(t *testing.T) {
	s, _, voice := newTestSession()
	c4 := MustPitch("C4")
	if !s.NoteOn(c4, 100, Omni) {
		t.Fatal("first noteOn refused")
	}
	if s.NoteOn(MustPitch("B#3"), 100, Omni) {
		t.Error("enharmonic noteOn started a second voice")
	}
	if len(voice.on) != 1 {
		t.Errorf("voices = %v", voice.on)
	}
	if !s.NoteOff(c4) || s.NoteOff(c4) {
		t.Error("noteOff must succeed once")
	}
	if s.IsActive(c4) {
		t.Error("still active")
	}
}

func TestRecordingCreatesMemory(t *testing.T) {
	s, clock, _ := newTestSession()
	clock.T = 10
	if !s.StartRecording() {
		t.Fatal("recording refused")
	}
	clock.T = 10.5
	s.Input(NoteOn{Note: MustPitch("C4"), Velocity: 90, Channel: "3"})
	s.Input(NoteOn{Note: MustPitch("C4"), Velocity: 90, Channel: "3"})
	clock.T = 11
	s.Input(NoteOff{Note: MustPitch("C4"), Channel: "3"})
	s.Input(NoteOn{Note: MustPitch("E4"), Velocity: 90})
	clock.T = 12
	seq, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	if seq == nil || seq.Name != "memory 1" || s.SelectedIndex() != 0 {
		t.Fatalf("seq %v selected %d", seq, s.SelectedIndex())
	}
	want := []Event{
		NoteOn{Time: 0, Note: MustPitch("C4"), Velocity: 90, Channel: Omni},
		NoteOff{Time: 0.5, Note: MustPitch("C4"), Channel: Omni},
		NoteOn{Time: 0.5, Note: MustPitch("E4"), Velocity: 90, Channel: Omni},
		NoteOff{Time: 1.5, Note: MustPitch("E4"), Channel: Omni},
	}
	if !slices.Equal(seq.Events, want) {
		t.Errorf("events = %v\nwant %v", seq.Events, want)
	}
	if seq.Duration != 1.5 {
		t.Errorf("duration = %v", seq.Duration)
	}
}

func TestStopRecordingWithoutTake(t *testing.T) {
	s, _, _ := newTestSession()
	if _, err := s.StopRecording(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("err = %v", err)
	}
	s.StartRecording()
	seq, err := s.StopRecording()
	if err != nil || seq != nil || len(s.Memories()) != 0 {
		t.Errorf("empty take made memory %v (%v)", seq, err)
	}
}

func TestOverdubKeepsOtherChannels(t *testing.T) {
	s, clock, voice := newTestSession()
	s.Commit("m", notes(note("C4", 0, 1, "1"), note("E4", 0, 1, "2")))
	s.SetChannels(Channels("2"))
	if !s.StartRecording() {
		t.Fatal("recording refused")
	}
	s.Pump()
	if len(voice.on) != 1 || voice.on[0] != MustPitch("C4") {
		t.Fatalf("overdub replay sounded %v", voice.on)
	}
	clock.T = 0.25
	s.Input(NoteOn{Note: MustPitch("G4"), Velocity: 80, Channel: "5"})
	clock.T = 0.75
	s.Input(NoteOff{Note: MustPitch("G4")})
	clock.T = 2
	s.Pump()
	seq, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	if s.Queue.Pending(OwnerRecorder) != 0 {
		t.Error("replay entries left")
	}
	want := notes(note("C4", 0, 1, "1"), []Event{
		NoteOn{Time: 0.25, Note: MustPitch("G4"), Velocity: 80, Channel: "2"},
		NoteOff{Time: 0.75, Note: MustPitch("G4"), Channel: "2"},
	})
	if !slices.Equal(seq.Events, want) {
		t.Errorf("events = %v\nwant %v", seq.Events, want)
	}
}

func TestOverdubLeavesOtherChannelTimes(t *testing.T) {
	s, clock, _ := newTestSession()
	s.Commit("m", notes(note("C4", 0, 1, "2"), note("E4", 0.5, 1.5, "1")))
	s.SetChannels(Channels("2"))
	if !s.StartRecording() {
		t.Fatal("recording refused")
	}
	clock.T = 0.75
	s.Input(NoteOn{Note: MustPitch("G4"), Velocity: 70})
	clock.T = 1.25
	s.Input(NoteOff{Note: MustPitch("G4")})
	seq, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	want := notes(note("E4", 0.5, 1.5, "1"), []Event{
		NoteOn{Time: 0.75, Note: MustPitch("G4"), Velocity: 70, Channel: "2"},
		NoteOff{Time: 1.25, Note: MustPitch("G4"), Channel: "2"},
	})
	if !slices.Equal(seq.Events, want) {
		t.Errorf("events = %v\nwant %v", seq.Events, want)
	}
	if seq.Duration != 1.5 {
		t.Errorf("duration = %v", seq.Duration)
	}
}

func TestEmptyTakeKeepsMemory(t *testing.T) {
	s, _, _ := newTestSession()
	events := notes(note("C4", 0, 1, "1"), note("E4", 0.5, 2, "2"))
	s.Commit("m", events)
	s.StartRecording()
	seq, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seq.Events, events) || seq.Duration != 2 {
		t.Errorf("empty Omni take changed the memory: %v", seq.Events)
	}
}

func TestStopSilencesEverySource(t *testing.T) {
	s, clock, voice := newTestSession()
	s.Commit("played", note("D4", 0, 5, "1"))
	s.Commit("stepped", notes(note("C4", 0, 1, "1"), note("E4", 0, 1, "1")))
	if err := s.SetBatch(0, true); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Play(); !ok || err != nil {
		t.Fatalf("play: %v %v", ok, err)
	}
	s.Pump()
	if _, ok := s.NextChord(); !ok {
		t.Fatal("no chord")
	}
	s.Input(NoteOn{Note: MustPitch("G4"), Velocity: 64})
	if got := len(s.ActiveNotes()); got != 4 {
		t.Fatalf("sounding %v, want playback, chord and live notes", s.ActiveNotes())
	}

	s.Stop()
	if len(s.ActiveNotes()) != 0 {
		t.Errorf("still sounding after Stop: %v", s.ActiveNotes())
	}
	if len(voice.off) != 4 {
		t.Errorf("released %v", voice.off)
	}
	started := len(voice.on)
	clock.T = 10
	s.Pump()
	if len(voice.on) != started || s.Playing() {
		t.Error("a stale playback callback fired after Stop")
	}
}

func TestRecordingAndPlaybackExclude(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", note("C4", 0, 1, ""))
	if ok, err := s.Play(); !ok || err != nil {
		t.Fatalf("play: %v %v", ok, err)
	}
	if s.StartRecording() {
		t.Error("recording started during playback")
	}
	s.Stop()
	s.StartRecording()
	if ok, _ := s.Play(); ok {
		t.Error("playback started during recording")
	}
}

func TestPlayWithoutMemory(t *testing.T) {
	s, _, _ := newTestSession()
	if _, err := s.Play(); !errors.Is(err, ErrNoSelectedMemory) {
		t.Errorf("err = %v", err)
	}
}

func TestBatchPrefersTickedMemories(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("a", note("C4", 0, 1, ""))
	s.Commit("b", note("D4", 0, 1, ""))
	s.Commit("c", note("E4", 0, 1, ""))
	if b := s.Batch(); len(b) != 1 || b[0].Name != "c" {
		t.Errorf("batch = %v", b)
	}
	s.SetBatch(0, true)
	s.SetBatch(2, true)
	if b := s.Batch(); len(b) != 2 || b[0].Name != "a" || b[1].Name != "c" {
		t.Errorf("batch = %v", b)
	}
}

func TestPlaybackReachesVoice(t *testing.T) {
	s, clock, voice := newTestSession()
	s.Commit("m", note("C4", 0, 1, ""))
	s.SetTempo(200)
	s.Play()
	s.Pump()
	clock.T = 0.5
	s.Pump()
	if len(voice.on) != 1 || len(voice.off) != 1 || s.Playing() {
		t.Errorf("on %v off %v playing %v", voice.on, voice.off, s.Playing())
	}
	if err := s.SetTempo(0); !errors.Is(err, ErrInvalidTempo) {
		t.Errorf("SetTempo(0) = %v", err)
	}
}

func TestUndoNote(t *testing.T) {
	s, clock, _ := newTestSession()
	s.StartRecording()
	s.Input(NoteOn{Note: MustPitch("C4"), Velocity: 1})
	clock.T = 1
	s.Input(NoteOff{Note: MustPitch("C4")})
	s.Input(NoteOn{Note: MustPitch("D4"), Velocity: 1})
	clock.T = 2
	s.Input(NoteOff{Note: MustPitch("D4")})
	if err := s.UndoNote(); err != nil {
		t.Fatal(err)
	}
	seq, _ := s.StopRecording()
	if len(seq.Events) != 2 || seq.Events[0].(NoteOn).Note != MustPitch("C4") {
		t.Errorf("events = %v", seq.Events)
	}
}

func TestToggleChannel(t *testing.T) {
	s, _, _ := newTestSession()
	s.ToggleChannel("2")
	s.ToggleChannel("4")
	if got := s.Channels().Sorted(); len(got) != 2 || got[0] != "2" {
		t.Errorf("channels = %v", got)
	}
	if s.RecordChannel() != "2" {
		t.Errorf("record channel = %v", s.RecordChannel())
	}
	s.ToggleChannel("2")
	s.ToggleChannel("4")
	if !s.Channels()[Omni] {
		t.Error("empty selection must fall back to Omni")
	}
}

func TestSessionTranspose(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", note("C1", 0, 1, ""))
	if err := s.Transpose(-1); !errors.Is(err, ErrTranspositionOutOfRange) {
		t.Fatalf("err = %v", err)
	}
	if s.TransposeAmount() != 0 || s.Selected().Events[0].(NoteOn).Note != MustPitch("C1") {
		t.Error("failed transposition changed the memory")
	}
	if err := s.Transpose(2); err != nil || s.TransposeAmount() != 2 {
		t.Errorf("transpose: %v amount %d", err, s.TransposeAmount())
	}
	s.Select(-1)
	if err := s.Transpose(1); !errors.Is(err, ErrNoSelectedMemory) {
		t.Errorf("err = %v", err)
	}
}

func TestSessionChordNavigation(t *testing.T) {
	s, _, voice := newTestSession()
	s.Commit("m", notes(note("C4", 0, 1, ""), note("E4", 0.1, 1, ""), note("G4", 1, 2, "")))
	c, ok := s.NextChord()
	if !ok || c.String() != "C4 E4" {
		t.Fatalf("chord %v", c)
	}
	if st := s.Status(); st.Chord != "C4 E4" || len(st.ActiveNotes) != 2 {
		t.Errorf("status %+v", st)
	}
	s.NextChord()
	if len(voice.off) != 2 || !s.IsActive(MustPitch("G4")) {
		t.Errorf("off %v", voice.off)
	}
	s.ResetChord()
	if len(s.ActiveNotes()) != 0 {
		t.Error("reset must release navigation notes")
	}
}

func TestClear(t *testing.T) {
	s, _, _ := newTestSession()
	s.Commit("m", note("C4", 0, 1, ""))
	s.SetChannels(Channels("3"))
	s.Play()
	s.Clear()
	if len(s.Memories()) != 0 || s.SelectedIndex() != -1 || s.Playing() || s.Queue.Len() != 0 || !s.Channels()[Omni] {
		t.Error("clear left state behind")
	}
}
