package music

type fakeVoice struct {
	on       []Pitch
	off      []Pitch
	controls []Event
}

type fakeHandle struct {
	v *fakeVoice
	p Pitch
}

func (h fakeHandle) Stop() { h.v.off = append(h.v.off, h.p) }

func (v *fakeVoice) Play(p Pitch, when float64, opts PlayOptions) VoiceHandle {
	v.on = append(v.on, p)
	return fakeHandle{v: v, p: p}
}

func (v *fakeVoice) Control(e Event) { v.controls = append(v.controls, e) }

func newTestSession() (*Session, *ManualClock, *fakeVoice) {
	clock := &ManualClock{}
	voice := &fakeVoice{}
	return NewSession(Options{Clock: clock, Voice: voice}), clock, voice
}

func note(name string, on, off float64, ch Channel) []Event {
	p := MustPitch(name)
	return []Event{
		NoteOn{Time: on, Note: p, Velocity: 100, Channel: ch},
		NoteOff{Time: off, Note: p, Channel: ch},
	}
}

func notes(groups ...[]Event) []Event {
	out := []Event{}
	for _, g := range groups {
		out = append(out, g...)
	}
	SortEvents(out)
	return out
}
