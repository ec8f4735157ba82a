package music

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// NoteSpan is one exported note.
type NoteSpan struct {
	Note     Pitch
	Start    uint32
	Duration uint32
	Velocity uint8
	Channel  Channel
}

func secondsToTicks(t, bpm float64, tpb int) float64 {
	return t * (bpm / 60) * float64(tpb)
}

// NoteSpans pairs each noteOn with the next noteOff of the same note. A note
// left open lasts until the end of the events. Durations never go below one
// tick.
func NoteSpans(events []Event, bpm float64, tpb int) []NoteSpan {
	end := Duration(events)
	spans := []NoteSpan{}
	for i, e := range events {
		on, ok := e.(NoteOn)
		if !ok {
			continue
		}
		stop := end
		for _, later := range events[i+1:] {
			if off, ok := later.(NoteOff); ok && off.Note.Offset() == on.Note.Offset() {
				stop = off.Time
				break
			}
		}
		start := math.Round(secondsToTicks(on.Time, bpm, tpb))
		length := math.Round(secondsToTicks(stop-on.Time, bpm, tpb))
		spans = append(spans, NoteSpan{
			Note:     on.Note,
			Start:    uint32(start),
			Duration: uint32(max(1, length)),
			Velocity: on.Velocity,
			Channel:  ChannelOf(on),
		})
	}
	return spans
}

type tickMessage struct {
	tick uint32
	msg  []byte
}

// Track encodes one memory as an SMF track.
func (s *Sequence) Track(bpm float64, tpb int) smf.Track {
	msgs := []tickMessage{}
	for _, sp := range NoteSpans(s.Events, bpm, tpb) {
		key := sp.Note.Key()
		if key < 0 || key > 127 {
			continue
		}
		ch := sp.Channel.MIDI()
		msgs = append(msgs,
			tickMessage{sp.Start, midi.NoteOn(ch, uint8(key), sp.Velocity)},
			tickMessage{sp.Start + sp.Duration, midi.NoteOff(ch, uint8(key))},
		)
	}
	for _, e := range s.Events {
		tick := uint32(math.Round(secondsToTicks(TimeOf(e), bpm, tpb)))
		switch ev := e.(type) {
		case ControlChange:
			msgs = append(msgs, tickMessage{tick, midi.ControlChange(ev.Channel.MIDI(), ev.Controller, ev.Value)})
		case ProgramChange:
			msgs = append(msgs, tickMessage{tick, midi.ProgramChange(ev.Channel.MIDI(), ev.Program)})
		}
	}
	slices.SortStableFunc(msgs, func(a, b tickMessage) int { return cmp.Compare(a.tick, b.tick) })

	tr := smf.Track{}
	tr.Add(0, smf.MetaTrackSequenceName(s.Name))
	tr.Add(0, smf.MetaTempo(bpm))
	prev := uint32(0)
	for _, m := range msgs {
		tr.Add(m.tick-prev, m.msg)
		prev = m.tick
	}
	tr.Close(0)
	return tr
}

// WriteSMF writes the memories as a multi-track MIDI file.
func WriteSMF(w io.Writer, seqs []*Sequence, bpm float64, tpb int) (errs error) {
	f := smf.New()
	f.TimeFormat = smf.MetricTicks(tpb)
	for _, seq := range seqs {
		if err := f.Add(seq.Track(bpm, tpb)); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

func ExportSMF(path string, seqs []*Sequence, bpm float64, tpb int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return errors.Join(WriteSMF(f, seqs, bpm, tpb), f.Close())
}

// ReadSMF turns every track that carries channel messages into a memory.
func ReadSMF(r io.Reader, bpm float64) ([]*Sequence, error) {
	f, err := smf.ReadFrom(r)
	if err != nil {
		return nil, invalid(ErrMalformedImport, err.Error(), "This is not a MIDI file")
	}
	mt, ok := f.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, invalid(ErrMalformedImport, "SMPTE time format", "Only metric MIDI files can be imported")
	}
	seqs := []*Sequence{}
	for i, tr := range f.Tracks {
		events := trackEvents(tr, mt, bpm, func(uint8) Channel { return "" })
		if len(events) == 0 {
			continue
		}
		name := trackName(tr)
		if name == "" {
			name = fmt.Sprintf("track %d", i+1)
		}
		seqs = append(seqs, NewSequence(name, Normalize(events)))
	}
	return seqs, nil
}

func ImportSMF(path string, bpm float64) ([]*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSMF(f, bpm)
}

func trackName(tr smf.Track) string {
	var name string
	for _, ev := range tr {
		if ev.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}

// trackEvents decodes the channel messages of tr, following tempo changes.
// channelFor overrides the wire channel when it returns a non-empty value.
func trackEvents(tr smf.Track, mt smf.MetricTicks, bpm float64, channelFor func(key uint8) Channel) []Event {
	events := []Event{}
	now := 0.0
	var ch, key, vel, prog uint8
	for _, ev := range tr {
		now += mt.Duration(bpm, ev.Delta).Seconds()
		var tempo float64
		if ev.Message.GetMetaTempo(&tempo) {
			bpm = tempo
			continue
		}
		msg := midi.Message(ev.Message)
		switch {
		case msg.GetNoteEnd(&ch, &key):
			events = append(events, NoteOff{Time: now, Note: PitchFromKey(key), Channel: resolve(channelFor(key), ch)})
		case msg.GetNoteOn(&ch, &key, &vel):
			events = append(events, NoteOn{Time: now, Note: PitchFromKey(key), Velocity: vel, Channel: resolve(channelFor(key), ch)})
		case msg.GetControlChange(&ch, &key, &vel):
			events = append(events, ControlChange{Time: now, Channel: ChannelNumber(int(ch) + 1), Controller: key, Value: vel})
		case msg.GetProgramChange(&ch, &prog):
			events = append(events, ProgramChange{Time: now, Channel: ChannelNumber(int(ch) + 1), Program: prog})
		}
	}
	return events
}

func resolve(override Channel, wire uint8) Channel {
	if override != "" {
		return override
	}
	return ChannelNumber(int(wire) + 1)
}
