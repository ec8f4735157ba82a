package music

import (
	"bytes"
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gitlab.com/gomidi/quantizer/lib/quantizer"
)

// Normalize removes the leading silence and drops anything past the shifted
// duration. It never modifies its input.
func Normalize(events []Event) []Event {
	if len(events) == 0 {
		return []Event{}
	}
	first := TimeOf(events[0])
	for _, e := range events[1:] {
		first = min(first, TimeOf(e))
	}
	limit := Duration(events) - first
	out := make([]Event, 0, len(events))
	for _, e := range events {
		t := TimeOf(e) - first
		if t > limit {
			continue
		}
		out = append(out, WithTime(e, t))
	}
	SortEvents(out)
	return out
}

// SnapToGrid moves note events onto the beat grid at bpm. The events go
// through a single SMF track and gomidi's quantizer; controller and program
// changes are carried over at their original times.
func SnapToGrid(events []Event, bpm float64) ([]Event, error) {
	ticks := smf.MetricTicks(960)
	track := smf.Track{}
	track.Add(0, smf.MetaTempo(bpm))
	var others []Event
	prev := uint32(0)
	for _, e := range events {
		var msg midi.Message
		switch ev := e.(type) {
		case NoteOn:
			msg = midi.NoteOn(ev.Channel.MIDI(), uint8(ev.Note.Key()), ev.Velocity)
		case NoteOff:
			msg = midi.NoteOff(ev.Channel.MIDI(), uint8(ev.Note.Key()))
		default:
			others = append(others, e)
			continue
		}
		abs := ticks.Ticks(bpm, secondsDuration(TimeOf(e)))
		track.Add(abs-prev, msg)
		prev = abs
	}
	track.Close(0)

	var in, out bytes.Buffer
	file := smf.New()
	file.TimeFormat = ticks
	if err := file.Add(track); err != nil {
		return nil, err
	}
	if _, err := file.WriteTo(&in); err != nil {
		return nil, err
	}
	if err := quantizer.Quantize(&in, &out); err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}
	quantized, err := smf.ReadFrom(&out)
	if err != nil {
		return nil, err
	}
	if quantized.NumTracks() < 1 {
		return nil, fmt.Errorf("quantize: no track in result")
	}
	mt, ok := quantized.TimeFormat.(smf.MetricTicks)
	if !ok {
		mt = ticks
	}
	channels := noteChannels(events)
	notes := trackEvents(quantized.Tracks[0], mt, bpm, func(key uint8) Channel { return channels[key] })
	notes = append(notes, others...)
	SortEvents(notes)
	return notes, nil
}

// noteChannels remembers the memory channel of each key so it survives the
// 0-based wire channel round trip.
func noteChannels(events []Event) map[uint8]Channel {
	out := map[uint8]Channel{}
	for _, e := range events {
		if on, ok := e.(NoteOn); ok {
			out[uint8(on.Note.Key())] = ChannelOf(on)
		}
	}
	return out
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
