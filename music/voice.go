package music

import (
	"math"

	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
)

type PlayOptions struct {
	Gain    float64 // velocity/127
	Channel Channel
}

// Voice renders notes. The session never looks past the returned handle.
type Voice interface {
	Play(p Pitch, when float64, opts PlayOptions) VoiceHandle
}

type VoiceHandle interface {
	Stop()
}

// ControlSink is implemented by voices that also accept controller and
// program changes.
type ControlSink interface {
	Control(e Event)
}

// MIDIVoice plays notes on a MIDI output.
type MIDIVoice struct {
	send   func(midi.Message) error
	logger *charmlog.Logger
}

func NewMIDIVoice(send func(midi.Message) error, logger *charmlog.Logger) *MIDIVoice {
	return &MIDIVoice{send: send, logger: logger}
}

type midiHandle struct {
	v   *MIDIVoice
	ch  uint8
	key uint8
}

func (h midiHandle) Stop() {
	h.v.emit(midi.NoteOff(h.ch, h.key))
}

type silentHandle struct{}

func (silentHandle) Stop() {}

func (v *MIDIVoice) Play(p Pitch, when float64, opts PlayOptions) VoiceHandle {
	key := p.Key()
	if key < 0 || key > 127 {
		v.logger.Warn("note outside MIDI range", "note", p, "key", key)
		return silentHandle{}
	}
	vel := uint8(math.Round(math.Max(1, math.Min(127, opts.Gain*127))))
	ch := opts.Channel.MIDI()
	v.emit(midi.NoteOn(ch, uint8(key), vel))
	return midiHandle{v: v, ch: ch, key: uint8(key)}
}

func (v *MIDIVoice) Control(e Event) {
	switch ev := e.(type) {
	case ControlChange:
		v.emit(midi.ControlChange(ev.Channel.MIDI(), ev.Controller, ev.Value))
	case ProgramChange:
		v.emit(midi.ProgramChange(ev.Channel.MIDI(), ev.Program))
	}
}

func (v *MIDIVoice) emit(msg midi.Message) {
	if err := v.send(msg); err != nil {
		v.logger.Error("midi send", "msg", msg.String(), "err", err)
	}
}
