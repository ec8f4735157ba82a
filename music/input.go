package music

import "gitlab.com/gomidi/midi/v2"

// FromMIDI converts a wire message into an event with time zero. A noteOn of
// velocity 0 is a noteOff. Everything but notes, controllers and programs
// is dropped.
func FromMIDI(msg midi.Message) (Event, bool) {
	var ch, key, vel, ctl, val, prog uint8
	switch {
	case msg.GetNoteEnd(&ch, &key):
		return NoteOff{Note: PitchFromKey(key), Channel: ChannelNumber(int(ch) + 1)}, true
	case msg.GetNoteOn(&ch, &key, &vel):
		return NoteOn{Note: PitchFromKey(key), Velocity: vel, Channel: ChannelNumber(int(ch) + 1)}, true
	case msg.GetControlChange(&ch, &ctl, &val):
		return ControlChange{Channel: ChannelNumber(int(ch) + 1), Controller: ctl, Value: val}, true
	case msg.GetProgramChange(&ch, &prog):
		return ProgramChange{Channel: ChannelNumber(int(ch) + 1), Program: prog}, true
	}
	return nil, false
}
