package transport

import (
	"strings"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestParseKeymap(t *testing.T) {
	km, err := ParseKeymap(strings.NewReader("# piano\n12:60\n\n 13 : 62\n40:-64\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(km) != 3 || km[12] != 60 || km[13] != 62 || km[40] != -64 {
		t.Errorf("keymap = %v", km)
	}
	for _, in := range []string{"12", "a:60", "12:b", "300:60", "12:200"} {
		if _, err := ParseKeymap(strings.NewReader(in)); err == nil {
			t.Errorf("ParseKeymap(%q) accepted", in)
		}
	}
}

func TestKeymapDecoder(t *testing.T) {
	dec := NewKeymapDecoder(Keymap{12: 60, 40: -64})
	got := dec.Feed([]byte{0x00, 12, 0x00})
	got = append(got, dec.Feed([]byte{12})...) // repeated press
	got = append(got, dec.Feed([]byte{0x80, 12})...)
	if !equal(got, midi.NoteOn(0, 60, 64), midi.NoteOff(0, 60)) {
		t.Errorf("note frames = %v", got)
	}

	got = dec.Feed([]byte{0x00, 40, 0x80, 40, 0x00, 40, 0x80, 40})
	if !equal(got, midi.ControlChange(0, 64, 64), midi.ControlChange(0, 64, 0)) {
		t.Errorf("pedal toggle = %v", got)
	}

	if got := dec.Feed([]byte{0x00, 99, 0x80, 99}); len(got) != 0 {
		t.Errorf("unmapped code produced %v", got)
	}
}
