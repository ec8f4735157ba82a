package transport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2"
)

// Keymap maps keyboard scan codes to MIDI keys. A negative value -n maps the
// code to a toggle of controller n.
type Keymap map[int]int

// ParseKeymap reads one "code:note" pair per line. Blank lines and lines
// starting with # are skipped.
func ParseKeymap(r io.Reader) (Keymap, error) {
	keymap := Keymap{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		k, v, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("keymap line %d: missing ':'", line)
		}
		key, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("keymap line %d: %w", line, err)
		}
		val, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("keymap line %d: %w", line, err)
		}
		if key < 0 || key > 255 || val < -127 || val > 127 {
			return nil, fmt.Errorf("keymap line %d: %d:%d out of range", line, key, val)
		}
		keymap[key] = val
	}
	return keymap, sc.Err()
}

func LoadKeymap(filename string) (Keymap, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseKeymap(file)
}

// KeymapDecoder turns the two-byte frames of the serial keyboard into MIDI.
// The high bit of the first byte is set on release, the second byte is the
// scan code.
type KeymapDecoder struct {
	Keymap   Keymap
	Velocity uint8

	state      [256]bool
	controller [256]bool
	buf        []byte
}

func NewKeymapDecoder(keymap Keymap) *KeymapDecoder {
	return &KeymapDecoder{Keymap: keymap, Velocity: 64}
}

func (d *KeymapDecoder) Feed(data []byte) []midi.Message {
	d.buf = append(d.buf, data...)
	out := []midi.Message{}
	for len(d.buf) >= 2 {
		if msg, ok := d.frame(d.buf[0], d.buf[1]); ok {
			out = append(out, msg)
		}
		d.buf = d.buf[2:]
	}
	return out
}

func (d *KeymapDecoder) frame(status, code byte) (midi.Message, bool) {
	noteOn := status>>7 == 0
	if d.state[code] && noteOn {
		return nil, false
	}
	d.state[code] = noteOn

	note, ok := d.Keymap[int(code)]
	if !ok {
		return nil, false
	}
	if note < 0 {
		if !noteOn {
			return nil, false
		}
		value := uint8(64)
		if d.controller[code] {
			value = 0
		}
		d.controller[code] = !d.controller[code]
		return midi.ControlChange(0, uint8(-note), value), true
	}
	if noteOn {
		return midi.NoteOn(0, uint8(note), d.Velocity), true
	}
	return midi.NoteOff(0, uint8(note)), true
}
