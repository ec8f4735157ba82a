package music

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidNote = errors.New("invalid note")

const (
	Flat    int8 = -1
	Natural int8 = 0
	Sharp   int8 = 1
)

// Pitch is a spelled note: letter, accidental and octave. C4 is middle C.
type Pitch struct {
	Letter     byte
	Accidental int8
	Octave     int
}

var letterClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var sharpNames = [12]Pitch{
	{'C', Natural, 0}, {'C', Sharp, 0}, {'D', Natural, 0}, {'D', Sharp, 0},
	{'E', Natural, 0}, {'F', Natural, 0}, {'F', Sharp, 0}, {'G', Natural, 0},
	{'G', Sharp, 0}, {'A', Natural, 0}, {'A', Sharp, 0}, {'B', Natural, 0},
}

var flatNames = [12]Pitch{
	{'C', Natural, 0}, {'D', Flat, 0}, {'D', Natural, 0}, {'E', Flat, 0},
	{'E', Natural, 0}, {'F', Natural, 0}, {'G', Flat, 0}, {'G', Natural, 0},
	{'A', Flat, 0}, {'A', Natural, 0}, {'B', Flat, 0}, {'B', Natural, 0},
}

// Offset is octave*12 + pitch class. Enharmonic spellings share an offset.
func (p Pitch) Offset() int {
	return p.Octave*12 + letterClass[p.Letter] + int(p.Accidental)
}

// Key is the MIDI key number (C4 = 60).
func (p Pitch) Key() int {
	return p.Offset() + 12
}

func (p Pitch) IsFlat() bool {
	return p.Accidental < 0
}

func (p Pitch) Valid() bool {
	_, ok := letterClass[p.Letter]
	return ok && p.Accidental >= Flat && p.Accidental <= Sharp
}

func (p Pitch) String() string {
	var sb strings.Builder
	sb.WriteByte(p.Letter)
	switch p.Accidental {
	case Sharp:
		sb.WriteByte('#')
	case Flat:
		sb.WriteByte('b')
	}
	sb.WriteString(strconv.Itoa(p.Octave))
	return sb.String()
}

// PitchFromOffset spells an offset, using flats for black keys when
// preferFlat is set and sharps otherwise.
func PitchFromOffset(offset int, preferFlat bool) Pitch {
	octave := offset / 12
	class := offset % 12
	if class < 0 {
		class += 12
		octave--
	}
	p := sharpNames[class]
	if preferFlat {
		p = flatNames[class]
	}
	p.Octave = octave
	return p
}

func PitchFromKey(key uint8) Pitch {
	return PitchFromOffset(int(key)-12, false)
}

func ParsePitch(s string) (Pitch, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Pitch{}, fmt.Errorf("%w: empty", ErrInvalidNote)
	}
	p := Pitch{Letter: strings.ToUpper(in[:1])[0]}
	if _, ok := letterClass[p.Letter]; !ok {
		return Pitch{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	rest := in[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		p.Accidental, rest = Sharp, rest[1:]
	case strings.HasPrefix(rest, "♯"):
		p.Accidental, rest = Sharp, rest[len("♯"):]
	case strings.HasPrefix(rest, "b"):
		p.Accidental, rest = Flat, rest[1:]
	case strings.HasPrefix(rest, "♭"):
		p.Accidental, rest = Flat, rest[len("♭"):]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Pitch{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	p.Octave = octave
	return p, nil
}

func MustPitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Range is the playable span of the instrument, in whole octaves.
type Range struct {
	StartOctave  int
	TotalOctaves int
}

func (r Range) Contains(p Pitch) bool {
	off := p.Offset()
	return off >= r.StartOctave*12 && off < (r.StartOctave+r.TotalOctaves)*12
}

func (r Range) Lowest() Pitch {
	return PitchFromOffset(r.StartOctave*12, false)
}

func (r Range) Highest() Pitch {
	return PitchFromOffset((r.StartOctave+r.TotalOctaves)*12-1, false)
}
