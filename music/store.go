package music

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	typeNoteOn        = "noteOn"
	typeNoteOff       = "noteOff"
	typeControlChange = "controlChange"
	typeProgramChange = "programChange"
)

// eventRecord is the file form of an event. Exactly the fields of the
// variant are set; channel is always written.
type eventRecord struct {
	Type       string  `json:"type" yaml:"type"`
	Time       float64 `json:"time" yaml:"time"`
	Channel    string  `json:"channel" yaml:"channel"`
	Note       *string `json:"note,omitempty" yaml:"note,omitempty"`
	Velocity   *int    `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Fingering  *string `json:"fingering,omitempty" yaml:"fingering,omitempty"`
	Annotation *string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Controller *int    `json:"controllerNumber,omitempty" yaml:"controllerNumber,omitempty"`
	Value      *int    `json:"controllerValue,omitempty" yaml:"controllerValue,omitempty"`
	Program    *int    `json:"programNumber,omitempty" yaml:"programNumber,omitempty"`
}

type sequenceRecord struct {
	Name       string        `json:"name" yaml:"name"`
	Events     []eventRecord `json:"events" yaml:"events"`
	Duration   float64       `json:"duration" yaml:"duration"`
	Annotation string        `json:"annotation" yaml:"annotation"`
	Selected   bool          `json:"selected" yaml:"selected"`
	Rank       float64       `json:"rank" yaml:"rank"`
}

func ptr[T any](v T) *T { return &v }

func recordOf(e Event) eventRecord {
	r := eventRecord{Time: TimeOf(e), Channel: string(ChannelOf(e))}
	switch ev := e.(type) {
	case NoteOn:
		r.Type = typeNoteOn
		r.Note = ptr(ev.Note.String())
		r.Velocity = ptr(int(ev.Velocity))
		r.Fingering = ptr(ev.Fingering)
		r.Annotation = ptr(ev.Annotation)
	case NoteOff:
		r.Type = typeNoteOff
		r.Note = ptr(ev.Note.String())
	case ControlChange:
		r.Type = typeControlChange
		r.Controller = ptr(int(ev.Controller))
		r.Value = ptr(int(ev.Value))
	case ProgramChange:
		r.Type = typeProgramChange
		r.Program = ptr(int(ev.Program))
	}
	return r
}

func byteField(name string, v *int) (uint8, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	if *v < 0 || *v > 127 {
		return 0, fmt.Errorf("%s %d out of 0..127", name, *v)
	}
	return uint8(*v), nil
}

func noteField(v *string) (Pitch, error) {
	if v == nil {
		return Pitch{}, errors.New("missing note")
	}
	return ParsePitch(*v)
}

func (r eventRecord) event() (Event, error) {
	ch, ok := ParseChannel(r.Channel)
	if !ok {
		return nil, fmt.Errorf("bad channel %q", r.Channel)
	}
	var e Event
	switch r.Type {
	case typeNoteOn:
		p, err := noteField(r.Note)
		if err != nil {
			return nil, err
		}
		vel, err := byteField("velocity", r.Velocity)
		if err != nil {
			return nil, err
		}
		on := NoteOn{Time: r.Time, Note: p, Velocity: vel, Channel: ch}
		if r.Fingering != nil {
			on.Fingering = *r.Fingering
		}
		if r.Annotation != nil {
			on.Annotation = *r.Annotation
		}
		e = on
	case typeNoteOff:
		p, err := noteField(r.Note)
		if err != nil {
			return nil, err
		}
		e = NoteOff{Time: r.Time, Note: p, Channel: ch}
	case typeControlChange:
		ctl, err := byteField("controllerNumber", r.Controller)
		if err != nil {
			return nil, err
		}
		val, err := byteField("controllerValue", r.Value)
		if err != nil {
			return nil, err
		}
		e = ControlChange{Time: r.Time, Channel: ch, Controller: ctl, Value: val}
	case typeProgramChange:
		prog, err := byteField("programNumber", r.Program)
		if err != nil {
			return nil, err
		}
		e = ProgramChange{Time: r.Time, Channel: ch, Program: prog}
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
	if err := ValidateEvent(e); err != nil {
		return nil, err
	}
	return e, nil
}

func records(seqs []*Sequence) []sequenceRecord {
	out := make([]sequenceRecord, 0, len(seqs))
	for _, seq := range seqs {
		rec := sequenceRecord{
			Name:       seq.Name,
			Events:     make([]eventRecord, 0, len(seq.Events)),
			Duration:   seq.Duration,
			Annotation: seq.Annotation,
			Selected:   seq.Selected,
			Rank:       seq.Rank,
		}
		for _, e := range seq.Events {
			rec.Events = append(rec.Events, recordOf(e))
		}
		out = append(out, rec)
	}
	return out
}

func sequences(recs []sequenceRecord) ([]*Sequence, error) {
	out := make([]*Sequence, 0, len(recs))
	for i, rec := range recs {
		seq := &Sequence{
			Name:       rec.Name,
			Events:     make([]Event, 0, len(rec.Events)),
			Annotation: rec.Annotation,
			Selected:   rec.Selected,
			Rank:       rec.Rank,
		}
		for j, er := range rec.Events {
			e, err := er.event()
			if err != nil {
				return nil, malformed(fmt.Sprintf("memory %d event %d: %v", i+1, j, err))
			}
			seq.Events = append(seq.Events, e)
		}
		seq.Touch()
		out = append(out, seq)
	}
	return out, nil
}

func malformed(detail string) error {
	return invalid(ErrMalformedImport, detail, "The file is not a memory list")
}

// Format selects the encoding of a memory file.
type Format int

const (
	JSON Format = iota
	YAML
)

func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

func Encode(w io.Writer, seqs []*Sequence, f Format) error {
	recs := records(seqs)
	if f == YAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// Decode reads a memory list. Any shape or range error yields
// ErrMalformedImport and no memories.
func Decode(r io.Reader, f Format) ([]*Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var recs []sequenceRecord
	if f == YAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&recs); err != nil && !errors.Is(err, io.EOF) {
			return nil, malformed(err.Error())
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&recs); err != nil {
			return nil, malformed(err.Error())
		}
	}
	if recs == nil {
		// no document, or a null one: not a list, even an empty one
		return nil, malformed("no memory list in file")
	}
	return sequences(recs)
}

func SaveFile(path string, seqs []*Sequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return errors.Join(Encode(f, seqs, FormatOf(path)), f.Close())
}

func LoadFile(path string) ([]*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatOf(path))
}

// Save writes the memory list to path.
func (s *Session) Save(path string) error {
	return SaveFile(path, s.memories)
}

// Open replaces the memory list with the content of path. On any error the
// current list is kept.
func (s *Session) Open(path string) error {
	seqs, err := LoadFile(path)
	if err != nil {
		return err
	}
	s.Load(seqs)
	s.logger.Info("loaded", "file", path, "memories", len(seqs))
	return nil
}
