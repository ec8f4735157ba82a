package music

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Event lines are the text form of one row of the event table:
//
//	on C4 vel=100 at=0.5 ch=1 finger=3
//	off C4 at=1 ch=1
//	cc 64 127 at=0 ch=Omni
//	pc 5 at=0 ch=2
//
// A missing at= is time zero, a missing ch= leaves the channel unset.

// FormatEvent writes e as an event line ParseEventLine reads back.
func FormatEvent(e Event) string {
	var sb strings.Builder
	switch ev := e.(type) {
	case NoteOn:
		fmt.Fprintf(&sb, "on %s vel=%d", ev.Note, ev.Velocity)
	case NoteOff:
		fmt.Fprintf(&sb, "off %s", ev.Note)
	case ControlChange:
		fmt.Fprintf(&sb, "cc %d %d", ev.Controller, ev.Value)
	case ProgramChange:
		fmt.Fprintf(&sb, "pc %d", ev.Program)
	}
	fmt.Fprintf(&sb, " at=%s ch=%s", strconv.FormatFloat(TimeOf(e), 'f', -1, 64), ChannelOf(e))
	if on, ok := e.(NoteOn); ok && on.Fingering != "" {
		sb.WriteString(" finger=" + on.Fingering)
	}
	return sb.String()
}

type lineOptions struct {
	at       float64
	velocity int
	channel  Channel
	finger   string
	set      map[string]bool
}

// splitOptions separates key=value tokens from plain ones.
func splitOptions(line string) (plain []string, opts lineOptions, err error) {
	opts.set = map[string]bool{}
	for _, tok := range strings.Fields(line) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			plain = append(plain, tok)
			continue
		}
		switch strings.ToLower(k) {
		case "at":
			opts.at, err = strconv.ParseFloat(v, 64)
			if err != nil || opts.at < 0 {
				return nil, opts, fmt.Errorf("at=%s is not a time in seconds", v)
			}
		case "vel":
			opts.velocity, err = strconv.Atoi(v)
			if err != nil || opts.velocity < 1 || opts.velocity > 127 {
				return nil, opts, fmt.Errorf("vel=%s out of 1..127", v)
			}
		case "ch":
			ch, ok := ParseChannel(v)
			if !ok {
				return nil, opts, fmt.Errorf("ch=%s is not Omni or 1..16", v)
			}
			opts.channel = ch
		case "finger":
			opts.finger = v
		default:
			return nil, opts, fmt.Errorf("unknown option %q", k)
		}
		opts.set[strings.ToLower(k)] = true
	}
	return plain, opts, nil
}

func byteArg(name, s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 127 {
		return 0, fmt.Errorf("%s %q out of 0..127", name, s)
	}
	return uint8(n), nil
}

const lineHelp = "Rows look like: on C4 vel=100 at=0.5 ch=1, off C4 at=1, cc 64 127, pc 5"

// ParseEventLine reads one event line.
func ParseEventLine(line string) (Event, error) {
	e, err := parseEventLine(line)
	if err != nil {
		return nil, invalid(ErrInvalidEvent, err.Error(), lineHelp)
	}
	return e, nil
}

func parseEventLine(line string) (Event, error) {
	plain, opts, err := splitOptions(line)
	if err != nil {
		return nil, err
	}
	if len(plain) == 0 {
		return nil, errors.New("empty event line")
	}
	args := plain[1:]
	want := map[string]int{"on": 1, "off": 1, "cc": 2, "pc": 1}
	n, ok := want[strings.ToLower(plain[0])]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %q", plain[0])
	}
	if len(args) != n {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", plain[0], n, len(args))
	}
	switch strings.ToLower(plain[0]) {
	case "on":
		p, err := ParsePitch(args[0])
		if err != nil {
			return nil, err
		}
		if !opts.set["vel"] {
			opts.velocity = 100
		}
		return NoteOn{Time: opts.at, Note: p, Velocity: uint8(opts.velocity), Channel: opts.channel, Fingering: opts.finger}, nil
	case "off":
		p, err := ParsePitch(args[0])
		if err != nil {
			return nil, err
		}
		return NoteOff{Time: opts.at, Note: p, Channel: opts.channel}, nil
	case "cc":
		ctl, err := byteArg("controller", args[0])
		if err != nil {
			return nil, err
		}
		val, err := byteArg("value", args[1])
		if err != nil {
			return nil, err
		}
		return ControlChange{Time: opts.at, Channel: opts.channel, Controller: ctl, Value: val}, nil
	default:
		prog, err := byteArg("program", args[0])
		if err != nil {
			return nil, err
		}
		return ProgramChange{Time: opts.at, Channel: opts.channel, Program: prog}, nil
	}
}

// ParseNoteEntry reads an "add notes" line: pitches, then a duration
// specifier, then options, e.g. "C4 E4 G4 1/4 at=2 vel=90 ch=1 finger=1".
func ParseNoteEntry(line string) (NoteEntry, error) {
	plain, opts, err := splitOptions(line)
	if err != nil {
		return NoteEntry{}, invalid(ErrInvalidEvent, err.Error(), "Notes look like: C4 E4 G4 1/4 at=0 vel=100 ch=1")
	}
	if len(plain) < 2 {
		return NoteEntry{}, invalid(ErrInvalidEvent, "give the notes then a duration", "Notes look like: C4 E4 G4 1/4 at=0 vel=100 ch=1")
	}
	return NoteEntry{
		Notes:     strings.Join(plain[:len(plain)-1], " "),
		Duration:  plain[len(plain)-1],
		Start:     opts.at,
		Velocity:  opts.velocity,
		Channel:   opts.channel,
		Fingering: opts.finger,
	}, nil
}
