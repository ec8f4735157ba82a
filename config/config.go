package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JeanRibes/memory-recorder/shared"
	charmlog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type Ports struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

type Serial struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	Keymap string `yaml:"keymap"` // keymap file; empty means raw MIDI bytes
}

type Config struct {
	TempoPercentage int           `yaml:"tempo_percentage"`
	BPM             float64       `yaml:"bpm"`
	TicksPerBeat    int           `yaml:"ticks_per_beat"`
	ChordWindow     float64       `yaml:"chord_window"`
	SequenceGap     float64       `yaml:"sequence_gap"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	StartOctave     int           `yaml:"start_octave"`
	TotalOctaves    int           `yaml:"total_octaves"`
	Channels        []string      `yaml:"channels"`
	LogLevel        string        `yaml:"log_level"`
	Ports           Ports         `yaml:"ports"`
	Serial          Serial        `yaml:"serial"`
	MemoryFile      string        `yaml:"memory_file"`
	Preferences     string        `yaml:"preferences"`
	// Controllers binds command names to controller numbers of the input.
	Controllers map[string]uint8 `yaml:"controllers"`
}

func Default() Config {
	return Config{
		TempoPercentage: 100,
		BPM:             120,
		TicksPerBeat:    960,
		ChordWindow:     0.2,
		SequenceGap:     1.0,
		TickInterval:    5 * time.Millisecond,
		StartOctave:     1,
		TotalOctaves:    6,
		Channels:        []string{"Omni"},
		LogLevel:        "info",
		Ports:           Ports{Input: "serial-piano"},
		Serial:          Serial{Baud: 115200},
		Preferences:     "data.json",
		Controllers:     map[string]uint8{},
	}
}

// Parse reads YAML on top of the defaults. Keys left out keep their default.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Load parses filename. A missing file yields the defaults.
func Load(filename string) (Config, error) {
	file, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}
	defer file.Close()
	return Parse(file)
}

func (c Config) Validate() (errs error) {
	if c.TempoPercentage <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tempo_percentage must be positive, got %d", c.TempoPercentage))
	}
	if c.BPM <= 0 {
		errs = errors.Join(errs, fmt.Errorf("bpm must be positive, got %v", c.BPM))
	}
	if c.TicksPerBeat <= 0 || c.TicksPerBeat > 0x7fff {
		errs = errors.Join(errs, fmt.Errorf("ticks_per_beat out of range: %d", c.TicksPerBeat))
	}
	if c.ChordWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("chord_window must be positive, got %v", c.ChordWindow))
	}
	if c.SequenceGap < 0 {
		errs = errors.Join(errs, fmt.Errorf("sequence_gap must not be negative, got %v", c.SequenceGap))
	}
	if c.TickInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval))
	}
	if c.TotalOctaves <= 0 {
		errs = errors.Join(errs, fmt.Errorf("total_octaves must be positive, got %d", c.TotalOctaves))
	}
	if c.StartOctave < 0 || c.StartOctave+c.TotalOctaves > 10 {
		errs = errors.Join(errs, fmt.Errorf("octaves %d..%d leave the MIDI range", c.StartOctave, c.StartOctave+c.TotalOctaves-1))
	}
	if _, err := c.Bindings(); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := charmlog.ParseLevel(c.LogLevel); err != nil {
		errs = errors.Join(errs, fmt.Errorf("log_level: %w", err))
	}
	return errs
}

func (c Config) Level() charmlog.Level {
	lvl, err := charmlog.ParseLevel(c.LogLevel)
	if err != nil {
		return charmlog.InfoLevel
	}
	return lvl
}

var commands = map[string]shared.Message{
	"record":         {Type: shared.Record},
	"play":           {Type: shared.PlayPause},
	"tempo_up":       {Type: shared.Tempo, Number: 5, Boolean: true},
	"tempo_down":     {Type: shared.Tempo, Number: -5, Boolean: true},
	"next_chord":     {Type: shared.NextChord},
	"previous_chord": {Type: shared.PreviousChord},
	"reset_chord":    {Type: shared.ResetChord},
	"transpose_up":   {Type: shared.Transpose, Number: 1},
	"transpose_down": {Type: shared.Transpose, Number: -1},
	"quantize":       {Type: shared.Quantize},
	"undo":           {Type: shared.NoteUndo},
	"deselect":       {Type: shared.SelectMemory, Number: -1},
}

// Bindings resolves the controllers section into the commands the loop
// fires. Unknown names and controllers bound twice are errors.
func (c Config) Bindings() (map[uint8]shared.Message, error) {
	out := map[uint8]shared.Message{}
	var errs error
	for name, number := range c.Controllers {
		cmd, ok := commands[name]
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("controllers: unknown command %q", name))
			continue
		}
		if number > 127 {
			errs = errors.Join(errs, fmt.Errorf("controllers: %s bound to %d", name, number))
			continue
		}
		if _, dup := out[number]; dup {
			errs = errors.Join(errs, fmt.Errorf("controllers: %d bound twice", number))
			continue
		}
		out[number] = cmd
	}
	return out, errs
}
