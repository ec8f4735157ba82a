package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JeanRibes/memory-recorder/shared"
	charmlog "github.com/charmbracelet/log"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestParsePartial(t *testing.T) {
	in := `
bpm: 90
tick_interval: 10ms
channels: ["1", "2"]
log_level: debug
serial:
  device: /dev/ttyUSB0
controllers:
  record: 20
  transpose_down: 21
  tempo_down: 22
`
	cfg, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BPM != 90 || cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("bpm %v tick %v", cfg.BPM, cfg.TickInterval)
	}
	if cfg.TempoPercentage != 100 || cfg.TotalOctaves != 6 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" || cfg.Serial.Baud != 115200 {
		t.Errorf("serial = %+v", cfg.Serial)
	}
	if cfg.Level() != charmlog.DebugLevel {
		t.Errorf("level = %v", cfg.Level())
	}
	b, err := cfg.Bindings()
	if err != nil {
		t.Fatal(err)
	}
	if b[22] != (shared.Message{Type: shared.Tempo, Number: -5, Boolean: true}) {
		t.Errorf("tempo_down = %+v", b[22])
	}
	if b[20].Type != shared.Record || b[21].Type != shared.Transpose || b[21].Number != -1 {
		t.Errorf("bindings = %v", b)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BPM != 120 {
		t.Errorf("bpm = %v", cfg.BPM)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"bpm: 0",
		"tempo_percentage: -5",
		"ticks_per_beat: 40000",
		"chord_window: 0",
		"sequence_gap: -1",
		"start_octave: 5\ntotal_octaves: 6",
		"log_level: loud",
		"controllers:\n  dance: 3",
		"controllers:\n  record: 200",
		"controllers:\n  record: 4\n  play: 4",
		"colour: blue",
	}
	for _, in := range tests {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q) accepted", in)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ports.Input != "serial-piano" {
		t.Errorf("input port = %q", cfg.Ports.Input)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("memory_file: song.yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MemoryFile != "song.yaml" {
		t.Errorf("memory file = %q", cfg.MemoryFile)
	}
}
