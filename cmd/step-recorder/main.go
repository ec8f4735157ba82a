package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/JeanRibes/memory-recorder/config"
	"github.com/JeanRibes/memory-recorder/music"
	. "github.com/JeanRibes/memory-recorder/shared"
	"github.com/JeanRibes/memory-recorder/transport"
	"github.com/JeanRibes/memory-recorder/ui"
	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func main() {
	configFile := flag.String("config", "config.yaml", "config file")
	inPort := flag.String("input", "", "MIDI input port name (overrides ports.input)")
	outPort := flag.String("output", "", "MIDI output port name (overrides ports.output)")
	serialDevice := flag.String("serial", "", "read the keyboard from this serial device instead of a MIDI port")
	fileName := flag.String("file", "", "memory file to load (overrides memory_file)")
	logFile := flag.String("log", "step-recorder.log", "log file, the terminal belongs to the UI")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *inPort != "" {
		cfg.Ports.Input = *inPort
	}
	if *outPort != "" {
		cfg.Ports.Output = *outPort
	}
	if *serialDevice != "" {
		cfg.Serial.Device = *serialDevice
	}
	if *fileName != "" {
		cfg.MemoryFile = *fileName
	}

	out, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()
	logger := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = charmlog.WithContext(ctx, logger)
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt)
	defer stopSignals()

	if err := run(ctx, cancel, cfg, logger); err != nil {
		logger.Error(err)
		fmt.Fprintln(os.Stderr, "Error:", music.Issue(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel func(), cfg config.Config, logger *charmlog.Logger) error {
	defer midi.CloseDriver()

	outP, err := transport.OpenOutput(cfg.Ports.Output, "step-recorder", logger)
	if err != nil {
		return err
	}
	logger.Info("connecting to", "output", outP.String())
	send, err := midi.SendTo(outP)
	if err != nil {
		return err
	}

	session := music.NewSession(music.Options{
		Voice:       music.NewMIDIVoice(send, logger.WithPrefix("voice")),
		Logger:      logger.WithPrefix("session"),
		Range:       music.Range{StartOctave: cfg.StartOctave, TotalOctaves: cfg.TotalOctaves},
		ChordWindow: cfg.ChordWindow,
		Gap:         cfg.SequenceGap,
		Tempo:       cfg.TempoPercentage,
		BPM:         cfg.BPM,
	})
	chs := music.ChannelSet{}
	for _, name := range cfg.Channels {
		if ch, ok := music.ParseChannel(name); ok {
			chs[ch] = true
		}
	}
	session.SetChannels(chs)
	if cfg.MemoryFile != "" {
		if err := session.Open(cfg.MemoryFile); err != nil {
			logger.Warn("memory file not loaded", "file", cfg.MemoryFile, "err", err)
		}
	}

	input := make(chan music.Event, 64)
	if cfg.Serial.Device != "" {
		port, err := transport.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, logger)
		if err != nil {
			return err
		}
		defer port.Close()
		var dec transport.Decoder = &transport.RawDecoder{}
		if cfg.Serial.Keymap != "" {
			keymap, err := transport.LoadKeymap(cfg.Serial.Keymap)
			if err != nil {
				return err
			}
			dec = transport.NewKeymapDecoder(keymap)
		}
		go func() {
			if err := transport.ReadSerial(ctx, port, dec, input); err != nil && ctx.Err() == nil {
				logger.Error("serial", "err", err)
			}
		}()
	} else {
		inP, err := transport.OpenInput(cfg.Ports.Input, "step-recorder", logger)
		if err != nil {
			return err
		}
		logger.Info("connecting to", "input", inP.String())
		stop, err := transport.Listen(ctx, inP, input)
		if err != nil {
			return err
		}
		defer stop()
	}

	bindings, _ := cfg.Bindings()
	SinkUI := make(chan Message, 16)
	SinkLoop := make(chan Message, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		music.Run(ctx, cancel, session, input, SinkUI, SinkLoop, music.LoopOptions{
			Tick:         cfg.TickInterval,
			TicksPerBeat: cfg.TicksPerBeat,
			Controllers:  bindings,
		})
	}()

	prefs, err := config.LoadPreferences(cfg.Preferences)
	if err != nil {
		logger.Warn("preferences", "err", err)
	}
	prefs.Prune()
	program := tea.NewProgram(ui.NewModel(SinkUI, SinkLoop, prefs, logger.WithPrefix("ui")), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-done
		return err
	}
	cancel()
	<-done
	return nil
}
