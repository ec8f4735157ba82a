package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/JeanRibes/memory-recorder/music"
	"github.com/JeanRibes/memory-recorder/transport"
	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// serial-piano forwards the serial keyboard to a MIDI output so any
// program, step-recorder included, can listen to it.
func main() {
	portName := flag.String("port", "/dev/ttyACM0", "serial port, e.g. /dev/ttyUSB0; empty picks the first one")
	baud := flag.Int("baud", 115200, "serial baud rate")
	keymapFile := flag.String("keymap", "keymap.txt", "path of keymap file (format: one 'keycode:note' per line); empty reads raw MIDI")
	outPort := flag.String("output", "", "MIDI output port name")
	debug := flag.Bool("debug", false, "print notes")
	flag.Parse()

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "serial-piano"})
	if *debug {
		logger.SetLevel(charmlog.DebugLevel)
	}

	var dec transport.Decoder = &transport.RawDecoder{}
	if *keymapFile != "" {
		keymap, err := transport.LoadKeymap(*keymapFile)
		if err != nil {
			logger.Fatal("keymap", "err", err)
		}
		dec = transport.NewKeymapDecoder(keymap)
	}

	port, err := transport.OpenSerial(*portName, *baud, logger)
	if err != nil {
		logger.Fatal("serial", "err", err)
	}
	defer port.Close()

	defer midi.CloseDriver()
	out, err := transport.OpenOutput(*outPort, "serial-piano", logger)
	if err != nil {
		logger.Fatal("output", "err", err)
	}
	logger.Info("output", "port", out.String())
	send, err := midi.SendTo(out)
	if err != nil {
		logger.Fatal("output", "err", err)
	}
	voice := music.NewMIDIVoice(send, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = charmlog.WithContext(ctx, logger)

	go func() {
		<-ctx.Done()
		port.Close() // unblocks the pending Read
	}()

	events := make(chan music.Event, 64)
	go func() {
		defer close(events)
		if err := transport.ReadSerial(ctx, port, dec, events); err != nil && ctx.Err() == nil {
			logger.Error("read", "err", err)
		}
	}()

	held := map[int]music.VoiceHandle{}
	for e := range events {
		logger.Debug("event", "event", e)
		switch ev := e.(type) {
		case music.NoteOn:
			if _, ok := held[ev.Note.Offset()]; ok {
				continue
			}
			held[ev.Note.Offset()] = voice.Play(ev.Note, 0, music.PlayOptions{Gain: float64(ev.Velocity) / 127, Channel: ev.Channel})
		case music.NoteOff:
			if h, ok := held[ev.Note.Offset()]; ok {
				h.Stop()
				delete(held, ev.Note.Offset())
			}
		default:
			voice.Control(ev)
		}
	}
	for _, h := range held {
		h.Stop()
	}
}
