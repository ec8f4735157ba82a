package transport

import (
	"context"
	"errors"
	"io"

	"github.com/JeanRibes/memory-recorder/music"
	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"go.bug.st/serial"
)

// Decoder turns a byte stream into MIDI messages. It keeps partial
// messages between calls.
type Decoder interface {
	Feed(data []byte) []midi.Message
}

// RawDecoder parses a plain MIDI byte stream with running status. System
// exclusive and system common messages are skipped; realtime bytes may
// appear anywhere and are dropped.
type RawDecoder struct {
	status byte
	data   []byte
	sysex  bool
}

func dataLength(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	}
	return 2
}

func (d *RawDecoder) Feed(data []byte) []midi.Message {
	out := []midi.Message{}
	for _, b := range data {
		switch {
		case b >= 0xF8:
			continue
		case b == 0xF0:
			d.sysex, d.status, d.data = true, 0, d.data[:0]
			continue
		case b == 0xF7:
			d.sysex = false
			continue
		case b >= 0xF1:
			d.sysex, d.status, d.data = false, 0, d.data[:0]
			continue
		case b >= 0x80:
			d.sysex, d.status, d.data = false, b, d.data[:0]
			continue
		}
		if d.sysex || d.status == 0 {
			continue
		}
		d.data = append(d.data, b)
		if len(d.data) == dataLength(d.status) {
			msg := append(midi.Message{d.status}, d.data...)
			out = append(out, msg)
			d.data = d.data[:0]
		}
	}
	return out
}

func OpenSerial(device string, baud int, logger *charmlog.Logger) (serial.Port, error) {
	if device == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, err
		}
		if len(ports) == 0 {
			return nil, errors.New("no serial ports found")
		}
		for _, port := range ports {
			logger.Debug("found port", "device", port)
		}
		device = ports[0]
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.Warn("reset input buffer", "err", err)
	}
	logger.Info("serial port opened", "device", device, "baud", baud)
	return port, nil
}

// ReadSerial decodes r until it fails or ctx is done and forwards every
// decoded event to out. The reader is not closed.
func ReadSerial(ctx context.Context, r io.Reader, dec Decoder, out chan<- music.Event) error {
	logger := charmlog.FromContext(ctx).WithPrefix("serial")
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, msg := range dec.Feed(buf[:n]) {
			e, ok := music.FromMIDI(msg)
			if !ok {
				logger.Debug("dropped", "msg", msg.String())
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
