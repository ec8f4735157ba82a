package transport

import (
	"context"

	"github.com/JeanRibes/memory-recorder/music"
	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// OpenInput finds the input port called name, or opens a virtual input
// called virtual when there is none.
func OpenInput(name, virtual string, logger *charmlog.Logger) (drivers.In, error) {
	in, err := midi.FindInPort(name)
	if err == nil {
		return in, nil
	}
	logger.Warn("can't find input, opening one", "input", name, "virtual", virtual)
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, err
	}
	return drv.OpenVirtualIn(virtual)
}

func OpenOutput(name, virtual string, logger *charmlog.Logger) (drivers.Out, error) {
	out, err := midi.FindOutPort(name)
	if err == nil {
		return out, nil
	}
	logger.Warn("can't find output, opening one", "output", name, "virtual", virtual)
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, err
	}
	return drv.OpenVirtualOut(virtual)
}

// Listen forwards every note, controller and program message from in to
// out until the returned stop is called. The gomidi callback runs on the
// driver's goroutine, so events are handed over on the channel only.
func Listen(ctx context.Context, in drivers.In, out chan<- music.Event) (stop func(), err error) {
	logger := charmlog.FromContext(ctx).WithPrefix("midi")
	return midi.ListenTo(in, func(msg midi.Message, absms int32) {
		e, ok := music.FromMIDI(msg)
		if !ok {
			return
		}
		select {
		case out <- e:
		case <-ctx.Done():
		default:
			logger.Warn("input dropped", "msg", msg.String(), "at", absms)
		}
	})
}
