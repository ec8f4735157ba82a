package music

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/JeanRibes/memory-recorder/shared"
	charmlog "github.com/charmbracelet/log"
)

type LoopOptions struct {
	Tick         time.Duration // how often the timer queue is pumped
	TicksPerBeat int           // resolution of exported MIDI files
	// Controllers turns controller numbers of the live input into commands.
	// A bound controller fires on a non-zero value and is never sounded.
	Controllers map[uint8]shared.Message
}

// Run owns session until ctx is done. Live input, front-end commands and
// timers are all serviced from this goroutine; nothing else may touch
// session while Run is active.
func Run(ctx context.Context, cancel func(), session *Session, input <-chan Event, SinkUI chan<- shared.Message, SinkLoop <-chan shared.Message, opts LoopOptions) {
	logger := charmlog.FromContext(ctx).WithPrefix("loop")
	if opts.Tick <= 0 {
		opts.Tick = 5 * time.Millisecond
	}
	if opts.TicksPerBeat <= 0 {
		opts.TicksPerBeat = 960
	}
	logger.Info("start", "tick", opts.Tick)

	notify := func(msg shared.Message) {
		select {
		case SinkUI <- msg:
		case <-ctx.Done():
		}
	}
	status := func() {
		notify(shared.Message{Type: shared.StatusNotify, Status: session.Status()})
	}
	fail := func(err error) {
		logger.Error(err)
		notify(shared.Message{Type: shared.Error, String: Issue(err)})
	}

	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()
	status()

loopchan:
	for {
		select {
		case <-ctx.Done():
			logger.Debug("context Done")
			break loopchan
		case <-ticker.C:
			if session.Pump() > 0 {
				status()
			}
		case e, ok := <-input:
			if !ok {
				logger.Warn("input closed")
				input = nil
				continue
			}
			if cc, ok := e.(ControlChange); ok {
				if bound, ok := opts.Controllers[cc.Controller]; ok {
					if cc.Value > 0 {
						logger.Debug("controller", "number", cc.Controller, "command", bound.Type)
						if err := handle(session, bound, opts, logger); err != nil {
							fail(err)
						}
						status()
					}
					continue
				}
			}
			session.Input(WithTime(e, 0))
			status()
		case msg := <-SinkLoop:
			if err := handle(session, msg, opts, logger); err != nil {
				fail(err)
			}
			if msg.Type == shared.Quit {
				cancel()
				break loopchan
			}
			status()
		}
	}
	session.Stop()
	logger.Info("stop")
}

func handle(session *Session, msg shared.Message, opts LoopOptions, logger *charmlog.Logger) error {
	switch msg.Type {
	case shared.Quit:
		logger.Debug("quit")
	case shared.Record:
		if session.Recording() {
			seq, err := session.StopRecording()
			if err != nil {
				return err
			}
			if seq != nil {
				logger.Info("take stored", "memory", seq.Name, "events", len(seq.Events))
			}
			return nil
		}
		if !session.StartRecording() {
			logger.Warn("cannot record now")
		}
	case shared.PlayPause:
		if session.Playing() {
			session.Stop()
			logger.Info("stop playing")
			return nil
		}
		if _, err := session.Play(); err != nil {
			return err
		}
		logger.Info("start playing", "tempo", session.Tempo(), "batch", len(session.Batch()))
	case shared.Loop:
		session.SetLooping(msg.Boolean)
	case shared.Tempo:
		if !msg.Boolean {
			return session.SetTempo(msg.Number)
		}
		// relative step; steps commute, so their arrival order is irrelevant
		next := session.Tempo() + msg.Number
		if next <= 0 {
			logger.Debug("tempo step ignored", "tempo", session.Tempo(), "step", msg.Number)
			return nil
		}
		return session.SetTempo(next)
	case shared.ChannelToggle:
		ch, ok := ParseChannel(msg.String)
		if !ok {
			logger.Warn("unknown channel", "channel", msg.String)
			return nil
		}
		session.ToggleChannel(ch)
	case shared.SelectMemory:
		return session.Select(msg.Number)
	case shared.NextChord:
		if c, ok := session.NextChord(); ok {
			logger.Debug("chord", "notes", c.String())
		}
	case shared.PreviousChord:
		if c, ok := session.PreviousChord(); ok {
			logger.Debug("chord", "notes", c.String())
		}
	case shared.ResetChord:
		session.ResetChord()
	case shared.Transpose:
		return session.Transpose(msg.Number)
	case shared.Quantize:
		logger.Printf("quantize at %.0f BPM", session.BPM)
		return session.Snap()
	case shared.StateImport:
		logger.Debug("loading state", "file", msg.String)
		return session.Open(msg.String)
	case shared.StateExport:
		fileName := msg.String
		if filepath.Ext(fileName) == "" {
			fileName += ".json"
		}
		logger.Info("saving to", "filename", fileName)
		return session.Save(fileName)
	case shared.ExportMIDI:
		fileName := msg.String
		if !strings.HasSuffix(fileName, ".mid") {
			fileName += ".mid"
		}
		seqs := session.Memories()
		if msg.Boolean {
			seqs = session.Batch()
		}
		logger.Info("export", "filename", fileName, "memories", len(seqs))
		return ExportSMF(fileName, seqs, session.BPM, opts.TicksPerBeat)
	case shared.ImportMIDI:
		seqs, err := ImportSMF(msg.String, session.BPM)
		if err != nil {
			return err
		}
		for _, seq := range seqs {
			session.Commit(seq.Name, seq.Events)
		}
		logger.Info("imported", "file", msg.String, "memories", len(seqs))
	case shared.MemoryRename:
		return session.Rename(msg.Number, msg.String)
	case shared.MemoryRemove:
		return session.Remove(msg.Number)
	case shared.MemoryBatch:
		return session.SetBatch(msg.Number, msg.Boolean)
	case shared.MemoryMove:
		return session.Move(msg.Number, msg.Number2)
	case shared.NoteUndo:
		if err := session.UndoNote(); err != nil {
			logger.Debug("undo", "err", err)
		}
	case shared.ClearState:
		session.Clear()
	case shared.NoteAdd:
		entry, err := ParseNoteEntry(msg.String)
		if err != nil {
			return err
		}
		if entry.Channel == "" {
			entry.Channel = session.RecordChannel()
		}
		return session.AddNotes(entry)
	case shared.EventAdd:
		e, err := parseRow(session, msg.String)
		if err != nil {
			return err
		}
		return session.AddEvent(e)
	case shared.EventDelete:
		return session.DeleteEvent(msg.Number)
	case shared.EventReplace:
		e, err := parseRow(session, msg.String)
		if err != nil {
			return err
		}
		return session.ReplaceEvent(msg.Number, e)
	case shared.MemoryAnnotate:
		return session.SetAnnotation(msg.Number, msg.String)
	default:
		logger.Printf("unknown message type: %#v", msg.Type)
	}
	return nil
}

// parseRow reads an event line; rows without ch= go to the record channel.
func parseRow(session *Session, line string) (Event, error) {
	e, err := ParseEventLine(line)
	if err != nil {
		return nil, err
	}
	if WithChannel(e, "") == e { // no ch= given
		e = WithChannel(e, session.RecordChannel())
	}
	return e, nil
}
