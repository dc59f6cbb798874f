package engine

import (
	"context"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

// Intent is an operator request decoded from the keyboard.
type Intent int

const (
	IntentNone Intent = iota
	IntentUp
	IntentDown
	IntentAddWorker
	IntentRemoveWorker
	IntentReload
	IntentReloadAll
	IntentTerminate
	IntentQuit
)

var intentNames = map[Intent]string{
	IntentNone:         "none",
	IntentUp:           "up",
	IntentDown:         "down",
	IntentAddWorker:    "add-worker",
	IntentRemoveWorker: "remove-worker",
	IntentReload:       "reload-master",
	IntentReloadAll:    "reload-all",
	IntentTerminate:    "terminate-master",
	IntentQuit:         "quit",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "unknown"
}

// Signals reports whether the intent sends process-control signals.
func (i Intent) Signals() bool {
	switch i {
	case IntentAddWorker, IntentRemoveWorker, IntentReload, IntentReloadAll, IntentTerminate:
		return true
	}
	return false
}

// Dispatch applies one intent and reports whether it was acted on. Signal
// intents other than reload-all need a live selection. Local state is
// updated as soon as the signal is issued; delivery is never confirmed.
// IntentQuit and IntentNone are left to the caller and report false.
func (e *Engine) Dispatch(ctx context.Context, intent Intent) bool {
	switch intent {
	case IntentUp:
		e.Advance(true)
		return true
	case IntentDown:
		e.Advance(false)
		return true
	case IntentReloadAll:
		return e.reloadAll(ctx)
	case IntentAddWorker, IntentRemoveWorker, IntentReload, IntentTerminate:
	default:
		return false
	}

	id, ok := e.Selected()
	if !ok {
		e.log.Debug("intent ignored without selection", "intent", intent)
		return false
	}
	g := e.groups[id]

	switch intent {
	case IntentAddWorker:
		e.send(ctx, model.SignalAddWorker, id)
		g.Workers = model.Pending(0)
	case IntentRemoveWorker:
		if g.Workers.IsPending() || g.Workers.N() <= 1 {
			e.log.Debug("remove-worker refused", "pid", id, "workers", g.Workers)
			return false
		}
		e.send(ctx, model.SignalRemoveWorker, id)
		g.Workers = model.Pending(0)
	case IntentReload:
		e.send(ctx, model.SignalReload, id)
		e.remove(id)
	case IntentTerminate:
		e.send(ctx, model.SignalTerminate, id)
		e.remove(id)
	}
	return true
}

func (e *Engine) reloadAll(ctx context.Context) bool {
	ids := e.ids(false)
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		e.send(ctx, model.SignalReload, id)
		e.remove(id)
	}
	return true
}

// send issues a signal and logs the outcome; failures do not change what the
// caller does next.
func (e *Engine) send(ctx context.Context, sig model.Signal, pid int) {
	if err := e.sig.Signal(ctx, sig, pid); err != nil {
		e.log.Warn("signal failed", "signal", sig, "pid", pid, "err", err)
		return
	}
	e.log.Info("signal sent", "signal", sig, "pid", pid)
}
