package ui

import "time"

// Op names a render operation reported to an Observer.
type Op string

const (
	OpMount    Op = "mount"
	OpRender   Op = "render"
	OpRerender Op = "rerender"
	OpSetState Op = "setState"
)

// Observer is notified when a render operation starts; the returned
// function is called with the operation's result when it finishes.
type Observer interface {
	Begin(op Op, component string) func(err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op Op, component string) func(err error)

// Begin implements Observer.
func (f ObserverFunc) Begin(op Op, component string) func(err error) {
	return f(op, component)
}

// Observers fans out to several observers. Finish callbacks run in reverse
// order so nested spans close cleanly.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(op Op, component string) func(error) {
		dones := make([]func(error), 0, len(obs))
		for _, o := range obs {
			if o != nil {
				dones = append(dones, o.Begin(op, component))
			}
		}
		return func(err error) {
			for i := len(dones) - 1; i >= 0; i-- {
				dones[i](err)
			}
		}
	})
}

// observe starts op and returns its completion callback. A nil Builder
// observes nothing.
func (b *Builder) observe(op Op, component string) func(error) {
	if b == nil {
		return func(error) {}
	}
	start := time.Now()
	var end func(error)
	if b.observer != nil {
		end = b.observer.Begin(op, component)
	}
	return func(err error) {
		if end != nil {
			end(err)
		}
		if err != nil {
			b.logger.Debug("ui: "+string(op)+" failed", "component", component, "error", err)
			return
		}
		b.logger.Debug("ui: "+string(op), "component", component, "duration", time.Since(start))
	}
}
