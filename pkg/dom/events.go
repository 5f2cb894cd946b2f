package dom

import (
	"weak"

	"golang.org/x/net/html"

	"github.com/vango-dev/toyreact/internal/errors"
)

// Listener handles a dispatched event.
type Listener func(*Event)

// Event is a synchronous event travelling from its target to the root.
type Event struct {
	// Type is the native event name, e.g. "click".
	Type string

	// Target is the node the event was dispatched at.
	Target *html.Node

	// CurrentTarget is the node whose listeners are running.
	CurrentTarget *html.Node

	// Detail carries caller-supplied data, e.g. an input's value.
	Detail any

	stopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// StopPropagation prevents listeners on ancestors from running.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// AddEventListener subscribes l to events of type typ on el.
func (d *Document) AddEventListener(el *html.Node, typ string, l Listener) {
	key := weak.Make(el)
	byType := d.listeners[key]
	if byType == nil {
		byType = make(map[string][]Listener)
		d.listeners[key] = byType
		d.maybeSweep()
	}
	byType[typ] = append(byType[typ], l)

	if d.hydrate && el.Type == html.ElementNode {
		if _, ok := getAttr(el, hidAttr); !ok {
			hid := d.hids.Next()
			d.SetAttribute(el, hidAttr, hid)
			d.byHID[hid] = key
		}
	}
}

// ListenerCount returns the number of listeners of type typ on el.
func (d *Document) ListenerCount(el *html.Node, typ string) int {
	return len(d.listeners[weak.Make(el)][typ])
}

// Dispatch delivers ev to target and then to each ancestor, stopping early
// if a listener calls StopPropagation. The path is fixed before the first
// listener runs, so ancestors still hear the event when a listener detaches
// the target. Listeners run synchronously; it returns how many were
// invoked.
func (d *Document) Dispatch(target *html.Node, ev *Event) int {
	ev.Target = target
	var path []*html.Node
	for n := target; n != nil; n = n.Parent {
		path = append(path, n)
	}

	invoked := 0
	for _, n := range path {
		if ev.stopped {
			break
		}
		handlers := d.listeners[weak.Make(n)][ev.Type]
		if len(handlers) == 0 {
			continue
		}
		ev.CurrentTarget = n
		// Copy so listeners added during dispatch wait for the next event.
		for _, l := range append([]Listener(nil), handlers...) {
			l(ev)
			invoked++
		}
	}
	ev.CurrentTarget = nil
	d.logger.Debug("dom: dispatch", "type", ev.Type, "target", target.Data, "listeners", invoked)
	return invoked
}

// ElementByHID resolves a hydration id to an element attached to the document.
func (d *Document) ElementByHID(hid string) (*html.Node, error) {
	key, ok := d.byHID[hid]
	if !ok {
		return nil, errors.New("E601").WithDetailf("hid %q", hid)
	}
	el := key.Value()
	if el == nil || !d.Contains(el) {
		return nil, errors.New("E601").WithDetailf("hid %q is no longer in the document", hid)
	}
	return el, nil
}

// DispatchHID dispatches an event of type typ at the element with the given
// hydration id.
func (d *Document) DispatchHID(hid, typ string, detail any) (int, error) {
	el, err := d.ElementByHID(hid)
	if err != nil {
		return 0, err
	}
	ev := NewEvent(typ)
	ev.Detail = detail
	return d.Dispatch(el, ev), nil
}

// maybeSweep drops listener and hid entries whose nodes were collected.
// It runs whenever the listener table has doubled since the last sweep.
func (d *Document) maybeSweep() {
	if len(d.listeners) < 2*d.swept+64 {
		return
	}
	for key := range d.listeners {
		if key.Value() == nil {
			delete(d.listeners, key)
		}
	}
	for hid, key := range d.byHID {
		if key.Value() == nil {
			delete(d.byHID, hid)
		}
	}
	d.swept = len(d.listeners)
}
