// Package input classifies raw expander pin transitions into debounced,
// semantically typed events (clicks, holds, contact changes and so on).
package input

import "time"

// Type selects how a pin is monitored and which events it can emit.
type Type uint8

const (
	Button Type = iota
	Contact
	Press
	Rotary
	Security
	Switch
	Toggle
)

// Event is a classified transition on a single pin.
type Event uint8

const (
	SingleClick Event = iota + 1
	DoubleClick
	TripleClick
	QuadClick
	PentaClick
	HoldEvent
	// LowEvent/HighEvent carry the debounced level for level-style
	// types (contact, switch, rotary, security).
	LowEvent
	HighEvent
	PressEvent
	ToggleEvent
	// Security loop states beyond the plain open/closed pair. Kept in
	// the enum for wire compatibility; detecting them needs a monitored
	// resistor ladder which plain expander pins cannot read.
	TamperEvent
	ShortEvent
	FaultEvent
)

const (
	debounceTime  = 50 * time.Millisecond
	multiClickGap = 200 * time.Millisecond
	holdTime      = 500 * time.Millisecond
	maxClicks     = 5
)

// Callback receives every classified event: which slot and pin fired,
// the pin's configured type and the event itself.
type Callback func(slot uint8, pin uint8, typ Type, event Event)

type pinState struct {
	typ      Type
	invert   bool
	disabled bool

	candidate      bool
	candidateSince time.Time
	level          bool
	settled        bool

	clicks     uint8
	pressedAt  time.Time
	releasedAt time.Time
	holding    bool
	nextHold   time.Time
}

// Handler tracks the 16 pins of one expander slot. Not safe for
// concurrent use, all calls must come from the polling loop.
type Handler struct {
	slot     uint8
	callback Callback
	pins     [16]pinState

	now func() time.Time
}

// New returns a handler for one slot with every pin set to defaultType.
func New(slot uint8, defaultType Type, callback Callback) *Handler {
	h := &Handler{
		slot:     slot,
		callback: callback,
		now:      time.Now,
	}
	for pin := range h.pins {
		h.pins[pin].typ = defaultType
	}
	return h
}

func (h *Handler) SetType(pin uint8, typ Type) {
	if pin >= 16 {
		return
	}
	h.pins[pin].typ = typ
	// A type change restarts classification for the pin.
	h.pins[pin].clicks = 0
	h.pins[pin].holding = false
}

func (h *Handler) SetInvert(pin uint8, invert bool) {
	if pin >= 16 {
		return
	}
	h.pins[pin].invert = invert
}

func (h *Handler) SetDisabled(pin uint8, disabled bool) {
	if pin >= 16 {
		return
	}
	h.pins[pin].disabled = disabled
}

func (h *Handler) Type(pin uint8) Type {
	if pin >= 16 {
		return Switch
	}
	return h.pins[pin].typ
}

// Process consumes one 16-bit register snapshot, bit n holding the raw
// level of pin n. Inputs idle high (pull-ups), a low level is active.
func (h *Handler) Process(value uint16) {
	now := h.now()

	for pin := uint8(0); pin < 16; pin++ {
		raw := value&(1<<pin) != 0
		if h.pins[pin].invert {
			raw = !raw
		}
		h.processPin(pin, raw, now)
	}
}

func (h *Handler) processPin(pin uint8, raw bool, now time.Time) {
	ps := &h.pins[pin]

	if !ps.settled {
		// First snapshot seeds the debounce state without events.
		ps.level = raw
		ps.candidate = raw
		ps.settled = true
		return
	}

	if raw != ps.candidate {
		ps.candidate = raw
		ps.candidateSince = now
	}

	if ps.candidate != ps.level && now.Sub(ps.candidateSince) >= debounceTime {
		ps.level = ps.candidate
		h.transition(pin, ps, now)
	}

	if ps.typ == Button {
		h.buttonIdle(pin, ps, now)
	}
}

// transition handles a debounced level change.
func (h *Handler) transition(pin uint8, ps *pinState, now time.Time) {
	active := !ps.level

	switch ps.typ {
	case Button:
		if active {
			ps.pressedAt = now
			ps.nextHold = now.Add(holdTime)
			if ps.clicks < maxClicks {
				ps.clicks++
			}
		} else {
			ps.releasedAt = now
			if ps.holding {
				ps.holding = false
				ps.clicks = 0
			}
		}
	case Press:
		if active {
			h.emit(pin, ps, PressEvent)
		}
	case Toggle:
		if active {
			h.emit(pin, ps, ToggleEvent)
		}
	default:
		// Level types report every debounced edge.
		if active {
			h.emit(pin, ps, LowEvent)
		} else {
			h.emit(pin, ps, HighEvent)
		}
	}
}

// buttonIdle runs the between-edges button timing: hold detection while
// pressed, multi-click flush once the gap expires.
func (h *Handler) buttonIdle(pin uint8, ps *pinState, now time.Time) {
	active := !ps.level

	if active && ps.clicks > 0 && !now.Before(ps.nextHold) {
		ps.holding = true
		ps.nextHold = now.Add(holdTime)
		h.emit(pin, ps, HoldEvent)
		return
	}

	if !active && ps.clicks > 0 && !ps.holding && now.Sub(ps.releasedAt) >= multiClickGap {
		h.emit(pin, ps, Event(ps.clicks))
		ps.clicks = 0
	}
}

func (h *Handler) emit(pin uint8, ps *pinState, event Event) {
	if ps.disabled || h.callback == nil {
		return
	}
	h.callback(h.slot, pin, ps.typ, event)
}
