// Package output drives relay-style expander pins: immediate relays,
// interlock-aware motor pairs and auto-off timers. The handler decides
// when a transition happens and reports it through its callback, the
// caller owns the actual hardware write.
package output

import "time"

// Type selects how an output pin behaves.
type Type uint8

const (
	Relay Type = iota
	Motor
	Timer
)

// State is the commanded level of an output pin.
type State uint8

const (
	Off State = iota
	On
)

// DefaultTimerSeconds is the on-duration a timer pin starts with and
// returns to when its timer is reset.
const DefaultTimerSeconds = 60

// motorLockout is the pause enforced between dropping an interlocked
// motor pin and energizing its partner.
const motorLockout = time.Second

// Callback receives every output transition the handler decides on.
type Callback func(slot uint8, pin uint8, typ Type, state State)

type pinConfig struct {
	typ       Type
	timerSecs int
	interlock uint8
	state     State
	offAt     time.Time
	onAt      time.Time
	pendingOn bool
}

// Handler tracks the 16 output pins of one expander slot. Not safe for
// concurrent use, all calls must come from the polling loop.
type Handler struct {
	slot     uint8
	callback Callback
	pins     [16]pinConfig

	now func() time.Time
}

// New returns a handler for one slot with every pin set to defaultType,
// the default timer duration and no interlock (each pin locked to
// itself).
func New(slot uint8, defaultType Type, callback Callback) *Handler {
	h := &Handler{
		slot:     slot,
		callback: callback,
		now:      time.Now,
	}
	for pin := range h.pins {
		h.pins[pin].typ = defaultType
		h.pins[pin].timerSecs = DefaultTimerSeconds
		h.pins[pin].interlock = uint8(pin)
	}
	return h
}

func (h *Handler) SetType(pin uint8, typ Type) {
	if pin >= 16 {
		return
	}
	h.pins[pin].typ = typ
}

func (h *Handler) Type(pin uint8) Type {
	if pin >= 16 {
		return Relay
	}
	return h.pins[pin].typ
}

// SetTimer sets the on-duration for a timer pin, in seconds.
func (h *Handler) SetTimer(pin uint8, seconds int) {
	if pin >= 16 || seconds < 1 {
		return
	}
	h.pins[pin].timerSecs = seconds
}

func (h *Handler) TimerSeconds(pin uint8) int {
	if pin >= 16 {
		return 0
	}
	return h.pins[pin].timerSecs
}

// SetInterlock pairs a pin with another pin on the same slot. Locking a
// pin to itself clears the interlock.
func (h *Handler) SetInterlock(pin uint8, with uint8) {
	if pin >= 16 || with >= 16 {
		return
	}
	h.pins[pin].interlock = with
}

func (h *Handler) Interlock(pin uint8) uint8 {
	if pin >= 16 {
		return pin
	}
	return h.pins[pin].interlock
}

func (h *Handler) State(pin uint8) State {
	if pin >= 16 {
		return Off
	}
	return h.pins[pin].state
}

// HandleCommand requests a state change on a pin. Interlocked partners
// are forced off first; motor pins then wait out the lockout before
// energizing.
func (h *Handler) HandleCommand(pin uint8, state State) {
	if pin >= 16 {
		return
	}
	now := h.now()
	pc := &h.pins[pin]

	if state == Off {
		pc.pendingOn = false
		pc.offAt = time.Time{}
		h.apply(pin, Off)
		return
	}

	partnerDropped := false
	if partner := pc.interlock; partner != pin {
		pp := &h.pins[partner]
		if pp.state == On || pp.pendingOn {
			pp.pendingOn = false
			pp.offAt = time.Time{}
			h.apply(partner, Off)
			partnerDropped = true
		}
	}

	if pc.typ == Motor && partnerDropped {
		pc.pendingOn = true
		pc.onAt = now.Add(motorLockout)
		return
	}

	h.turnOn(pin, now)
}

// Process advances pending timers and emits any transitions that came
// due. Call once per polling cycle.
func (h *Handler) Process() {
	now := h.now()

	for pin := uint8(0); pin < 16; pin++ {
		pc := &h.pins[pin]

		if pc.pendingOn && !now.Before(pc.onAt) {
			pc.pendingOn = false
			h.turnOn(pin, now)
		}

		if !pc.offAt.IsZero() && !now.Before(pc.offAt) {
			pc.offAt = time.Time{}
			h.apply(pin, Off)
		}
	}
}

func (h *Handler) turnOn(pin uint8, now time.Time) {
	pc := &h.pins[pin]
	if pc.typ == Timer {
		pc.offAt = now.Add(time.Duration(pc.timerSecs) * time.Second)
	}
	h.apply(pin, On)
}

func (h *Handler) apply(pin uint8, state State) {
	pc := &h.pins[pin]
	pc.state = state
	if h.callback != nil {
		h.callback(h.slot, pin, pc.typ, state)
	}
}
