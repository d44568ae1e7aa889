package drivers

import (
	"fmt"
	"sync"
)

// MockBus serves MockExpander chips for the device numbers listed in
// Present, everything else fails the way an empty I2C address would.
type MockBus struct {
	Present []uint8

	expanders map[uint8]*MockExpander
	mu        sync.Mutex
}

func (mb *MockBus) Open(dev uint8) (Expander, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	for _, present := range mb.Present {
		if present != dev {
			continue
		}
		if mb.expanders == nil {
			mb.expanders = make(map[uint8]*MockExpander)
		}
		if _, ok := mb.expanders[dev]; !ok {
			mb.expanders[dev] = &MockExpander{}
		}
		return mb.expanders[dev], nil
	}

	return nil, fmt.Errorf("no device %d on mock bus", dev)
}

// Expander returns the mock chip behind a device number, for test
// inspection and input injection.
func (mb *MockBus) Expander(dev uint8) *MockExpander {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.expanders[dev]
}

type MockWrite struct {
	Pin   uint8
	State bool
}

// MockExpander keeps pin state in a 16-bit register and records every
// write for assertions.
type MockExpander struct {
	pins   uint16
	modes  [PinCount]PinMode
	Writes []MockWrite
	closed bool
}

func (me *MockExpander) PinMode(pin uint8, mode PinMode) error {
	if pin >= PinCount {
		return fmt.Errorf("pin %d out of range", pin)
	}
	me.modes[pin] = mode
	return nil
}

func (me *MockExpander) Mode(pin uint8) PinMode {
	return me.modes[pin]
}

func (me *MockExpander) DigitalWrite(pin uint8, state bool) error {
	if pin >= PinCount {
		return fmt.Errorf("pin %d out of range", pin)
	}
	if state {
		me.pins |= 1 << pin
	} else {
		me.pins &^= 1 << pin
	}
	me.Writes = append(me.Writes, MockWrite{Pin: pin, State: state})
	return nil
}

func (me *MockExpander) DigitalRead(pin uint8) (bool, error) {
	if pin >= PinCount {
		return false, fmt.Errorf("pin %d out of range", pin)
	}
	return me.pins&(1<<pin) != 0, nil
}

func (me *MockExpander) ReadAll() (uint16, error) {
	return me.pins, nil
}

// SetPin drives an input pin from the outside, as the wired hardware
// would.
func (me *MockExpander) SetPin(pin uint8, state bool) {
	if state {
		me.pins |= 1 << pin
	} else {
		me.pins &^= 1 << pin
	}
}

// SetAll replaces the whole input register in one go.
func (me *MockExpander) SetAll(value uint16) {
	me.pins = value
}

func (me *MockExpander) Close() error {
	me.closed = true
	return nil
}

func (me *MockExpander) Closed() bool {
	return me.closed
}
