package drivers

import (
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

// McpBus opens MCP23017 chips on a single Linux I2C bus.
type McpBus struct {
	BusNo uint8
}

func (mb *McpBus) Open(dev uint8) (Expander, error) {
	device, err := mcp23017.Open(mb.BusNo, dev)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mcp23017 device %d on bus %d", dev, mb.BusNo)
	}

	// Opening the bus handle succeeds even with nothing behind the
	// address, a read is the actual probe transaction.
	_, err = device.DigitalRead(0)
	if err != nil {
		device.Close()
		return nil, errors.Wrapf(err, "no response from mcp23017 device %d", dev)
	}

	return &McpExpander{device: device}, nil
}

// McpExpander wraps one MCP23017 chip handle.
type McpExpander struct {
	device *mcp23017.Device
}

func (me *McpExpander) PinMode(pin uint8, mode PinMode) (err error) {
	switch mode {
	case Output:
		err = me.device.PinMode(pin, mcp23017.OUTPUT)
	default:
		err = me.device.PinMode(pin, mcp23017.INPUT)
		if err != nil {
			return
		}
		if mode == InputPullup {
			err = me.device.SetPullUp(pin, true)
		}
	}

	return
}

func (me *McpExpander) DigitalWrite(pin uint8, state bool) error {
	return me.device.DigitalWrite(pin, mcp23017.PinLevel(state))
}

func (me *McpExpander) DigitalRead(pin uint8) (state bool, err error) {
	rawState, err := me.device.DigitalRead(pin)
	if err != nil {
		return
	}

	state = bool(rawState)
	return
}

func (me *McpExpander) ReadAll() (value uint16, err error) {
	// The chip library exposes per-pin reads only, assemble the
	// register snapshot pin by pin.
	for pin := uint8(0); pin < PinCount; pin++ {
		state, readErr := me.device.DigitalRead(pin)
		if readErr != nil {
			err = errors.Wrapf(readErr, "failed reading pin %d", pin)
			return
		}
		if state {
			value |= 1 << pin
		}
	}

	return
}

func (me *McpExpander) Close() error {
	return me.device.Close()
}
