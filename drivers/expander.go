package drivers

// PinCount is the number of physical I/O pins on every expander chip.
const PinCount = 16

// DeviceCount is how many expanders fit on one I2C bus (0x20..0x27).
const DeviceCount = 8

// BaseAddress is the I2C address of device number 0.
const BaseAddress = 0x20

type PinMode int

const (
	Input PinMode = iota
	InputPullup
	Output
)

// Expander is one 16-pin I/O expander chip.
type Expander interface {
	PinMode(pin uint8, mode PinMode) error
	DigitalWrite(pin uint8, state bool) error
	DigitalRead(pin uint8) (bool, error)
	// ReadAll returns the state of all 16 pins as one register snapshot,
	// bit n holding pin n.
	ReadAll() (uint16, error)
	Close() error
}

// Bus opens expander chips by device number (0..7). Opening a device
// number with no chip behind it must fail, so callers can use Open as
// a presence probe.
type Bus interface {
	Open(dev uint8) (Expander, error)
}
