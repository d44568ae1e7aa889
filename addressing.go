package stateio

import (
	"github.com/openrack/stateio/drivers"
	"github.com/pkg/errors"
)

// Bitmap marks which of the 8 slots answered the bus probe.
type Bitmap uint8

func (b Bitmap) Get(slot uint8) bool {
	return b&(1<<slot) != 0
}

func (b *Bitmap) Set(slot uint8) {
	*b |= 1 << slot
}

// AddressMap translates between externally visible 1-based logical
// indices and physical (slot, pin) pairs. Input and output indices
// live in disjoint ranges; the maximum of each range tracks the
// highest device actually present, so absent hardware shrinks what is
// advertised. All bounds are computed on every call, the scan is 8
// slots at most.
type AddressMap struct {
	Partition PartitionConfig
	Found     Bitmap
}

func (am AddressMap) MinInputIndex() int {
	return 1
}

func (am AddressMap) MaxInputIndex() int {
	for slot := int(am.Partition.OutputStart) - 1; slot >= 0; slot-- {
		if am.Found.Get(uint8(slot)) {
			return (slot + 1) * drivers.PinCount
		}
	}
	// No input device found.
	return am.MinInputIndex()
}

func (am AddressMap) MinOutputIndex() int {
	return int(am.Partition.OutputStart)*drivers.PinCount + 1
}

func (am AddressMap) MaxOutputIndex() int {
	for slot := drivers.DeviceCount - 1; slot >= int(am.Partition.OutputStart); slot-- {
		if am.Found.Get(uint8(slot)) {
			return (slot+1-int(am.Partition.OutputStart))*int(am.Partition.OutputsPerDevice) +
				am.MinOutputIndex() - 1
		}
	}
	// No output device found.
	return am.MinOutputIndex()
}

// InputSlotPin resolves a logical input index to its physical slot and
// pin. Out-of-range indices are a validation error, never clamped.
func (am AddressMap) InputSlotPin(index int) (slot uint8, pin uint8, err error) {
	if index < am.MinInputIndex() || index > am.MaxInputIndex() {
		err = errors.Errorf("input index %d out of range [%d, %d]",
			index, am.MinInputIndex(), am.MaxInputIndex())
		return
	}

	slot = uint8((index - 1) / drivers.PinCount)
	pin = uint8((index - 1) % drivers.PinCount)
	return
}

// OutputSlotPin resolves a logical output index to its physical slot
// and pin, honoring the configured pins-per-device.
func (am AddressMap) OutputSlotPin(index int) (slot uint8, pin uint8, err error) {
	if index < am.MinOutputIndex() || index > am.MaxOutputIndex() {
		err = errors.Errorf("output index %d out of range [%d, %d]",
			index, am.MinOutputIndex(), am.MaxOutputIndex())
		return
	}

	offset := index - am.MinOutputIndex()
	slot = uint8(offset/int(am.Partition.OutputsPerDevice)) + am.Partition.OutputStart
	pin = uint8(offset % int(am.Partition.OutputsPerDevice))
	return
}

// InputIndex is the inverse of InputSlotPin, used on the event path.
func (am AddressMap) InputIndex(slot uint8, pin uint8) int {
	return int(slot)*drivers.PinCount + int(pin) + 1
}

// OutputIndex is the inverse of OutputSlotPin.
func (am AddressMap) OutputIndex(slot uint8, pin uint8) int {
	return (int(slot)-int(am.Partition.OutputStart))*int(am.Partition.OutputsPerDevice) +
		am.MinOutputIndex() + int(pin)
}
