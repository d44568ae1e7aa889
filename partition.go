package stateio

import (
	"github.com/openrack/stateio/drivers"
	"github.com/pkg/errors"
)

// PartitionConfig splits the expander bank into input and output
// devices. Slots below OutputStart carry inputs, slots at or above it
// carry outputs. Both values are loaded from persisted settings before
// hardware init and stay fixed until the next restart.
type PartitionConfig struct {
	// OutputStart is the first output slot: 0, 2, 4, 6 or 8.
	OutputStart uint8
	// OutputsPerDevice is how many pins are wired on each output
	// device, 8 or 16. Input devices always use all 16 pins.
	OutputsPerDevice uint8
}

// DefaultPartition is all inputs, full pin count.
func DefaultPartition() PartitionConfig {
	return PartitionConfig{
		OutputStart:      drivers.DeviceCount,
		OutputsPerDevice: drivers.PinCount,
	}
}

func (pc PartitionConfig) Validate() error {
	switch pc.OutputStart {
	case 0, 2, 4, 6, 8:
	default:
		return errors.Errorf("invalid output start slot: %d", pc.OutputStart)
	}

	if pc.OutputsPerDevice != 8 && pc.OutputsPerDevice != 16 {
		return errors.Errorf("invalid outputs per device: %d (must be 8 or 16)", pc.OutputsPerDevice)
	}

	return nil
}

func (pc PartitionConfig) IsInputSlot(slot uint8) bool {
	return slot < pc.OutputStart
}

func (pc PartitionConfig) IsOutputSlot(slot uint8) bool {
	return !pc.IsInputSlot(slot)
}

// ioConfigs maps the wire enum for port partitioning to the first
// output slot. The names describe inputs_outputs pin totals.
var ioConfigs = []struct {
	wire        string
	outputStart uint8
}{
	{"io_128_0", 8},
	{"io_96_32", 6},
	{"io_64_64", 4},
	{"io_32_96", 2},
	{"io_0_128", 0},
}

func ParseIoConfig(wire string) (uint8, error) {
	for _, ic := range ioConfigs {
		if ic.wire == wire {
			return ic.outputStart, nil
		}
	}
	return 0, errors.Errorf("invalid ioConfig enum: %q", wire)
}

func IoConfigName(outputStart uint8) (string, error) {
	for _, ic := range ioConfigs {
		if ic.outputStart == outputStart {
			return ic.wire, nil
		}
	}
	return "", errors.Errorf("no ioConfig name for output start %d", outputStart)
}

func ioConfigEnum() []string {
	names := make([]string, len(ioConfigs))
	for i, ic := range ioConfigs {
		names[i] = ic.wire
	}
	return names
}
