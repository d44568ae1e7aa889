package stateio

import (
	"github.com/charmbracelet/log"

	"github.com/openrack/stateio/drivers"
	"github.com/openrack/stateio/input"
	"github.com/openrack/stateio/output"
)

// Slot is one of the 8 fixed expander addresses. Handlers are
// allocated for every slot, present or not, so the rest of the code
// never nil-checks them; absent slots simply never raise events.
type Slot struct {
	Present bool
	Chip    drivers.Expander
	Input   *input.Handler
	Output  *output.Handler
}

// Inventory holds the result of the boot-time bus scan. Populated once
// by Discover, immutable afterwards - there is no hot-swap.
type Inventory struct {
	Slots [drivers.DeviceCount]Slot
}

func (inv *Inventory) Found() Bitmap {
	var found Bitmap
	for slot := uint8(0); slot < drivers.DeviceCount; slot++ {
		if inv.Slots[slot].Present {
			found.Set(slot)
		}
	}
	return found
}

// Discover probes every expander address and allocates both handlers
// per slot. Present chips are configured for their partition role:
// input devices get pull-up inputs on all 16 pins, output devices get
// all controlled pins driven low. A failed probe is not fatal, the
// slot just stays absent.
func (inv *Inventory) Discover(bus drivers.Bus, partition PartitionConfig,
	onInput input.Callback, onOutput output.Callback, logger *log.Logger) {

	for slot := uint8(0); slot < drivers.DeviceCount; slot++ {
		inv.Slots[slot].Input = input.New(slot, input.Switch, onInput)
		inv.Slots[slot].Output = output.New(slot, output.Relay, onOutput)

		chip, err := bus.Open(slot)
		if err != nil {
			logger.Info("no expander found", "slot", slot, "address", drivers.BaseAddress+int(slot))
			continue
		}

		inv.Slots[slot].Present = true
		inv.Slots[slot].Chip = chip

		if partition.IsInputSlot(slot) {
			for pin := uint8(0); pin < drivers.PinCount; pin++ {
				if err := chip.PinMode(pin, drivers.InputPullup); err != nil {
					logger.Error("failed to configure input pin", "slot", slot, "pin", pin, "err", err)
				}
			}
			logger.Info("expander configured", "slot", slot, "role", "input")
		} else {
			for pin := uint8(0); pin < drivers.PinCount; pin++ {
				if err := chip.PinMode(pin, drivers.Output); err != nil {
					logger.Error("failed to configure output pin", "slot", slot, "pin", pin, "err", err)
					continue
				}
				if err := chip.DigitalWrite(pin, false); err != nil {
					logger.Error("failed to clear output pin", "slot", slot, "pin", pin, "err", err)
				}
			}
			logger.Info("expander configured", "slot", slot, "role", "output")
		}
	}
}

// Close releases every open chip handle, collecting errors the way the
// bus scan collects chips.
func (inv *Inventory) Close() (err error) {
	for slot := range inv.Slots {
		if inv.Slots[slot].Chip == nil {
			continue
		}
		if closeErr := inv.Slots[slot].Chip.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return
}
