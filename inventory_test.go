package stateio

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/openrack/stateio/drivers"
)

func TestDiscoverConfiguresRoles(t *testing.T) {
	bus := &drivers.MockBus{Present: []uint8{0, 5}}
	partition := PartitionConfig{OutputStart: 4, OutputsPerDevice: 16}

	var inv Inventory
	inv.Discover(bus, partition, nil, nil, log.New(&bytes.Buffer{}))

	if got := inv.Found(); got != foundSlots(0, 5) {
		t.Fatalf("Found = %08b, want slots 0 and 5", got)
	}

	// The input device idles on pull-ups.
	inputChip := bus.Expander(0)
	for pin := uint8(0); pin < drivers.PinCount; pin++ {
		if mode := inputChip.Mode(pin); mode != drivers.InputPullup {
			t.Fatalf("input pin %d mode = %d, want pull-up", pin, mode)
		}
	}

	// The output device is driven, every pin cleared at boot.
	outputChip := bus.Expander(5)
	for pin := uint8(0); pin < drivers.PinCount; pin++ {
		if mode := outputChip.Mode(pin); mode != drivers.Output {
			t.Fatalf("output pin %d mode = %d, want output", pin, mode)
		}
	}
	if len(outputChip.Writes) != drivers.PinCount {
		t.Errorf("expected %d clearing writes, got %d", drivers.PinCount, len(outputChip.Writes))
	}
	for _, write := range outputChip.Writes {
		if write.State {
			t.Errorf("pin %d cleared high", write.Pin)
		}
	}
}

func TestDiscoverAllocatesHandlersForAbsentSlots(t *testing.T) {
	bus := &drivers.MockBus{}

	var inv Inventory
	inv.Discover(bus, DefaultPartition(), nil, nil, log.New(&bytes.Buffer{}))

	for slot := range inv.Slots {
		if inv.Slots[slot].Present {
			t.Errorf("slot %d marked present on an empty bus", slot)
		}
		if inv.Slots[slot].Input == nil || inv.Slots[slot].Output == nil {
			t.Errorf("slot %d missing handlers", slot)
		}
	}
}

func TestInventoryClose(t *testing.T) {
	bus := &drivers.MockBus{Present: []uint8{2}}

	var inv Inventory
	inv.Discover(bus, DefaultPartition(), nil, nil, log.New(&bytes.Buffer{}))

	if err := inv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bus.Expander(2).Closed() {
		t.Error("chip not closed")
	}
}
