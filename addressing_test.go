package stateio

import "testing"

func allFound() Bitmap {
	var found Bitmap
	for slot := uint8(0); slot < 8; slot++ {
		found.Set(slot)
	}
	return found
}

func foundSlots(slots ...uint8) Bitmap {
	var found Bitmap
	for _, slot := range slots {
		found.Set(slot)
	}
	return found
}

func TestAddressMapBoundsFullBank(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 4, OutputsPerDevice: 16},
		Found:     allFound(),
	}

	if got := am.MinInputIndex(); got != 1 {
		t.Errorf("MinInputIndex = %d, want 1", got)
	}
	if got := am.MaxInputIndex(); got != 64 {
		t.Errorf("MaxInputIndex = %d, want 64", got)
	}
	if got := am.MinOutputIndex(); got != 65 {
		t.Errorf("MinOutputIndex = %d, want 65", got)
	}
	if got := am.MaxOutputIndex(); got != 128 {
		t.Errorf("MaxOutputIndex = %d, want 128", got)
	}
}

func TestAddressMapBoundsHalfPins(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 4, OutputsPerDevice: 8},
		Found:     foundSlots(4, 5),
	}

	if got := am.MinOutputIndex(); got != 65 {
		t.Errorf("MinOutputIndex = %d, want 65", got)
	}
	if got := am.MaxOutputIndex(); got != 80 {
		t.Errorf("MaxOutputIndex = %d, want 80", got)
	}
	// No input device answered, the input range collapses.
	if got := am.MaxInputIndex(); got != 1 {
		t.Errorf("MaxInputIndex = %d, want 1", got)
	}
}

func TestAddressMapTracksHighestPresentSlot(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 4, OutputsPerDevice: 16},
		Found:     foundSlots(0, 2, 4, 6),
	}

	// Slot 2 is the highest input device, slot 6 the highest output.
	if got := am.MaxInputIndex(); got != 48 {
		t.Errorf("MaxInputIndex = %d, want 48", got)
	}
	if got := am.MaxOutputIndex(); got != 112 {
		t.Errorf("MaxOutputIndex = %d, want 112", got)
	}
}

func TestAddressMapEmptyOutputDomain(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 8, OutputsPerDevice: 16},
		Found:     allFound(),
	}

	if got := am.MaxInputIndex(); got != 128 {
		t.Errorf("MaxInputIndex = %d, want 128", got)
	}
	if got := am.MinOutputIndex(); got != 129 {
		t.Errorf("MinOutputIndex = %d, want 129", got)
	}
	if got := am.MaxOutputIndex(); got != 129 {
		t.Errorf("MaxOutputIndex = %d, want 129", got)
	}
}

func TestInputRoundTrip(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 4, OutputsPerDevice: 16},
		Found:     allFound(),
	}

	for index := am.MinInputIndex(); index <= am.MaxInputIndex(); index++ {
		slot, pin, err := am.InputSlotPin(index)
		if err != nil {
			t.Fatalf("InputSlotPin(%d) failed: %v", index, err)
		}
		if am.Partition.IsOutputSlot(slot) {
			t.Fatalf("input index %d resolved to output slot %d", index, slot)
		}
		if got := am.InputIndex(slot, pin); got != index {
			t.Errorf("round trip %d -> (%d, %d) -> %d", index, slot, pin, got)
		}
	}
}

func TestOutputRoundTrip(t *testing.T) {
	for _, perDevice := range []uint8{8, 16} {
		am := AddressMap{
			Partition: PartitionConfig{OutputStart: 2, OutputsPerDevice: perDevice},
			Found:     allFound(),
		}

		for index := am.MinOutputIndex(); index <= am.MaxOutputIndex(); index++ {
			slot, pin, err := am.OutputSlotPin(index)
			if err != nil {
				t.Fatalf("OutputSlotPin(%d) failed: %v", index, err)
			}
			if am.Partition.IsInputSlot(slot) {
				t.Fatalf("output index %d resolved to input slot %d", index, slot)
			}
			if pin >= perDevice {
				t.Fatalf("output index %d resolved to pin %d with %d pins per device", index, pin, perDevice)
			}
			if got := am.OutputIndex(slot, pin); got != index {
				t.Errorf("round trip %d -> (%d, %d) -> %d", index, slot, pin, got)
			}
		}
	}
}

func TestSlotPinRejectsOutOfRange(t *testing.T) {
	am := AddressMap{
		Partition: PartitionConfig{OutputStart: 4, OutputsPerDevice: 16},
		Found:     allFound(),
	}

	for _, index := range []int{0, -1, 65, 1000} {
		if _, _, err := am.InputSlotPin(index); err == nil {
			t.Errorf("InputSlotPin(%d) should fail", index)
		}
	}
	for _, index := range []int{0, 64, 129, 1000} {
		if _, _, err := am.OutputSlotPin(index); err == nil {
			t.Errorf("OutputSlotPin(%d) should fail", index)
		}
	}
}

func TestDomainsNeverOverlap(t *testing.T) {
	for _, start := range []uint8{0, 2, 4, 6, 8} {
		for _, perDevice := range []uint8{8, 16} {
			am := AddressMap{
				Partition: PartitionConfig{OutputStart: start, OutputsPerDevice: perDevice},
				Found:     allFound(),
			}
			if start > 0 && am.MaxInputIndex() >= am.MinOutputIndex() {
				t.Errorf("start %d perDevice %d: input max %d reaches output min %d",
					start, perDevice, am.MaxInputIndex(), am.MinOutputIndex())
			}
		}
	}
}

func TestPartitionValidate(t *testing.T) {
	good := []PartitionConfig{
		{0, 8}, {2, 16}, {4, 8}, {6, 16}, {8, 16},
	}
	for _, pc := range good {
		if err := pc.Validate(); err != nil {
			t.Errorf("Validate(%+v) failed: %v", pc, err)
		}
	}

	bad := []PartitionConfig{
		{1, 16}, {3, 8}, {9, 16}, {4, 0}, {4, 12},
	}
	for _, pc := range bad {
		if err := pc.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", pc)
		}
	}
}

func TestIoConfigTable(t *testing.T) {
	for _, wire := range []string{"io_128_0", "io_96_32", "io_64_64", "io_32_96", "io_0_128"} {
		start, err := ParseIoConfig(wire)
		if err != nil {
			t.Fatalf("ParseIoConfig(%q) failed: %v", wire, err)
		}
		name, err := IoConfigName(start)
		if err != nil {
			t.Fatalf("IoConfigName(%d) failed: %v", start, err)
		}
		if name != wire {
			t.Errorf("round trip %q -> %d -> %q", wire, start, name)
		}
	}

	if _, err := ParseIoConfig("io_1_127"); err == nil {
		t.Error("ParseIoConfig should reject unknown enum")
	}
}
