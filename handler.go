package stateio

import (
	"encoding/json"

	"github.com/openrack/stateio/output"
)

// Config and command payloads are JSON objects with optional top-level
// keys, processed in a fixed order. Every entry is validated and
// applied independently: a malformed entry is logged and skipped, the
// rest of the batch still processes.

func (sk *StateIO) handleConfig(payload []byte) {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		sk.logger.Error("invalid config payload", "err", err)
		return
	}

	if raw, ok := msg["ioConfig"]; ok {
		sk.configIoConfig(raw)
	}

	if raw, ok := msg["outputsPerMcp"]; ok {
		sk.configOutputsPerMcp(raw)
	}

	if raw, ok := msg["defaultInputType"]; ok {
		sk.configDefaultInputType(raw)
	}

	if raw, ok := msg["inputs"]; ok {
		for _, entry := range asArray(raw) {
			sk.configInput(entry)
		}
	}

	if raw, ok := msg["defaultOutputType"]; ok {
		sk.configDefaultOutputType(raw)
	}

	if raw, ok := msg["outputs"]; ok {
		for _, entry := range asArray(raw) {
			sk.configOutput(entry)
		}
	}
}

func (sk *StateIO) handleCommand(payload []byte) {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		sk.logger.Error("invalid command payload", "err", err)
		return
	}

	if raw, ok := msg["outputs"]; ok {
		for _, entry := range asArray(raw) {
			sk.commandOutput(entry)
		}
	}
}

// configIoConfig stores a new partition boundary. The live addressing
// state is intentionally left alone: the change takes effect on the
// next restart, and the operator is told so.
func (sk *StateIO) configIoConfig(raw any) {
	wire, ok := raw.(string)
	if !ok {
		sk.logger.Error("ioConfig must be a string")
		return
	}

	if _, err := ParseIoConfig(wire); err != nil {
		sk.logger.Error("rejected ioConfig", "err", err)
		return
	}

	sk.persistSettings(func(s *Settings) { s.IoConfig = wire })
	sk.logger.Warn("ioConfig stored, restart required before it takes effect", "ioConfig", wire)
}

func (sk *StateIO) configOutputsPerMcp(raw any) {
	count, ok := asInt(raw)
	if !ok || (count != 8 && count != 16) {
		sk.logger.Error("rejected outputsPerMcp, must be 8 or 16", "value", raw)
		return
	}

	sk.persistSettings(func(s *Settings) { s.OutputsPerMcp = uint8(count) })
	sk.logger.Warn("outputsPerMcp stored, restart required before it takes effect", "outputsPerMcp", count)
}

func (sk *StateIO) persistSettings(mutate func(*Settings)) {
	settings, err := sk.store.Load()
	if err != nil {
		sk.logger.Error("failed loading settings before update", "err", err)
	}

	mutate(&settings)

	if err := sk.store.Save(settings); err != nil {
		sk.logger.Error("failed persisting settings", "err", err)
	}
}

func (sk *StateIO) configDefaultInputType(raw any) {
	wire, ok := raw.(string)
	if !ok {
		sk.logger.Error("defaultInputType must be a string")
		return
	}

	typ, err := ParseInputType(wire)
	if err != nil {
		sk.logger.Error("rejected defaultInputType", "err", err)
		return
	}

	for slot := range sk.inventory.Slots {
		if !sk.inventory.Slots[slot].Present {
			continue
		}
		for pin := uint8(0); pin < 16; pin++ {
			sk.inventory.Slots[slot].Input.SetType(pin, typ)
		}
	}
}

func (sk *StateIO) configDefaultOutputType(raw any) {
	wire, ok := raw.(string)
	if !ok {
		sk.logger.Error("defaultOutputType must be a string")
		return
	}

	typ, err := ParseOutputType(wire)
	if err != nil {
		sk.logger.Error("rejected defaultOutputType", "err", err)
		return
	}

	perDevice := sk.partition.OutputsPerDevice
	for slot := range sk.inventory.Slots {
		if !sk.inventory.Slots[slot].Present {
			continue
		}
		for pin := uint8(0); pin < perDevice; pin++ {
			sk.inventory.Slots[slot].Output.SetType(pin, typ)
		}
	}
}

func (sk *StateIO) configInput(entry any) {
	obj, ok := entry.(map[string]any)
	if !ok {
		sk.logger.Error("input config entry must be an object")
		return
	}

	am := sk.addressMap()
	index, ok := asInt(obj["index"])
	if !ok {
		sk.logger.Error("missing input index")
		return
	}

	slot, pin, err := am.InputSlotPin(index)
	if err != nil {
		sk.logger.Error("rejected input config", "err", err)
		return
	}

	handler := sk.inventory.Slots[slot].Input

	// Field errors are per-field: an unknown type does not stop
	// invert/disabled from applying.
	if raw, ok := obj["type"]; ok {
		if wire, ok := raw.(string); ok {
			if typ, err := ParseInputType(wire); err != nil {
				sk.logger.Error("rejected input type", "index", index, "err", err)
			} else {
				handler.SetType(pin, typ)
			}
		} else {
			sk.logger.Error("input type must be a string", "index", index)
		}
	}

	if raw, ok := obj["invert"]; ok {
		if invert, ok := raw.(bool); ok {
			handler.SetInvert(pin, invert)
		} else {
			sk.logger.Error("invert must be a boolean", "index", index)
		}
	}

	if raw, ok := obj["disabled"]; ok {
		if disabled, ok := raw.(bool); ok {
			handler.SetDisabled(pin, disabled)
		} else {
			sk.logger.Error("disabled must be a boolean", "index", index)
		}
	}
}

func (sk *StateIO) configOutput(entry any) {
	obj, ok := entry.(map[string]any)
	if !ok {
		sk.logger.Error("output config entry must be an object")
		return
	}

	am := sk.addressMap()
	index, ok := asInt(obj["index"])
	if !ok {
		sk.logger.Error("missing output index")
		return
	}

	slot, pin, err := am.OutputSlotPin(index)
	if err != nil {
		sk.logger.Error("rejected output config", "err", err)
		return
	}

	handler := sk.inventory.Slots[slot].Output

	if raw, ok := obj["type"]; ok {
		if wire, ok := raw.(string); ok {
			if typ, err := ParseOutputType(wire); err != nil {
				sk.logger.Error("rejected output type", "index", index, "err", err)
			} else {
				handler.SetType(pin, typ)
			}
		} else {
			sk.logger.Error("output type must be a string", "index", index)
		}
	}

	if raw, ok := obj["timerSeconds"]; ok {
		if raw == nil {
			// Explicit null resets to the default duration.
			handler.SetTimer(pin, output.DefaultTimerSeconds)
		} else if seconds, ok := asInt(raw); ok && seconds >= 1 {
			handler.SetTimer(pin, seconds)
		} else {
			sk.logger.Error("rejected timerSeconds, minimum is 1", "index", index, "value", raw)
		}
	}

	if raw, ok := obj["interlockIndex"]; ok {
		if raw == nil {
			// Explicit null unlocks the pin by pointing it at itself.
			handler.SetInterlock(pin, pin)
		} else if interlockIndex, ok := asInt(raw); ok {
			interlockSlot, interlockPin, err := am.OutputSlotPin(interlockIndex)
			switch {
			case err != nil:
				sk.logger.Error("rejected interlockIndex", "index", index, "err", err)
			case interlockSlot != slot:
				sk.logger.Warn("interlock must pair pins on the same device",
					"index", index, "interlockIndex", interlockIndex)
			default:
				handler.SetInterlock(pin, interlockPin)
			}
		} else {
			sk.logger.Error("interlockIndex must be an integer", "index", index)
		}
	}
}

func (sk *StateIO) commandOutput(entry any) {
	obj, ok := entry.(map[string]any)
	if !ok {
		sk.logger.Error("output command entry must be an object")
		return
	}

	am := sk.addressMap()
	index, ok := asInt(obj["index"])
	if !ok {
		sk.logger.Error("missing output index")
		return
	}

	slot, pin, err := am.OutputSlotPin(index)
	if err != nil {
		sk.logger.Error("rejected output command", "err", err)
		return
	}

	handler := sk.inventory.Slots[slot].Output
	typ := handler.Type(pin)

	if raw, ok := obj["type"]; ok {
		wire, isString := raw.(string)
		if !isString {
			sk.logger.Error("command type must be a string", "index", index)
			return
		}
		parsed, err := ParseOutputType(wire)
		if err != nil {
			sk.logger.Error("rejected command type", "index", index, "err", err)
			return
		}
		if parsed != typ {
			sk.logger.Error("command type doesn't match configured type", "index", index)
			return
		}
	}

	raw, ok := obj["command"]
	if !ok {
		sk.logger.Error("missing command", "index", index)
		return
	}

	// A null command is treated as a query.
	command := CommandQuery
	if raw != nil {
		wire, isString := raw.(string)
		if !isString {
			sk.logger.Error("command must be a string", "index", index)
			return
		}
		command, err = ParseCommand(wire)
		if err != nil {
			sk.logger.Error("rejected command", "index", index, "err", err)
			return
		}
	}

	switch command {
	case CommandQuery:
		sk.queryOutput(slot, pin, typ)
	case CommandOn:
		handler.HandleCommand(pin, output.On)
	case CommandOff:
		handler.HandleCommand(pin, output.Off)
	}
}

// queryOutput reads the live pin state back from the chip and
// publishes it without changing anything.
func (sk *StateIO) queryOutput(slot uint8, pin uint8, typ output.Type) {
	slotRef := &sk.inventory.Slots[slot]
	if slotRef.Chip == nil {
		sk.logger.Error("cannot query output, no device at slot", "slot", slot)
		return
	}

	raw, err := slotRef.Chip.DigitalRead(pin)
	if err != nil {
		sk.logger.Error("failed reading output state", "slot", slot, "pin", pin, "err", err)
		return
	}

	state := output.Off
	if raw {
		state = output.On
	}
	sk.publishOutputState(slot, pin, typ, state)
}

func asArray(raw any) []any {
	entries, _ := raw.([]any)
	return entries
}

// asInt accepts the float64 the JSON decoder produces for numbers,
// rejecting fractional values.
func asInt(raw any) (int, bool) {
	number, ok := raw.(float64)
	if !ok || number != float64(int(number)) {
		return 0, false
	}
	return int(number), true
}
