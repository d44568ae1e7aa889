package stateio

import (
	"encoding/json"

	"github.com/openrack/stateio/input"
	"github.com/openrack/stateio/output"
)

// onInputEvent receives classified input transitions from the per-slot
// handlers and publishes them as logical-index event records.
func (sk *StateIO) onInputEvent(slot uint8, pin uint8, typ input.Type, event input.Event) {
	am := sk.addressMap()
	index := am.InputIndex(slot, pin)

	// Ports group four channels each, both 1-based.
	port := ((index - 1) / 4) + 1
	channel := index - (port-1)*4

	typeName := InputTypeName(typ)
	eventName := InputEventName(typ, event)

	sk.publishStatus(map[string]any{
		"port":    port,
		"channel": channel,
		"index":   index,
		"type":    typeName,
		"event":   eventName,
	})
	sk.recordEvent("input", index, typeName, eventName)
}

// onOutputEvent receives transitions the output handlers decided on.
// The handler owns the decision, this layer applies it to the chip and
// reports it.
func (sk *StateIO) onOutputEvent(slot uint8, pin uint8, typ output.Type, state output.State) {
	slotRef := &sk.inventory.Slots[slot]
	if slotRef.Chip != nil {
		if err := slotRef.Chip.DigitalWrite(pin, state == output.On); err != nil {
			sk.logger.Error("failed writing output pin", "slot", slot, "pin", pin, "err", err)
		}
	}

	sk.publishOutputState(slot, pin, typ, state)
}

func (sk *StateIO) publishOutputState(slot uint8, pin uint8, typ output.Type, state output.State) {
	am := sk.addressMap()
	index := am.OutputIndex(slot, pin)

	typeName := OutputTypeName(typ)
	eventName := OutputEventName(state)

	sk.publishStatus(map[string]any{
		"index": index,
		"type":  typeName,
		"event": eventName,
	})
	sk.recordEvent("output", index, typeName, eventName)
}

// publishStatus attempts delivery through the transport; on failure
// the record goes to the local failover sink instead of being dropped.
// There is no retry.
func (sk *StateIO) publishStatus(doc map[string]any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		sk.logger.Error("failed marshalling event", "err", err)
		return
	}

	if sk.transport == nil {
		sk.failover.Warn(string(payload))
		return
	}

	if err := sk.transport.PublishStatus(payload); err != nil {
		sk.failover.Warn(string(payload), "err", err)
	}
}

func (sk *StateIO) recordEvent(domain string, index int, typeName, eventName string) {
	if sk.Influx == nil || !sk.Influx.Ready() {
		return
	}
	if err := sk.Influx.WriteEvent(domain, index, typeName, eventName); err != nil {
		sk.logger.Debug("event history write failed", "err", err)
	}
}
