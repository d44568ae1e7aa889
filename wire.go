package stateio

import (
	"github.com/openrack/stateio/input"
	"github.com/openrack/stateio/output"
	"github.com/pkg/errors"
)

// Command is a parsed output command.
type Command uint8

const (
	CommandQuery Command = iota
	CommandOn
	CommandOff
)

// The wire vocabulary is fixed for interoperability with existing
// controllers; parse and render share one table per enum so the two
// directions cannot drift apart.

var inputTypes = []struct {
	typ  input.Type
	wire string
}{
	{input.Button, "button"},
	{input.Contact, "contact"},
	{input.Press, "press"},
	{input.Rotary, "rotary"},
	{input.Security, "security"},
	{input.Switch, "switch"},
	{input.Toggle, "toggle"},
}

var outputTypes = []struct {
	typ  output.Type
	wire string
}{
	{output.Relay, "relay"},
	{output.Motor, "motor"},
	{output.Timer, "timer"},
}

var commands = []struct {
	cmd  Command
	wire string
}{
	{CommandQuery, "query"},
	{CommandOn, "on"},
	{CommandOff, "off"},
}

// inputEvents renders a classified event for a given input type.
var inputEvents = []struct {
	typ   input.Type
	event input.Event
	wire  string
}{
	{input.Button, input.SingleClick, "single"},
	{input.Button, input.DoubleClick, "double"},
	{input.Button, input.TripleClick, "triple"},
	{input.Button, input.QuadClick, "quad"},
	{input.Button, input.PentaClick, "penta"},
	{input.Button, input.HoldEvent, "hold"},
	{input.Contact, input.LowEvent, "closed"},
	{input.Contact, input.HighEvent, "open"},
	{input.Press, input.PressEvent, "press"},
	{input.Rotary, input.LowEvent, "up"},
	{input.Rotary, input.HighEvent, "down"},
	{input.Security, input.HighEvent, "normal"},
	{input.Security, input.LowEvent, "alarm"},
	{input.Security, input.TamperEvent, "tamper"},
	{input.Security, input.ShortEvent, "short"},
	{input.Security, input.FaultEvent, "fault"},
	{input.Switch, input.LowEvent, "on"},
	{input.Switch, input.HighEvent, "off"},
	{input.Toggle, input.ToggleEvent, "toggle"},
}

func ParseInputType(wire string) (input.Type, error) {
	for _, it := range inputTypes {
		if it.wire == wire {
			return it.typ, nil
		}
	}
	return 0, errors.Errorf("invalid input type: %q", wire)
}

func InputTypeName(typ input.Type) string {
	for _, it := range inputTypes {
		if it.typ == typ {
			return it.wire
		}
	}
	return "error"
}

func ParseOutputType(wire string) (output.Type, error) {
	for _, ot := range outputTypes {
		if ot.wire == wire {
			return ot.typ, nil
		}
	}
	return 0, errors.Errorf("invalid output type: %q", wire)
}

func OutputTypeName(typ output.Type) string {
	for _, ot := range outputTypes {
		if ot.typ == typ {
			return ot.wire
		}
	}
	return "error"
}

func ParseCommand(wire string) (Command, error) {
	for _, c := range commands {
		if c.wire == wire {
			return c.cmd, nil
		}
	}
	return 0, errors.Errorf("invalid command: %q", wire)
}

func InputEventName(typ input.Type, event input.Event) string {
	for _, ie := range inputEvents {
		if ie.typ == typ && ie.event == event {
			return ie.wire
		}
	}
	return "error"
}

func OutputEventName(state output.State) string {
	if state == output.On {
		return "on"
	}
	return "off"
}

func inputTypeEnum() []string {
	names := make([]string, len(inputTypes))
	for i, it := range inputTypes {
		names[i] = it.wire
	}
	return names
}

func outputTypeEnum() []string {
	names := make([]string, len(outputTypes))
	for i, ot := range outputTypes {
		names[i] = ot.wire
	}
	return names
}

func commandEnum() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.wire
	}
	return names
}
