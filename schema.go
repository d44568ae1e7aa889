package stateio

// The config and command schemas are self-describing documents handed
// to controllers during adoption. Field names and enum values are
// fixed for interoperability; index bounds are read live from the
// address map at build time.

func buildConfigSchema(am AddressMap) map[string]any {
	schema := map[string]any{
		"ioConfig": map[string]any{
			"title":       "Configuration Of Input/Output Ports. ! HINT ! A restart is required before changes will take effect!",
			"description": "Select the desired partitioning of input and output ports",
			"type":        "string",
			"enum":        ioConfigEnum(),
		},
		"outputsPerMcp": map[string]any{
			"title":       "Number Of Outputs Per MCP. ! HINT ! A restart is required before changes will take effect!",
			"description": "Number of outputs connected to each MCP23017 I/O chip, which is dependent on the relay driver used (must be either 8 or 16, defaults to 16).",
			"type":        "integer",
			"minimum":     8,
			"maximum":     16,
			"multipleOf":  8,
		},
	}

	// Slot 0 is an input slot unless the partition is output-only.
	if am.Partition.IsInputSlot(0) {
		inputConfigSchema(am, schema)
	}

	// Slot 7 is an output slot unless the partition is input-only.
	if am.Partition.IsOutputSlot(7) {
		outputConfigSchema(am, schema)
	}

	return schema
}

func inputConfigSchema(am AddressMap, schema map[string]any) {
	schema["defaultInputType"] = map[string]any{
		"title":       "Default Input Type",
		"description": "Set the default input type for anything without explicit configuration below. Defaults to 'switch'.",
		"enum":        inputTypeEnum(),
	}

	schema["inputs"] = map[string]any{
		"title":       "Input Configuration",
		"description": "Add configuration for each input in use on your device. The 1-based index specifies which input you wish to configure. The type defines how an input is monitored and what events are emitted. Inverting an input swaps the 'active' state (only useful for 'contact' and 'switch' inputs). Disabling an input stops any events being emitted.",
		"type":        "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"index": map[string]any{
					"title":   "Index",
					"type":    "integer",
					"minimum": am.MinInputIndex(),
					"maximum": am.MaxInputIndex(),
				},
				"type": map[string]any{
					"title": "Type",
					"enum":  inputTypeEnum(),
				},
				"invert": map[string]any{
					"title": "Invert",
					"type":  "boolean",
				},
				"disabled": map[string]any{
					"title": "Disabled",
					"type":  "boolean",
				},
			},
			"required": []string{"index"},
		},
	}
}

func outputConfigSchema(am AddressMap, schema map[string]any) {
	schema["defaultOutputType"] = map[string]any{
		"title":       "Default Output Type",
		"description": "Set the default output type for anything without explicit configuration below. Defaults to 'relay'.",
		"enum":        outputTypeEnum(),
	}

	schema["outputs"] = map[string]any{
		"title":       "Output Configuration",
		"description": "Add configuration for each output in use on your device. The 1-based index specifies which output you wish to configure. The type defines how an output is controlled. For 'timer' outputs you can define how long it should stay ON (defaults to 60 seconds). Interlocking two outputs ensures they are never both on at the same time (useful for controlling motors).",
		"type":        "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"index": map[string]any{
					"title":   "Index",
					"type":    "integer",
					"minimum": am.MinOutputIndex(),
					"maximum": am.MaxOutputIndex(),
				},
				"type": map[string]any{
					"title": "Type",
					"enum":  outputTypeEnum(),
				},
				"timerSeconds": map[string]any{
					"title":   "Timer (seconds)",
					"type":    "integer",
					"minimum": 1,
				},
				"interlockIndex": map[string]any{
					"title":   "Interlock With Index",
					"type":    "integer",
					"minimum": am.MinOutputIndex(),
					"maximum": am.MaxOutputIndex(),
				},
			},
			"required": []string{"index"},
		},
	}
}

func buildCommandSchema(am AddressMap) map[string]any {
	schema := map[string]any{}

	if am.Partition.IsOutputSlot(7) {
		schema["outputs"] = map[string]any{
			"title":       "Output Commands",
			"description": "Send commands to one or more outputs on your device. The 1-based index specifies which output you wish to command. The type is used to validate the configuration for this output matches the command. Supported commands are 'on' or 'off' to change the output state, or 'query' to publish the current state.",
			"type":        "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"index": map[string]any{
						"title":   "Index",
						"type":    "integer",
						"minimum": am.MinOutputIndex(),
						"maximum": am.MaxOutputIndex(),
					},
					"type": map[string]any{
						"title": "Type",
						"enum":  outputTypeEnum(),
					},
					"command": map[string]any{
						"title": "Command",
						"type":  "string",
						"enum":  commandEnum(),
					},
				},
				"required": []string{"index", "command"},
			},
		}
	}

	return schema
}
