package tools

// Schema is a JSON Schema document describing tool arguments.
type Schema map[string]any

// Object builds an object schema. Required names must be keys of props.
func Object(props map[string]Schema, required ...string) Schema {
	if props == nil {
		props = map[string]Schema{}
	}
	s := Schema{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func String(description string) Schema {
	return Schema{"type": "string", "description": description}
}

func Pattern(description, pattern string) Schema {
	return Schema{"type": "string", "description": description, "pattern": pattern}
}

func Enum(description string, values ...string) Schema {
	return Schema{"type": "string", "description": description, "enum": values}
}

func Integer(description string, minimum, maximum int) Schema {
	return Schema{"type": "integer", "description": description, "minimum": minimum, "maximum": maximum}
}

func Boolean(description string) Schema {
	return Schema{"type": "boolean", "description": description}
}
