package llm

// BuildTripletJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We send it to the model as the output contract and also validate locally.
// Labels are only enum-constrained in strict mode.
func BuildTripletJSONSchema(entityKinds, relationKinds []string, strict bool) map[string]any {
	entity := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			"type": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}
	relation := map[string]any{"type": "string", "minLength": 1}

	if strict && len(entityKinds) > 0 {
		entity["properties"].(map[string]any)["type"] = map[string]any{"type": "string", "enum": entityKinds}
		entity["required"] = []string{"name", "type"}
	}
	if strict && len(relationKinds) > 0 {
		relation = map[string]any{"type": "string", "enum": relationKinds}
	}

	triplet := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"subject":  entity,
			"relation": relation,
			"object":   entity,
		},
		"required": []string{"subject", "relation", "object"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"triplets": map[string]any{"type": "array", "items": triplet},
		},
		"required": []string{"triplets"},
	}
}
