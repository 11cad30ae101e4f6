package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SanitizeTriplets drops malformed entries from a triplet document so the
// rest can still validate: entries that are not objects, lack a subject or
// object name, or lack a relation. Surviving strings are trimmed. Unknown
// keys on an entry are removed. The returned slice describes what was dropped.
func SanitizeTriplets(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	items, ok := m["triplets"].([]any)
	if !ok {
		if m["triplets"] == nil {
			items = nil
		} else {
			return nil, nil, fmt.Errorf("triplets is %T, want array", m["triplets"])
		}
	}

	var dropped []string
	kept := make([]any, 0, len(items))
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("triplets[%d]: not an object", i))
			continue
		}
		subject, sOK := cleanEntity(obj["subject"])
		object, oOK := cleanEntity(obj["object"])
		relation, rOK := obj["relation"].(string)
		relation = strings.TrimSpace(relation)
		if !sOK || !oOK || !rOK || relation == "" {
			dropped = append(dropped, fmt.Sprintf("triplets[%d]: incomplete", i))
			continue
		}
		kept = append(kept, map[string]any{
			"subject":  subject,
			"relation": relation,
			"object":   object,
		})
	}

	b, err := json.Marshal(map[string]any{"triplets": kept})
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

func cleanEntity(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case string:
		// a bare name is accepted
		name := strings.TrimSpace(t)
		return map[string]any{"name": name}, name != ""
	case map[string]any:
		name, _ := t["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, false
		}
		out := map[string]any{"name": name}
		if typ, ok := t["type"].(string); ok && strings.TrimSpace(typ) != "" {
			out["type"] = strings.TrimSpace(typ)
		}
		return out, true
	default:
		return nil, false
	}
}
