package formula

import (
	"encoding/json"
	"strings"
)

// Vars is the variable bag a formula is evaluated against. Values are scalars
// (numbers, strings, booleans, nil) or nested maps addressed with dotted names.
type Vars map[string]any

// Lookup resolves a reference path. Nested maps are walked first; when the walk
// does not reach a value the dotted name is tried as a flat key, which is how
// stored transactions keep names such as "T.Val_Valuta".
func (v Vars) Lookup(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	if len(path) == 1 {
		value, ok := v[path[0]]
		return value, ok && value != nil
	}

	var current any = map[string]any(v)
	walked := true
	for _, segment := range path {
		m, ok := asMap(current)
		if !ok {
			walked = false
			break
		}
		current, ok = m[segment]
		if !ok {
			walked = false
			break
		}
	}
	if walked && current != nil {
		return current, true
	}

	value, ok := v[strings.Join(path, ".")]
	return value, ok && value != nil
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case Vars:
		return m, true
	default:
		return nil, false
	}
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
