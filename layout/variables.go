package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Lookup walks vars along path. Path elements select object keys or, for
// lists, indexes (negative ones count from the end).
func Lookup(vars Variables, path []Literal) (any, bool) {
	var cur any = map[string]any(vars)
	for _, key := range path {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[string(key)]
			if !ok {
				return nil, false
			}
			cur = next
		case Variables:
			next, ok := v[string(key)]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(string(key))
			if err != nil {
				return nil, false
			}
			if idx < 0 {
				idx += len(v)
			}
			if idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Stringify renders variable value as chunk text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
