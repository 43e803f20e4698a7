package record

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// sanitizeMap rewrites values JSON cannot carry into a stable string form, so a
// free-form map set from Go code always serializes.
func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = sanitizeValue(v)
	}
	return m
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int, int32, int64, uint, uint32, uint64:
		return v
	case float32:
		return sanitizeValue(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case Timestamp:
		return x.UTC().Format(time.RFC3339Nano)
	case Date:
		return x.String()
	case map[string]any:
		return sanitizeMap(x)
	case []any:
		for i := range x {
			x[i] = sanitizeValue(x[i])
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}
