package kdtab

import (
	"fmt"
	"math"
	"strconv"

	"github.com/viant/sqlite-kd/vector"
	"modernc.org/sqlite/vtab"
)

func decodeMatchArg(v vtab.Value) ([]float32, error) {
	switch val := v.(type) {
	case []byte:
		vec, err := vector.DecodeEmbedding(val)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("kd: MATCH embedding is empty")
		}
		return vec, nil
	case string:
		return vector.ParseEmbedding(val)
	default:
		return nil, fmt.Errorf("kd: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	default:
		return 0, fmt.Errorf("kd: unsupported numeric type %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("kd: cannot parse number %q: %w", s, err)
	}
	return f, nil
}

func asInt(v vtab.Value) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	default:
		f, err := asFloat(v)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("kd: k must be an integer, got %v", f)
		}
		return int(f), nil
	}
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("kd: dataset_id is nil")
	default:
		return "", fmt.Errorf("kd: unsupported dataset_id type %T", v)
	}
}
