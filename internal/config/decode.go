package config

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook decodes duration fields from any of the accepted forms:
// a Go duration string ("1s", "250ms"), a bare number of seconds, or a
// { secs = N, nanos = M } table.
func durationHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		d, err := parseDuration(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
		}
		return d, nil
	}
}

func parseDuration(data any) (time.Duration, error) {
	switch v := data.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", v, err)
		}
		return d, nil
	case int:
		return seconds(float64(v))
	case int64:
		return seconds(float64(v))
	case float64:
		return seconds(v)
	case map[string]any:
		return secsNanos(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", data)
	}
}

func seconds(n float64) (time.Duration, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %v", n)
	}
	if n > math.MaxInt64/float64(time.Second) || n < math.MinInt64/float64(time.Second) {
		return 0, fmt.Errorf("out of range: %v", n)
	}
	return time.Duration(n * float64(time.Second)), nil
}

func secsNanos(m map[string]any) (time.Duration, error) {
	var total time.Duration
	for key, raw := range m {
		n, ok := toInt64(raw)
		if !ok {
			return 0, fmt.Errorf("%s: expected integer, got %T", key, raw)
		}
		switch strings.ToLower(key) {
		case "secs":
			total += time.Duration(n) * time.Second
		case "nanos":
			total += time.Duration(n)
		default:
			return 0, fmt.Errorf("unknown key %q", key)
		}
	}
	return total, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
