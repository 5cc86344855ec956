package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"kairos-gateway/internal/metadata"
)

// Empty returns the value a field holds before anything is entered:
// an empty list for multi-row kinds and an empty string otherwise.
func Empty(k metadata.FieldKind) any {
	if k.IsMulti() {
		return []any{}
	}
	return ""
}

// Normalize converts a raw widget value into the form the backend expects.
// Numeric kinds yield nil when cleared or unparsable, Check yields 1 or 0,
// multi-row kinds always yield a list.
func Normalize(k metadata.FieldKind, raw any) any {
	switch {
	case k.IsNumeric():
		return normalizeNumber(k, raw)
	case k == metadata.KindCheck:
		if checked(raw) {
			return 1
		}
		return 0
	case k.IsMulti():
		return normalizeRows(raw)
	default:
		return normalizeText(raw)
	}
}

func normalizeNumber(k metadata.FieldKind, raw any) any {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		if k == metadata.KindInt {
			return int64(v)
		}
		f = float64(v)
	case int64:
		if k == metadata.KindInt {
			return v
		}
		f = float64(v)
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if s == "" {
			return nil
		}
		if k == metadata.KindInt {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if k == metadata.KindInt {
		// float64(math.MaxInt64) rounds up to 2^63, itself out of range.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil
		}
		return int64(f)
	}
	return f
}

func checked(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "off", "no":
			return false
		}
		return true
	}
	return false
}

func normalizeRows(raw any) any {
	switch v := raw.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, row := range v {
			out[i] = row
		}
		return out
	}
	return []any{}
}

func normalizeText(raw any) any {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}
