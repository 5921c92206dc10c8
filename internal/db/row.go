package db

import (
	"strconv"
	"strings"
	"time"
)

// Row is one result row keyed by column name. Values keep the driver's type,
// except []byte which is converted to string.
type Row map[string]any

// Has reports whether the column is present and not NULL.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

func (r Row) Int64(col string) int64 {
	n, _ := toInt64(r[col])
	return n
}

// NullInt64 returns nil for NULL or non-numeric values.
func (r Row) NullInt64(col string) *int64 {
	n, ok := toInt64(r[col])
	if !ok {
		return nil
	}
	return &n
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// NullFloat returns nil for NULL or non-numeric values. PostgreSQL NUMERIC
// columns arrive as text and are parsed here.
func (r Row) NullFloat(col string) *float64 {
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	return &f
}

// Bool accepts native booleans and the 0/1 integers used by both backends.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	default:
		n, ok := toInt64(v)
		return ok && n != 0
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time returns nil for NULL or unparseable values.
func (r Row) Time(col string) *time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return &v
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
