// Package tags provides the key/value data sources that 'tag' literals are
// resolved against: an in-memory map, a YAML document, a SQL table, and a
// cache that refreshes any of those on a schedule.
package tags

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Source resolves a tag key. found is false when the key is unknown; err is
// reserved for failures of the source itself.
type Source interface {
	Lookup(key string) (value interface{}, found bool, err error)
}

// Normalize converts a decoded or scanned value to one the interpreter can
// hold: nil, bool, float64 or string.
func Normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case nil, bool, float64, string:
		return v
	case []byte:
		return string(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// MapSource is an in-memory Source, safe for concurrent use.
type MapSource struct {
	values map[string]interface{}
	mu     sync.RWMutex
}

// NewMapSource copies values, normalizing each one.
func NewMapSource(values map[string]interface{}) *MapSource {
	m := &MapSource{values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		m.values[k] = Normalize(v)
	}
	return m
}

func (m *MapSource) Lookup(key string) (interface{}, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MapSource) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = Normalize(value)
}

// Keys returns every key in sorted order.
func (m *MapSource) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encode and decode store a value as text plus a kind, which is how SQL
// tables keep numbers and booleans distinct from strings.
func encode(v interface{}) (text, kind string) {
	switch v := Normalize(v).(type) {
	case nil:
		return "", "nil"
	case bool:
		return strconv.FormatBool(v), "bool"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), "number"
	case string:
		return v, "string"
	}
	return "", "nil"
}

func decode(text, kind string) (interface{}, error) {
	switch kind {
	case "nil":
		return nil, nil
	case "bool":
		return strconv.ParseBool(text)
	case "number":
		return strconv.ParseFloat(text, 64)
	}
	return text, nil
}
