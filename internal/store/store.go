package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrTransient marks store/network failures that are safe to retry whole-operation.
	ErrTransient = errors.New("transient store error")
)

// Document is an untyped field map, the only shape the backends know about.
type Document struct {
	ID     string
	Fields map[string]any
}

// Filter is a single field comparison. Supported ops: ==, <, <=, >, >=.
type Filter struct {
	Field string
	Op    string
	Value any
}

type QueryOptions struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// DocumentStore is the data-access collaborator every service reads and writes
// through. Paths are slash-joined collection paths, e.g. "users" or
// "users/abc123/sladesh". There are no cross-document transactions; callers
// that need multi-document updates issue them as independent writes.
type DocumentStore interface {
	Get(ctx context.Context, path, id string) (*Document, error)
	Put(ctx context.Context, path, id string, fields map[string]any) error
	Update(ctx context.Context, path, id string, fields map[string]any) error
	Query(ctx context.Context, path string, opts QueryOptions) ([]Document, error)
	Delete(ctx context.Context, path, id string) error
}

// Field decoding helpers. Backends are not uniform: Firestore hands back
// int64/time.Time, the JSONB backend hands back float64/RFC3339 strings, the
// in-memory store returns whatever the writer stored. Services go through
// these instead of type-asserting on every read.

func AsString(v any) string {
	s, _ := v.(string)
	return s
}

func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func AsFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsIntMap decodes a counter map field, e.g. the per-user drinks tally.
func AsIntMap(v any) map[string]int {
	raw := AsMap(v)
	if raw == nil {
		return map[string]int{}
	}
	out := make(map[string]int, len(raw))
	for k, val := range raw {
		out[k] = AsInt(val)
	}
	return out
}
