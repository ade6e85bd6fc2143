package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process DocumentStore used by the test suites and for
// local development without credentials. It mimics the equality/range filter
// semantics of the hosted backends.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	order       map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		order:       make(map[string][]string),
	}
}

func (m *MemoryStore) Get(ctx context.Context, path, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[path]
	if !ok {
		return nil, ErrNotFound
	}
	fields, ok := col[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: copyFields(fields)}, nil
}

func (m *MemoryStore) Put(ctx context.Context, path, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[path]
	if !ok {
		col = make(map[string]map[string]any)
		m.collections[path] = col
	}
	if _, exists := col[id]; !exists {
		m.order[path] = append(m.order[path], id)
	}
	col[id] = copyFields(fields)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[path]
	if !ok {
		return ErrNotFound
	}
	existing, ok := col[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range copyFields(fields) {
		existing[k] = v
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, path string, opts QueryOptions) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Document
	for _, id := range m.order[path] {
		fields, ok := m.collections[path][id]
		if !ok {
			continue
		}
		if matchesFilters(fields, opts.Filters) {
			results = append(results, Document{ID: id, Fields: copyFields(fields)})
		}
	}

	if opts.OrderBy != "" {
		sort.SliceStable(results, func(i, j int) bool {
			cmp := compareValues(results[i].Fields[opts.OrderBy], results[j].Fields[opts.OrderBy])
			if opts.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (m *MemoryStore) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[path]
	if !ok {
		return nil
	}
	delete(col, id)
	ids := m.order[path]
	for i, existing := range ids {
		if existing == id {
			m.order[path] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func matchesFilters(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		cmp := compareValues(fields[f.Field], f.Value)
		switch f.Op {
		case "==":
			if cmp != 0 {
				return false
			}
		case "<":
			if cmp >= 0 {
				return false
			}
		case "<=":
			if cmp > 0 {
				return false
			}
		case ">":
			if cmp <= 0 {
				return false
			}
		case ">=":
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	if at, ok := AsTime(a); ok {
		if bt, ok := AsTime(b); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, AsString(b))
	case bool:
		bv := AsBool(b)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case int, int64, float64:
		af, bf := AsFloat(a), AsFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return 0
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyFields(nested)
			continue
		}
		if nested, ok := v.(map[string]int); ok {
			inner := make(map[string]any, len(nested))
			for nk, nv := range nested {
				inner[nk] = nv
			}
			out[k] = inner
			continue
		}
		out[k] = v
	}
	return out
}
