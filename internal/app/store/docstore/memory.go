// internal/app/store/docstore/memory.go
package docstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Op names a Gateway operation, used for fault injection and call accounting.
type Op string

const (
	OpGetAll Op = "get_all"
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Call records one write made through a Memory gateway.
type Call struct {
	Op         Op
	Collection string
	ID         string
}

type fault struct {
	op         Op
	collection string
	err        error
}

// Memory is an in-process Gateway. Values are round-tripped through BSON on
// write, so reads return the same shapes a MongoDB gateway would (for example
// time.Time comes back as primitive.DateTime).
type Memory struct {
	mu     sync.Mutex
	colls  map[string]map[string]bson.M
	faults []fault
	writes []Call
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{colls: make(map[string]map[string]bson.M)}
}

// FailOn makes every matching call return err until ClearFaults is called.
// An empty collection matches all collections.
func (m *Memory) FailOn(op Op, collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = append(m.faults, fault{op: op, collection: collection, err: err})
}

// ClearFaults removes all injected failures.
func (m *Memory) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = nil
}

// Writes returns the successful writes made so far, in order.
func (m *Memory) Writes() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.writes))
	copy(out, m.writes)
	return out
}

// Count returns the number of documents in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.colls[collection])
}

func (m *Memory) failure(op Op, collection string) error {
	for _, f := range m.faults {
		if f.op == op && (f.collection == "" || f.collection == collection) {
			return f.err
		}
	}
	return nil
}

func (m *Memory) coll(name string) map[string]bson.M {
	c, ok := m.colls[name]
	if !ok {
		c = make(map[string]bson.M)
		m.colls[name] = c
	}
	return c
}

// clone deep-copies a stored document so callers never alias store state.
func clone(fields bson.M) bson.M {
	out, err := Encode(fields)
	if err != nil || out == nil {
		return bson.M{}
	}
	return out
}

// GetAll returns every document in the collection ordered by id.
func (m *Memory) GetAll(ctx context.Context, collection string) ([]Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpGetAll, collection); err != nil {
		return nil, err
	}
	c := m.colls[collection]
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]Doc, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Doc{ID: id, Fields: clone(c[id])})
	}
	return docs, nil
}

// Get loads one document. Returns ErrNotFound when it does not exist.
func (m *Memory) Get(ctx context.Context, collection, id string) (Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpGet, collection); err != nil {
		return Doc{}, err
	}
	fields, ok := m.colls[collection][id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, Fields: clone(fields)}, nil
}

// Set replaces the document, creating it when missing.
func (m *Memory) Set(ctx context.Context, collection, id string, data bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpSet, collection); err != nil {
		return err
	}
	fields, err := Encode(data)
	if err != nil {
		return err
	}
	if fields == nil {
		fields = bson.M{}
	}
	m.coll(collection)[id] = fields
	m.writes = append(m.writes, Call{Op: OpSet, Collection: collection, ID: id})
	return nil
}

// Update merges data into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, data bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpUpdate, collection); err != nil {
		return err
	}
	cur, ok := m.colls[collection][id]
	if !ok {
		return ErrNotFound
	}
	patch, err := Encode(data)
	if err != nil {
		return err
	}
	for k, v := range patch {
		cur[k] = v
	}
	m.writes = append(m.writes, Call{Op: OpUpdate, Collection: collection, ID: id})
	return nil
}

// Delete removes the document and reports whether it existed.
func (m *Memory) Delete(ctx context.Context, collection, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpDelete, collection); err != nil {
		return false, err
	}
	c := m.colls[collection]
	if _, ok := c[id]; !ok {
		return false, nil
	}
	delete(c, id)
	m.writes = append(m.writes, Call{Op: OpDelete, Collection: collection, ID: id})
	return true, nil
}
