// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fstodo/internal/service"
)

// Write records one mutating call made against a FakeStore.
type Write struct {
	Op         string // "create", "set" or "update"
	Ref        service.DocRef
	Fields     service.Fields
	IfRevision string
}

// FakeStore is an in-memory implementation of service.Store for testing.
// It enforces update revisions and fans writes out to subscribers.
type FakeStore struct {
	mu     sync.Mutex
	docs   map[string]service.Document // path -> doc
	order  []string                    // insertion order of paths
	rev    int64
	nextID int
	writes []Write
	subs   map[int]*fakeSub
	subSeq int

	// Held suppresses subscription delivery until Release is called.
	held bool

	// Error injection for testing
	SubscribeErr error
	CreateErr    error
	SetErr       error
	UpdateErr    error
	GetErr       error
	GetAllErr    error
}

type fakeSub struct {
	q       service.Query
	trigger chan struct{}
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		docs: make(map[string]service.Document),
		subs: make(map[int]*fakeSub),
	}
}

// Seed stores a document without recording a write or notifying subscribers.
// Returns the revision it was stored with.
func (f *FakeStore) Seed(ref service.DocRef, fields service.Fields) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(ref, fields)
}

// Writes returns a copy of all recorded writes.
func (f *FakeStore) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// ResetWrites clears the write log.
func (f *FakeStore) ResetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// Doc returns the stored document at ref.
func (f *FakeStore) Doc(ref service.DocRef) (service.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[ref.Path()]
	return cloneDoc(d), ok
}

// Hold stops delivering snapshots to subscribers. Writes still succeed.
func (f *FakeStore) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = true
}

// Release resumes delivery and notifies every subscriber.
func (f *FakeStore) Release() {
	f.mu.Lock()
	f.held = false
	f.mu.Unlock()
	f.notify()
}

// Subscribers returns the number of live subscriptions.
func (f *FakeStore) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Subscribe implements service.Store.
func (f *FakeStore) Subscribe(ctx context.Context, q service.Query) (<-chan service.Snapshot, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}

	f.mu.Lock()
	f.subSeq++
	id := f.subSeq
	sub := &fakeSub{q: q, trigger: make(chan struct{}, 1)}
	f.subs[id] = sub
	f.mu.Unlock()

	out := make(chan service.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		}()

		last := ""
		first := true
		for {
			snap := f.snapshot(q)
			if fp := snap.Fingerprint(); first || fp != last {
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
				first = false
				last = fp
			}
			select {
			case <-sub.trigger:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Create implements service.Store.
func (f *FakeStore) Create(ctx context.Context, collection string, fields service.Fields) (service.DocRef, error) {
	if f.CreateErr != nil {
		return service.DocRef{}, f.CreateErr
	}
	f.mu.Lock()
	f.nextID++
	ref := service.Ref(collection, fmt.Sprintf("doc%d", f.nextID))
	f.writes = append(f.writes, Write{Op: "create", Ref: ref, Fields: fields})
	f.put(ref, fields)
	f.mu.Unlock()

	f.notify()
	return ref, nil
}

// Set implements service.Store.
func (f *FakeStore) Set(ctx context.Context, ref service.DocRef, fields service.Fields) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	f.mu.Lock()
	f.writes = append(f.writes, Write{Op: "set", Ref: ref, Fields: fields})
	f.put(ref, fields)
	f.mu.Unlock()

	f.notify()
	return nil
}

// Update implements service.Store.
func (f *FakeStore) Update(ctx context.Context, ref service.DocRef, fields service.Fields, ifRevision string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	doc, ok := f.docs[ref.Path()]
	if !ok {
		f.mu.Unlock()
		return service.ErrNotFound
	}
	if ifRevision != "" && doc.Revision != ifRevision {
		f.mu.Unlock()
		return service.ErrConflict
	}
	f.writes = append(f.writes, Write{Op: "update", Ref: ref, Fields: fields, IfRevision: ifRevision})
	merged := make(service.Fields, len(doc.Fields)+len(fields))
	for k, v := range doc.Fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	f.put(ref, merged)
	f.mu.Unlock()

	f.notify()
	return nil
}

// Get implements service.Store.
func (f *FakeStore) Get(ctx context.Context, ref service.DocRef) (service.Document, error) {
	if f.GetErr != nil {
		return service.Document{}, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[ref.Path()]
	if !ok {
		return service.Document{}, service.ErrNotFound
	}
	return cloneDoc(doc), nil
}

// GetAll implements service.Store.
func (f *FakeStore) GetAll(ctx context.Context, collection string) ([]service.Document, error) {
	if f.GetAllErr != nil {
		return nil, f.GetAllErr
	}
	return f.snapshot(service.All(collection)).Docs, nil
}

// put stores a document and bumps its revision. Caller holds f.mu.
func (f *FakeStore) put(ref service.DocRef, fields service.Fields) string {
	path := ref.Path()
	if _, exists := f.docs[path]; !exists {
		f.order = append(f.order, path)
	}
	f.rev++
	rev := strconv.FormatInt(f.rev, 10)
	f.docs[path] = service.Document{Ref: ref, Fields: cloneFields(fields), Revision: rev}
	return rev
}

func (f *FakeStore) snapshot(q service.Query) service.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := service.Snapshot{ReadAt: time.Now()}
	for _, path := range f.order {
		doc := f.docs[path]
		if q.Matches(doc) {
			snap.Docs = append(snap.Docs, cloneDoc(doc))
		}
	}
	return snap
}

func (f *FakeStore) notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return
	}
	for _, sub := range f.subs {
		select {
		case sub.trigger <- struct{}{}:
		default:
		}
	}
}

func cloneDoc(d service.Document) service.Document {
	d.Fields = cloneFields(d.Fields)
	return d
}

func cloneFields(fields service.Fields) service.Fields {
	if fields == nil {
		return nil
	}
	out := make(service.Fields, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
