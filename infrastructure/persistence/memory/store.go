// Package memory provides an in-process document store for tests, the CLI and local runs.
package memory

import (
	"context"
	"sync"

	"diary-backend/application/ports"
	"diary-backend/infrastructure/persistence/subscription"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/google/uuid"
)

type collection struct {
	order []string
	docs  map[string]ports.Fields
}

func newCollection() *collection {
	return &collection{docs: make(map[string]ports.Fields)}
}

func (c *collection) put(id string, fields ports.Fields) {
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = fields
}

func (c *collection) remove(id string) bool {
	if _, exists := c.docs[id]; !exists {
		return false
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection) snapshot() []ports.Document {
	out := make([]ports.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, ports.Document{ID: id, Fields: c.docs[id].Clone()})
	}
	return out
}

// Store is a mutex-guarded ports.DocumentStore keeping insertion order.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	refs        map[string]ports.CollectionRef
	hub         *subscription.Hub

	// failNext makes the next write fail; used by tests exercising error paths.
	failNext error
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
		refs:        make(map[string]ports.CollectionRef),
		hub:         subscription.NewHub(),
	}
}

// FailNextWrite makes the next mutating call return err without applying anything.
func (s *Store) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *Store) coll(ref ports.CollectionRef) *collection {
	key := ref.Path()
	c, ok := s.collections[key]
	if !ok {
		c = newCollection()
		s.collections[key] = c
		s.refs[key] = ref
	}
	return c
}

func (s *Store) publish(refs ...ports.CollectionRef) {
	seen := make(map[string]struct{})
	for _, ref := range refs {
		key := ref.Path()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		s.hub.Publish(ref, s.coll(ref).snapshot())
	}
}

func (s *Store) Create(ctx context.Context, coll ports.CollectionRef, id string, fields ports.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return "", pkgerrors.NewDatabaseError("create", err)
	}
	if id == "" {
		id = uuid.New().String()
	}
	s.coll(coll).put(id, fields.Clone())
	s.publish(coll)
	return id, nil
}

func (s *Store) Get(ctx context.Context, ref ports.DocumentRef) (ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.coll(ref.Collection).docs[ref.ID]
	if !ok {
		return ports.Document{}, pkgerrors.NewNotFoundError("document").WithDetail("path", ref.Path())
	}
	return ports.Document{ID: ref.ID, Fields: fields.Clone()}, nil
}

func (s *Store) Update(ctx context.Context, ref ports.DocumentRef, fields ports.Fields) error {
	return s.Batch(ctx, []ports.BatchOp{{Kind: ports.BatchUpdate, Ref: ref, Fields: fields}})
}

func (s *Store) Delete(ctx context.Context, ref ports.DocumentRef) error {
	return s.Batch(ctx, []ports.BatchOp{{Kind: ports.BatchDelete, Ref: ref}})
}

// Batch validates every operation against a staged view before applying any of them.
func (s *Store) Batch(ctx context.Context, ops []ports.BatchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return pkgerrors.NewDatabaseError("batch", err)
	}

	type staged struct {
		ref    ports.DocumentRef
		fields ports.Fields
		del    bool
	}
	pending := make(map[string]*staged)
	var order []string

	current := func(ref ports.DocumentRef) (ports.Fields, bool) {
		if st, ok := pending[ref.Path()]; ok {
			return st.fields, !st.del
		}
		f, ok := s.coll(ref.Collection).docs[ref.ID]
		return f, ok
	}
	stage := func(ref ports.DocumentRef, fields ports.Fields, del bool) {
		key := ref.Path()
		if _, ok := pending[key]; !ok {
			order = append(order, key)
		}
		pending[key] = &staged{ref: ref, fields: fields, del: del}
	}

	for _, op := range ops {
		switch op.Kind {
		case ports.BatchSet:
			stage(op.Ref, op.Fields.Clone(), false)
		case ports.BatchUpdate:
			existing, ok := current(op.Ref)
			if !ok {
				return pkgerrors.NewNotFoundError("document").WithDetail("path", op.Ref.Path())
			}
			stage(op.Ref, existing.Merge(op.Fields), false)
		case ports.BatchDelete:
			stage(op.Ref, nil, true)
		default:
			return pkgerrors.NewValidationError("unknown batch operation").WithDetail("kind", string(op.Kind))
		}
	}

	var touched []ports.CollectionRef
	for _, key := range order {
		st := pending[key]
		c := s.coll(st.ref.Collection)
		if st.del {
			if c.remove(st.ref.ID) {
				touched = append(touched, st.ref.Collection)
			}
			continue
		}
		c.put(st.ref.ID, st.fields)
		touched = append(touched, st.ref.Collection)
	}
	s.publish(touched...)
	return nil
}

func (s *Store) Fetch(ctx context.Context, coll ports.CollectionRef) ([]ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll(coll).snapshot(), nil
}

func (s *Store) Subscribe(ctx context.Context, coll ports.CollectionRef) (ports.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.Subscribe(ctx, coll, s.coll(coll).snapshot()), nil
}

// Close ends every open subscription.
func (s *Store) Close() error {
	s.hub.Close()
	return nil
}
