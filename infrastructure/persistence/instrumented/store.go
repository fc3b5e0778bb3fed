// Package instrumented decorates a document store with metrics and tracing.
package instrumented

import (
	"context"
	"time"

	"diary-backend/application/ports"
	"diary-backend/pkg/observability"
)

// Recorder receives one observation per store operation.
type Recorder interface {
	RecordStore(operation string, d time.Duration, err error)
}

// Store wraps a ports.DocumentStore. Every call is timed and, when tracing is
// enabled, runs in its own subsegment.
type Store struct {
	inner   ports.DocumentStore
	metrics Recorder
	tracer  *observability.Tracer
}

// NewStore decorates inner. tracer may be nil.
func NewStore(inner ports.DocumentStore, metrics Recorder, tracer *observability.Tracer) *Store {
	return &Store{inner: inner, metrics: metrics, tracer: tracer}
}

func (s *Store) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := s.tracer.TraceFunction(ctx, "store."+op, fn)
	s.metrics.RecordStore(op, time.Since(start), err)
	return err
}

func (s *Store) Create(ctx context.Context, coll ports.CollectionRef, id string, fields ports.Fields) (string, error) {
	var created string
	err := s.observe(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = s.inner.Create(ctx, coll, id, fields)
		return err
	})
	return created, err
}

func (s *Store) Get(ctx context.Context, ref ports.DocumentRef) (ports.Document, error) {
	var doc ports.Document
	err := s.observe(ctx, "get", func(ctx context.Context) error {
		var err error
		doc, err = s.inner.Get(ctx, ref)
		return err
	})
	return doc, err
}

func (s *Store) Update(ctx context.Context, ref ports.DocumentRef, fields ports.Fields) error {
	return s.observe(ctx, "update", func(ctx context.Context) error {
		return s.inner.Update(ctx, ref, fields)
	})
}

func (s *Store) Delete(ctx context.Context, ref ports.DocumentRef) error {
	return s.observe(ctx, "delete", func(ctx context.Context) error {
		return s.inner.Delete(ctx, ref)
	})
}

func (s *Store) Batch(ctx context.Context, ops []ports.BatchOp) error {
	return s.observe(ctx, "batch", func(ctx context.Context) error {
		return s.inner.Batch(ctx, ops)
	})
}

func (s *Store) Fetch(ctx context.Context, coll ports.CollectionRef) ([]ports.Document, error) {
	var docs []ports.Document
	err := s.observe(ctx, "fetch", func(ctx context.Context) error {
		var err error
		docs, err = s.inner.Fetch(ctx, coll)
		return err
	})
	return docs, err
}

// Subscribe records the subscription setup only; snapshots are not timed.
func (s *Store) Subscribe(ctx context.Context, coll ports.CollectionRef) (ports.Subscription, error) {
	start := time.Now()
	sub, err := s.inner.Subscribe(ctx, coll)
	s.metrics.RecordStore("subscribe", time.Since(start), err)
	return sub, err
}
