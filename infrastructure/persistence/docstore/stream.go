package docstore

import (
	"diary-backend/application/ports"
)

// stream decodes raw collection snapshots into typed items.
type stream[T any] struct {
	sub ports.Subscription
	out chan ports.StreamUpdate[T]
}

func newStream[T any](sub ports.Subscription, convert func([]ports.Document) []T) *stream[T] {
	s := &stream[T]{sub: sub, out: make(chan ports.StreamUpdate[T], 1)}
	go s.run(convert)
	return s
}

func (s *stream[T]) run(convert func([]ports.Document) []T) {
	defer close(s.out)
	for snap := range s.sub.Updates() {
		update := ports.StreamUpdate[T]{Err: snap.Err}
		if snap.Err == nil {
			update.Items = convert(snap.Documents)
		}
		// Latest wins: replace an update the reader has not taken yet.
		select {
		case s.out <- update:
		default:
			select {
			case <-s.out:
			default:
			}
			s.out <- update
		}
	}
}

func (s *stream[T]) Updates() <-chan ports.StreamUpdate[T] {
	return s.out
}

func (s *stream[T]) Cancel() {
	s.sub.Cancel()
}
