package subscription

import (
	"context"
	"sync"

	"diary-backend/application/ports"
)

// Hub fans collection snapshots out to feeds, keyed by collection path.
// Stores call Publish while holding their own write lock so that snapshots
// reach subscribers in commit order.
type Hub struct {
	mu    sync.Mutex
	feeds map[string]map[*Feed]struct{}
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[string]map[*Feed]struct{})}
}

// Subscribe registers a feed for coll and delivers initial to it right away.
func (h *Hub) Subscribe(ctx context.Context, coll ports.CollectionRef, initial []ports.Document) *Feed {
	key := coll.Path()

	var feed *Feed
	feed = NewFeed(func() { h.remove(key, feed) })

	h.mu.Lock()
	if h.feeds[key] == nil {
		h.feeds[key] = make(map[*Feed]struct{})
	}
	h.feeds[key][feed] = struct{}{}
	feed.Send(ports.Snapshot{Collection: coll, Documents: cloneDocuments(initial)})
	h.mu.Unlock()

	feed.CancelOnDone(ctx)
	return feed
}

// Publish sends docs to every feed watching coll.
func (h *Hub) Publish(coll ports.CollectionRef, docs []ports.Document) {
	key := coll.Path()

	h.mu.Lock()
	defer h.mu.Unlock()
	for feed := range h.feeds[key] {
		feed.Send(ports.Snapshot{Collection: coll, Documents: cloneDocuments(docs)})
	}
}

// Watching reports whether any feed is open for coll.
func (h *Hub) Watching(coll ports.CollectionRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds[coll.Path()]) > 0
}

// Close cancels every open feed.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Feed
	for _, set := range h.feeds {
		for feed := range set {
			all = append(all, feed)
		}
	}
	h.mu.Unlock()

	for _, feed := range all {
		feed.Cancel()
	}
}

func (h *Hub) remove(key string, feed *Feed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.feeds[key], feed)
	if len(h.feeds[key]) == 0 {
		delete(h.feeds, key)
	}
}

func cloneDocuments(docs []ports.Document) []ports.Document {
	out := make([]ports.Document, len(docs))
	for i, d := range docs {
		out[i] = ports.Document{ID: d.ID, Fields: d.Fields.Clone()}
	}
	return out
}
