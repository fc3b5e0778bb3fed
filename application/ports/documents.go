package ports

import (
	"context"
	"fmt"
	"strings"
)

// Collection names under a user (maps, reports) or under a map (nodes, edges).
const (
	CollectionMaps    = "maps"
	CollectionNodes   = "nodes"
	CollectionEdges   = "edges"
	CollectionReports = "reports"
)

// CollectionRef addresses one per-user collection. MapID is set only for
// the nodes and edges sub-collections of a map.
type CollectionRef struct {
	UserID string
	MapID  string
	Name   string
}

// UserCollection addresses a top-level collection of a user.
func UserCollection(userID, name string) CollectionRef {
	return CollectionRef{UserID: userID, Name: name}
}

// MapCollection addresses a sub-collection of one map.
func MapCollection(userID, mapID, name string) CollectionRef {
	return CollectionRef{UserID: userID, MapID: mapID, Name: name}
}

// Path renders the ref as users/{uid}/[maps/{mid}/]{name}.
func (c CollectionRef) Path() string {
	if c.MapID == "" {
		return fmt.Sprintf("users/%s/%s", c.UserID, c.Name)
	}
	return fmt.Sprintf("users/%s/maps/%s/%s", c.UserID, c.MapID, c.Name)
}

// Doc addresses one document of the collection.
func (c CollectionRef) Doc(id string) DocumentRef {
	return DocumentRef{Collection: c, ID: id}
}

// DocumentRef addresses a single document.
type DocumentRef struct {
	Collection CollectionRef
	ID         string
}

func (d DocumentRef) Path() string {
	return d.Collection.Path() + "/" + d.ID
}

// Fields is a document body. Values are JSON-compatible: nil, bool, float64,
// string, []interface{} and map[string]interface{}.
type Fields map[string]interface{}

// Clone deep-copies maps and slices.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return map[string]interface{}(Fields(t).Clone())
	case Fields:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Merge applies an update on a copy of f. Keys containing dots address nested
// maps ("data.label"); missing intermediate maps are created.
func (f Fields) Merge(update Fields) Fields {
	out := f.Clone()
	if out == nil {
		out = Fields{}
	}
	for key, value := range update {
		parts := strings.Split(key, ".")
		target := map[string]interface{}(out)
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]interface{})
			if !ok {
				if nf, isFields := target[part].(Fields); isFields {
					next = nf
				} else {
					next = map[string]interface{}{}
				}
				target[part] = next
			}
			target = next
		}
		target[parts[len(parts)-1]] = cloneValue(value)
	}
	return out
}

// Document is one stored document with its id.
type Document struct {
	ID     string
	Fields Fields
}

// BatchOpKind selects the write performed by a batch operation.
type BatchOpKind string

const (
	// BatchSet replaces the document, creating it if needed.
	BatchSet BatchOpKind = "set"
	// BatchUpdate merges fields into an existing document; a missing document fails the batch.
	BatchUpdate BatchOpKind = "update"
	// BatchDelete removes the document; a missing document is not an error.
	BatchDelete BatchOpKind = "delete"
)

// BatchOp is one write inside an atomic batch.
type BatchOp struct {
	Kind   BatchOpKind
	Ref    DocumentRef
	Fields Fields
}

// Snapshot is the full content of a collection at one point in time.
// Err is set when the subscription failed; no further snapshots follow.
type Snapshot struct {
	Collection CollectionRef
	Documents  []Document
	Err        error
}

// Subscription is a cancelable stream of collection snapshots.
// Only the latest undelivered snapshot is kept; the channel closes on Cancel.
type Subscription interface {
	Updates() <-chan Snapshot
	Cancel()
}

// DocumentStore is the per-user hierarchical document store.
type DocumentStore interface {
	// Create stores a new document; an empty id lets the store assign one.
	Create(ctx context.Context, coll CollectionRef, id string, fields Fields) (string, error)

	Get(ctx context.Context, ref DocumentRef) (Document, error)

	// Update merges fields into an existing document. Dotted keys address nested fields.
	Update(ctx context.Context, ref DocumentRef, fields Fields) error

	Delete(ctx context.Context, ref DocumentRef) error

	// Batch applies all operations atomically.
	Batch(ctx context.Context, ops []BatchOp) error

	// Fetch returns every document of the collection in insertion order.
	Fetch(ctx context.Context, coll CollectionRef) ([]Document, error)

	// Subscribe delivers the current snapshot immediately and a new one after each change.
	Subscribe(ctx context.Context, coll CollectionRef) (Subscription, error)
}
