package docstore

import (
	"context"
	"sort"

	"diary-backend/application/ports"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

func (a *Adapter) Create(ctx context.Context, userID string, m entities.Map) (entities.Map, error) {
	now := a.clock.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	if m.Type == "" {
		m.Type = valueobjects.MapTypeBlank
	}

	fields, err := encode(m)
	if err != nil {
		return entities.Map{}, err
	}
	id, err := a.store.Create(ctx, mapsOf(userID), m.ID, fields)
	if err != nil {
		return entities.Map{}, err
	}
	m.ID = id
	return m, nil
}

func (a *Adapter) Get(ctx context.Context, userID, mapID string) (entities.Map, error) {
	doc, err := a.store.Get(ctx, mapsOf(userID).Doc(mapID))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return entities.Map{}, pkgerrors.NewNotFoundError("map").WithDetail("map_id", mapID)
		}
		return entities.Map{}, err
	}
	return toMap(doc)
}

func (a *Adapter) List(ctx context.Context, userID string) ([]entities.Map, error) {
	docs, err := a.store.Fetch(ctx, mapsOf(userID))
	if err != nil {
		return nil, err
	}
	maps := make([]entities.Map, 0, len(docs))
	for _, doc := range docs {
		m, err := toMap(doc)
		if err != nil {
			a.logger.Warn("Skipping malformed map document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		maps = append(maps, m)
	}
	sort.SliceStable(maps, func(i, j int) bool {
		return maps[i].UpdatedAt.After(maps[j].UpdatedAt)
	})
	return maps, nil
}

func (a *Adapter) Update(ctx context.Context, userID, mapID string, update ports.MapUpdate) error {
	fields := ports.Fields{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Content != nil {
		fields["content"] = *update.Content
	}
	if len(fields) == 0 {
		return pkgerrors.NewValidationError("no map fields to update")
	}
	fields["updatedAt"] = timestamp(a.clock.Now())

	err := a.store.Update(ctx, mapsOf(userID).Doc(mapID), fields)
	if pkgerrors.IsNotFound(err) {
		return pkgerrors.NewNotFoundError("map").WithDetail("map_id", mapID)
	}
	return err
}

func (a *Adapter) SaveSummary(ctx context.Context, userID, mapID string, record ports.SummaryRecord) error {
	financials, err := jsonValue(record.Financials)
	if err != nil {
		return err
	}
	if financials == nil {
		financials = []interface{}{}
	}
	at := record.At
	if at.IsZero() {
		at = a.clock.Now()
	}

	err = a.store.Update(ctx, mapsOf(userID).Doc(mapID), ports.Fields{
		"summary":      record.Summary,
		"emotion":      record.Emotion,
		"financials":   financials,
		"summarizedAt": timestamp(at),
	})
	if pkgerrors.IsNotFound(err) {
		return pkgerrors.NewNotFoundError("map").WithDetail("map_id", mapID)
	}
	return err
}

// Delete removes the map document together with its node and edge sub-collections in one batch.
func (a *Adapter) Delete(ctx context.Context, userID, mapID string) (int, int, error) {
	if _, err := a.Get(ctx, userID, mapID); err != nil {
		return 0, 0, err
	}

	nodeDocs, err := a.store.Fetch(ctx, nodesOf(userID, mapID))
	if err != nil {
		return 0, 0, err
	}
	edgeDocs, err := a.store.Fetch(ctx, edgesOf(userID, mapID))
	if err != nil {
		return 0, 0, err
	}

	ops := make([]ports.BatchOp, 0, len(nodeDocs)+len(edgeDocs)+1)
	for _, doc := range edgeDocs {
		ops = append(ops, ports.BatchOp{Kind: ports.BatchDelete, Ref: edgesOf(userID, mapID).Doc(doc.ID)})
	}
	for _, doc := range nodeDocs {
		ops = append(ops, ports.BatchOp{Kind: ports.BatchDelete, Ref: nodesOf(userID, mapID).Doc(doc.ID)})
	}
	ops = append(ops, ports.BatchOp{Kind: ports.BatchDelete, Ref: mapsOf(userID).Doc(mapID)})

	if err := a.store.Batch(ctx, ops); err != nil {
		return 0, 0, err
	}
	return len(nodeDocs), len(edgeDocs), nil
}
