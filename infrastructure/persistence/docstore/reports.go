package docstore

import (
	"context"
	"sort"

	"diary-backend/domain/core/entities"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// ReportStore exposes the adapter's report methods as a ports.ReportRepository.
// Map and report collections share method names, so reports get their own view.
type ReportStore struct {
	a *Adapter
}

// Reports returns the report repository view of the adapter.
func (a *Adapter) Reports() *ReportStore {
	return &ReportStore{a: a}
}

func (r *ReportStore) List(ctx context.Context, userID string) ([]entities.Report, error) {
	docs, err := r.a.store.Fetch(ctx, reportsOf(userID))
	if err != nil {
		return nil, err
	}
	reports := make([]entities.Report, 0, len(docs))
	for _, doc := range docs {
		report, err := toReport(doc)
		if err != nil {
			r.a.logger.Warn("Skipping malformed report document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (r *ReportStore) Get(ctx context.Context, userID, reportID string) (entities.Report, error) {
	doc, err := r.a.store.Get(ctx, reportsOf(userID).Doc(reportID))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return entities.Report{}, pkgerrors.NewNotFoundError("report").WithDetail("report_id", reportID)
		}
		return entities.Report{}, err
	}
	return toReport(doc)
}

func (r *ReportStore) Exists(ctx context.Context, userID, periodID string) (bool, error) {
	_, err := r.a.store.Get(ctx, reportsOf(userID).Doc(periodID))
	if err == nil {
		return true, nil
	}
	if pkgerrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Create stores the report under its period id, which makes generation idempotent per period.
func (r *ReportStore) Create(ctx context.Context, userID string, report entities.Report) (entities.Report, error) {
	if report.ID == "" {
		report.ID = report.PeriodID
	}
	report.CreatedAt = r.a.clock.Now()

	fields, err := encode(report)
	if err != nil {
		return entities.Report{}, err
	}
	if _, err := r.a.store.Create(ctx, reportsOf(userID), report.ID, fields); err != nil {
		return entities.Report{}, err
	}
	return report, nil
}

// Delete removes the report. Deleting a period's report lets it be generated again.
func (r *ReportStore) Delete(ctx context.Context, userID, reportID string) error {
	if _, err := r.Get(ctx, userID, reportID); err != nil {
		return err
	}
	return r.a.store.Delete(ctx, reportsOf(userID).Doc(reportID))
}
