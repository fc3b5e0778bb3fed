package services

import (
	"context"
	"sort"
	"strings"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	"diary-backend/domain/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reportSectionSeparator = "\n\n---\n\n"

// ReportService generates weekly and monthly digests over a user's maps.
type ReportService struct {
	reports   ports.ReportRepository
	maps      ports.MapRepository
	summaries *SummaryService
	ai        ports.AIGateway
	locker    ports.Locker
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	clock     ports.Clock
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(
	reports ports.ReportRepository,
	maps ports.MapRepository,
	summaries *SummaryService,
	ai ports.AIGateway,
	locker ports.Locker,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *ReportService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ReportService{
		reports:   reports,
		maps:      maps,
		summaries: summaries,
		ai:        ai,
		locker:    locker,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

func (s *ReportService) List(ctx context.Context, userID string) ([]entities.Report, error) {
	return s.reports.List(ctx, userID)
}

func (s *ReportService) Get(ctx context.Context, userID, reportID string) (entities.Report, error) {
	return s.reports.Get(ctx, userID, reportID)
}

// Delete removes a stored report.
func (s *ReportService) Delete(ctx context.Context, userID, reportID string) error {
	if err := s.reports.Delete(ctx, userID, reportID); err != nil {
		return err
	}
	s.logger.Info("Deleted report", zap.String("userID", userID), zap.String("reportID", reportID))
	publishEvent(ctx, s.publisher, s.logger, events.NewReportDeleted(userID, reportID, s.clock.Now()))
	return nil
}

// GenerateDue creates last week's and last month's reports when they do not exist yet.
func (s *ReportService) GenerateDue(ctx context.Context, userID string) ([]entities.Report, error) {
	now := s.clock.Now().In(s.cfg.Location)
	return s.generateLocked(ctx, userID, valueobjects.LastWeek(now), valueobjects.LastMonth(now))
}

// GenerateCurrentWeek creates the in-progress report for the current week.
func (s *ReportService) GenerateCurrentWeek(ctx context.Context, userID string) ([]entities.Report, error) {
	now := s.clock.Now().In(s.cfg.Location)
	return s.generateLocked(ctx, userID, valueobjects.CurrentWeek(now))
}

func (s *ReportService) generateLocked(ctx context.Context, userID string, periods ...valueobjects.Period) ([]entities.Report, error) {
	lock, err := s.locker.Acquire(ctx, "reports:"+userID, uuid.New().String(), s.cfg.ReportLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release report lock", zap.String("userID", userID), zap.Error(err))
		}
	}()

	maps, err := s.maps.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var created []entities.Report
	for _, period := range periods {
		report, ok, err := s.generate(ctx, userID, period, maps)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, report)
		}
	}
	return created, nil
}

// generate builds one period's report; ok is false when it already exists or
// no map falls into the period.
func (s *ReportService) generate(ctx context.Context, userID string, period valueobjects.Period, all []entities.Map) (entities.Report, bool, error) {
	logger := s.logger.With(zap.String("userID", userID), zap.String("periodID", period.ID))

	exists, err := s.reports.Exists(ctx, userID, period.ID)
	if err != nil {
		return entities.Report{}, false, err
	}
	if exists {
		logger.Debug("Report already exists")
		return entities.Report{}, false, nil
	}

	var inPeriod []entities.Map
	for _, m := range all {
		if period.Contains(m.ActivityTime()) {
			inPeriod = append(inPeriod, m)
		}
	}
	sort.SliceStable(inPeriod, func(i, j int) bool {
		return inPeriod[i].ActivityTime().Before(inPeriod[j].ActivityTime())
	})

	var sections []string
	for _, m := range inPeriod {
		body, err := s.summaries.markdownOf(ctx, userID, m)
		if err != nil {
			return entities.Report{}, false, err
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		sections = append(sections, "# "+m.Title+"\n\n"+body)
	}
	if len(sections) == 0 {
		logger.Debug("No maps in period")
		return entities.Report{}, false, nil
	}

	content, err := s.ai.GenerateReport(ctx, ports.ReportRequest{
		Type:     period.Type,
		Label:    period.Label(),
		Markdown: strings.Join(sections, reportSectionSeparator),
	})
	if err != nil {
		logger.Error("Report generation failed", zap.Error(err))
		return entities.Report{}, false, err
	}

	report, err := s.reports.Create(ctx, userID, entities.Report{
		ID:            period.ID,
		Type:          period.Type,
		PeriodID:      period.ID,
		PeriodDisplay: period.Display,
		Chronological: content.Chronological,
		Thematic:      content.Thematic,
		Summary:       content.Summary,
		Emotion:       content.Emotion,
		MapCount:      len(sections),
	})
	if err != nil {
		return entities.Report{}, false, err
	}

	logger.Info("Generated report", zap.Int("maps", report.MapCount))
	publishEvent(ctx, s.publisher, s.logger,
		events.NewReportGenerated(userID, report.ID, string(report.Type), report.PeriodID, report.MapCount, s.clock.Now()))
	return report, true, nil
}
