package valueobjects

import (
	"fmt"
	"time"
)

// ReportType is the cadence of a generated report.
type ReportType string

const (
	ReportTypeWeekly  ReportType = "weekly"
	ReportTypeMonthly ReportType = "monthly"
)

// Period is the half-open interval [Start, End) a report covers.
type Period struct {
	Type       ReportType
	ID         string
	Display    string
	Start      time.Time
	End        time.Time
	InProgress bool
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Label is the human label handed to the report prompt.
func (p Period) Label() string {
	if p.Type == ReportTypeMonthly {
		return "month of " + p.Display
	}
	return "week of " + p.Display
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfISOWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func weekID(monday time.Time) string {
	year, week := monday.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// LastWeek is the full Monday–Sunday week before the one containing now.
func LastWeek(now time.Time) Period {
	monday := startOfISOWeek(now).AddDate(0, 0, -7)
	end := monday.AddDate(0, 0, 7)
	return Period{
		Type:    ReportTypeWeekly,
		ID:      weekID(monday),
		Display: fmt.Sprintf("%s ~ %s", monday.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02")),
		Start:   monday,
		End:     end,
	}
}

// CurrentWeek is the week containing now, flagged in progress.
func CurrentWeek(now time.Time) Period {
	monday := startOfISOWeek(now)
	return Period{
		Type:       ReportTypeWeekly,
		ID:         weekID(monday) + "-IP",
		Display:    fmt.Sprintf("%s ~ (in progress)", monday.Format("2006-01-02")),
		Start:      monday,
		End:        monday.AddDate(0, 0, 7),
		InProgress: true,
	}
}

// LastMonth is the calendar month before the one containing now.
func LastMonth(now time.Time) Period {
	y, m, _ := now.Date()
	thisMonth := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	start := thisMonth.AddDate(0, -1, 0)
	return Period{
		Type:    ReportTypeMonthly,
		ID:      fmt.Sprintf("%d-M%02d", start.Year(), int(start.Month())),
		Display: start.Format("January 2006"),
		Start:   start,
		End:     thisMonth,
	}
}
