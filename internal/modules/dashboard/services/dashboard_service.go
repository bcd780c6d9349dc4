package services

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"github.com/lib/pq"
	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Range names accepted by List. fiscalYYYY runs from September of YYYY to
// August of the following year.
const (
	RangeAll        = "all"
	RangeTrailing12 = "trailing12"
)

var yearRangeRe = regexp.MustCompile(`^(fiscal|calendar)(\d{4})$`)

type DashboardService struct {
	months repositories.MonthRepo
	logger zerolog.Logger
}

func NewDashboardService(months repositories.MonthRepo) *DashboardService {
	return &DashboardService{
		months: months,
		logger: log.With().Str("component", "dashboard").Logger(),
	}
}

// List returns stored months ordered by key, narrowed to the named range.
func (s *DashboardService) List(ctx context.Context, rangeName string) ([]models.MonthRecord, error) {
	months, err := s.months.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	return FilterRange(months, rangeName)
}

// Save upserts the months. For a repeated key in one call the later entry
// wins, and a stored month is replaced wholesale by the newer data. Source
// file history accumulates across saves.
func (s *DashboardService) Save(ctx context.Context, months []models.MonthRecord) ([]models.MonthRecord, error) {
	byKey := map[string]models.MonthRecord{}
	for _, m := range months {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMonth, err)
		}
		byKey[m.MonthKey] = m
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	existing, err := s.months.FindByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load months: %w", err)
	}
	history := map[string]pq.StringArray{}
	for _, m := range existing {
		history[m.MonthKey] = m.SourceFiles
	}

	merged := make([]models.MonthRecord, 0, len(keys))
	for _, k := range keys {
		m := byKey[k]
		m.SourceFiles = mergeSourceFiles(history[k], m.SourceFiles, m.SourceFile)
		merged = append(merged, m)
	}
	if err := s.months.Upsert(ctx, merged); err != nil {
		return nil, fmt.Errorf("save months: %w", err)
	}
	s.logger.Info().Int("months", len(merged)).Msg("Months saved")
	return merged, nil
}

// Import parses an uploaded workbook and saves its months.
func (s *DashboardService) Import(ctx context.Context, filename string, r io.Reader) ([]models.MonthRecord, error) {
	months, err := ParseWorkbook(r, filename)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", filename).Msg("Workbook rejected")
		return nil, err
	}
	return s.Save(ctx, months)
}

func (s *DashboardService) Clear(ctx context.Context) (int64, error) {
	n, err := s.months.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear months: %w", err)
	}
	s.logger.Info().Int64("months", n).Msg("Dashboard data cleared")
	return n, nil
}

// mergeSourceFiles appends new file names to the stored history, skipping
// blanks and repeats.
func mergeSourceFiles(prior, incoming pq.StringArray, current string) pq.StringArray {
	seen := map[string]bool{}
	out := pq.StringArray{}
	for _, name := range append(append(append([]string{}, prior...), incoming...), current) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// FilterRange narrows key-ordered months to a named range. An empty name
// means all.
func FilterRange(months []models.MonthRecord, rangeName string) ([]models.MonthRecord, error) {
	switch rangeName {
	case "", RangeAll:
		return months, nil
	case RangeTrailing12:
		if len(months) > 12 {
			return months[len(months)-12:], nil
		}
		return months, nil
	}

	m := yearRangeRe.FindStringSubmatch(rangeName)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, rangeName)
	}
	year, _ := strconv.Atoi(m[2])
	keep := func(r models.MonthRecord) bool {
		if m[1] == "calendar" {
			return r.YearNum == year
		}
		return (r.YearNum == year && r.MonthNum >= 8) || (r.YearNum == year+1 && r.MonthNum <= 7)
	}
	out := make([]models.MonthRecord, 0, len(months))
	for _, r := range months {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
