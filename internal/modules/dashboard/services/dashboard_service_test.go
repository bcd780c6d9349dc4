package services

import (
	"context"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReplacesMonthAndKeepsFileHistory(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := NewDashboardService(repo)
	ctx := context.Background()

	first := models.NewMonthRecord(2024, 8, "july-statement.xlsx")
	first.SetSection(models.SectionVariableOps, Section{"fuel": 100, "total": 400})
	_, err := svc.Save(ctx, []models.MonthRecord{first})
	require.NoError(t, err)

	second := models.NewMonthRecord(2024, 8, "august-statement.xlsx")
	second.SetSection(models.SectionVariableOps, Section{"fuel": 250})
	saved, err := svc.Save(ctx, []models.MonthRecord{second})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	stored := repo.months["2024-08"]
	assert.Equal(t, 250.0, stored.Value(models.SectionVariableOps, "fuel"))
	assert.Equal(t, 0.0, stored.Value(models.SectionVariableOps, "total"), "newer data replaces the whole month")
	assert.Equal(t, "august-statement.xlsx", stored.SourceFile)
	assert.Equal(t, []string{"july-statement.xlsx", "august-statement.xlsx"}, []string(stored.SourceFiles))
}

func TestSaveLaterDuplicateWins(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := NewDashboardService(repo)

	a := month(2025, 0, map[string]Section{models.SectionRevenue: {"total": 1}})
	b := month(2025, 0, map[string]Section{models.SectionRevenue: {"total": 2}})
	saved, err := svc.Save(context.Background(), []models.MonthRecord{a, b})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	stored := repo.months["2025-00"]
	assert.Equal(t, 2.0, stored.Value(models.SectionRevenue, "total"))
}

func TestSaveRejectsInconsistentMonth(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := NewDashboardService(repo)

	bad := models.NewMonthRecord(2024, 3, "")
	bad.MonthKey = "2024-04"
	_, err := svc.Save(context.Background(), []models.MonthRecord{bad})
	assert.ErrorIs(t, err, ErrInvalidMonth)
	assert.Zero(t, repo.upserts)
}

func TestImportAndListSorted(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := NewDashboardService(repo)
	ctx := context.Background()

	_, err := svc.Import(ctx, "later.xlsx", workbook(t, [][]interface{}{
		{"", "Nov 2024", "Oct 2024"},
		{"Total Aircraft Flight Hours", 3, 2},
	}))
	require.NoError(t, err)
	_, err = svc.Import(ctx, "earlier.xlsx", workbook(t, [][]interface{}{
		{"", "Sep 2024"},
		{"Total Aircraft Flight Hours", 1},
	}))
	require.NoError(t, err)

	months, err := svc.List(ctx, RangeAll)
	require.NoError(t, err)
	var keys []string
	for _, m := range months {
		keys = append(keys, m.MonthKey)
	}
	assert.Equal(t, []string{"2024-08", "2024-09", "2024-10"}, keys)

	n, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	months, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestImportRejectsWorkbookWithoutMonths(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := NewDashboardService(repo)

	_, err := svc.Import(context.Background(), "bad.xlsx", workbook(t, [][]interface{}{{"Label", "Total"}}))
	assert.ErrorIs(t, err, ErrNoMonthColumns)
	assert.Zero(t, repo.upserts)
}

func monthsFrom(year, m, count int) []models.MonthRecord {
	var out []models.MonthRecord
	for i := 0; i < count; i++ {
		out = append(out, models.NewMonthRecord(year, m, ""))
		m++
		if m == 12 {
			m = 0
			year++
		}
	}
	return out
}

func TestFilterRange(t *testing.T) {
	all := monthsFrom(2024, 0, 30) // Jan 2024 .. Jun 2026

	tests := []struct {
		name  string
		count int
		first string
		last  string
	}{
		{"", 30, "2024-00", "2026-05"},
		{RangeAll, 30, "2024-00", "2026-05"},
		{RangeTrailing12, 12, "2025-06", "2026-05"},
		{"fiscal2024", 12, "2024-08", "2025-07"},
		{"fiscal2025", 10, "2025-08", "2026-05"},
		{"calendar2025", 12, "2025-00", "2025-11"},
		{"calendar2030", 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterRange(all, tt.name)
			require.NoError(t, err)
			require.Len(t, got, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.first, got[0].MonthKey)
				assert.Equal(t, tt.last, got[len(got)-1].MonthKey)
			}
		})
	}

	short, err := FilterRange(all[:5], RangeTrailing12)
	require.NoError(t, err)
	assert.Len(t, short, 5)

	_, err = FilterRange(all, "lastweek")
	assert.ErrorIs(t, err, ErrInvalidRange)
}
