package services

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeMonthRepo struct {
	months  map[string]models.MonthRecord
	upserts int
}

func newFakeMonthRepo() *fakeMonthRepo {
	return &fakeMonthRepo{months: map[string]models.MonthRecord{}}
}

func (r *fakeMonthRepo) Upsert(_ context.Context, months []models.MonthRecord) error {
	r.upserts++
	for _, m := range months {
		r.months[m.MonthKey] = m
	}
	return nil
}

func (r *fakeMonthRepo) FindByKeys(_ context.Context, keys []string) ([]models.MonthRecord, error) {
	var out []models.MonthRecord
	for _, k := range keys {
		if m, ok := r.months[k]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMonthRepo) List(_ context.Context) ([]models.MonthRecord, error) {
	out := make([]models.MonthRecord, 0, len(r.months))
	for _, m := range r.months {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey < out[j].MonthKey })
	return out, nil
}

func (r *fakeMonthRepo) Clear(_ context.Context) (int64, error) {
	n := int64(len(r.months))
	r.months = map[string]models.MonthRecord{}
	return n, nil
}

// workbook writes rows starting at A1 of the first sheet.
func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func month(year, m int, values map[string]Section) models.MonthRecord {
	r := models.NewMonthRecord(year, m, "")
	for name, s := range values {
		r.SetSection(name, s)
	}
	return r
}

type Section = models.Section
