package services

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"github.com/xuri/excelize/v2"
)

type rowPattern struct {
	section string
	field   string
	re      *regexp.Regexp
}

func pattern(section, field, expr string) rowPattern {
	return rowPattern{section: section, field: field, re: regexp.MustCompile(`(?i)` + expr)}
}

// rowPatterns map first-column labels to section fields. A label may match
// more than one pattern; every match is applied in this order.
var rowPatterns = []rowPattern{
	pattern(models.SectionFlightHours, "private", `private\s*flight\s*hours`),
	pattern(models.SectionFlightHours, "owner", `owner\s*flight\s*hours`),
	pattern(models.SectionFlightHours, "charter", `charter\s*flight\s*hours`),
	pattern(models.SectionFlightHours, "total", `total\s*aircraft\s*flight\s*hours`),

	pattern(models.SectionFixedServices, "crewSalaries", `total\s*flight\s*crew\s*salaries`),
	pattern(models.SectionFixedServices, "training", `total\s*crew\s*training`),
	pattern(models.SectionFixedServices, "hangar", `^hangar$`),
	pattern(models.SectionFixedServices, "permits", `total\s*permits`),
	pattern(models.SectionFixedServices, "insurance", `^insurance$`),
	pattern(models.SectionFixedServices, "managementFee", `management\s*fee`),
	pattern(models.SectionFixedServices, "crewBenefits", `flight\s*crew\s*benefits`),
	pattern(models.SectionFixedServices, "total", `total\s*fixed\s*services`),

	pattern(models.SectionVariableOps, "fuel", `total\s*fuel`),
	pattern(models.SectionVariableOps, "coordination", `flight\s*coordination`),
	pattern(models.SectionVariableOps, "landing", `landing\s*fees`),
	pattern(models.SectionVariableOps, "terminalHandling", `terminal.*handling`),
	pattern(models.SectionVariableOps, "navigationFees", `navigation\s*fees`),
	pattern(models.SectionVariableOps, "crewExpenses", `total\s*crew\s*expenses`),
	pattern(models.SectionVariableOps, "grooming", `aircraft\s*grooming`),
	pattern(models.SectionVariableOps, "total", `total\s*variable\s*services\s*-\s*operations`),

	pattern(models.SectionVariableMaint, "engineProgram", `^engines$`),
	pattern(models.SectionVariableMaint, "apuProgram", `^apu$`),
	pattern(models.SectionVariableMaint, "scheduledMaint", `total\s*scheduled\s*maintenance`),
	pattern(models.SectionVariableMaint, "unscheduledMaint", `total\s*unscheduled\s*maintenance`),
	pattern(models.SectionVariableMaint, "total", `total\s*variable\s*services\s*-\s*maintenance`),

	pattern(models.SectionRevenue, "charter", `charter\s*revenue`),
	pattern(models.SectionRevenue, "owner", `owner.*revenue`),
	pattern(models.SectionRevenue, "total", `total\s*aircraft\s*revenue`),

	pattern(models.SectionTotals, "beforeTaxes", `total\s*services\s*before\s*taxes`),
}

var monthHeaderRe = regexp.MustCompile(`(\w{3})\s+(\d{4})`)

var monthIndex = map[string]int{
	"jan": 0, "feb": 1, "mar": 2, "apr": 3, "may": 4, "jun": 5,
	"jul": 6, "aug": 7, "sep": 8, "oct": 9, "nov": 10, "dec": 11,
}

// ParseMonthHeader reads headers such as "Sep 2024" and returns the year and
// zero-based month.
func ParseMonthHeader(header string) (year, month int, ok bool) {
	m := monthHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false
	}
	month, ok = monthIndex[strings.ToLower(m[1])]
	if !ok {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, month, true
}

type monthColumn struct {
	index int
	key   string
}

// ParseWorkbook reads the first sheet of an operating statement. Row 0 holds
// month headers from column 1 on; every other row is matched on its column 0
// label. Months come back in header order.
func ParseWorkbook(r io.Reader, filename string) ([]models.MonthRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoMonthColumns
	}

	byKey := map[string]*models.MonthRecord{}
	var order []string
	var columns []monthColumn
	for i := 1; i < len(rows[0]); i++ {
		year, month, ok := ParseMonthHeader(rows[0][i])
		if !ok {
			continue
		}
		key := models.MonthKey(year, month)
		if _, seen := byKey[key]; !seen {
			rec := models.NewMonthRecord(year, month, filename)
			byKey[key] = &rec
			order = append(order, key)
		}
		columns = append(columns, monthColumn{index: i, key: key})
	}
	if len(columns) == 0 {
		return nil, ErrNoMonthColumns
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		var values []string
		if i < len(raw) {
			values = raw[i]
		}
		for _, p := range rowPatterns {
			if !p.re.MatchString(label) {
				continue
			}
			for _, col := range columns {
				rec := byKey[col.key]
				section := rec.Section(p.section)
				section[p.field] = cellNumber(values, col.index)
				rec.SetSection(p.section, section)
			}
		}
	}

	out := make([]models.MonthRecord, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out, nil
}

// cellNumber reads a numeric cell; blanks, text and non-finite values count
// as zero. Thousands separators in text cells are dropped, so "1,500" reads
// as 1500 rather than 1.
func cellNumber(row []string, index int) float64 {
	if index >= len(row) {
		return 0
	}
	s := strings.ReplaceAll(strings.TrimSpace(row[index]), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
