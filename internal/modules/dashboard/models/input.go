package models

import "github.com/lib/pq"

// MonthInput is the shape clients post to save months.
type MonthInput struct {
	Key           string  `json:"key"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`
	Label         string  `json:"label"`
	FlightHours   Section `json:"flightHours"`
	FixedServices Section `json:"fixedServices"`
	VariableOps   Section `json:"variableOps"`
	VariableMaint Section `json:"variableMaint"`
	Revenue       Section `json:"revenue"`
	Totals        Section `json:"totals"`
	SourceFile    string  `json:"sourceFile"`
}

// Record converts the input, deriving the key and label when omitted.
func (in MonthInput) Record() MonthRecord {
	r := NewMonthRecord(in.Year, clampMonth(in.Month), in.SourceFile)
	r.MonthNum = in.Month
	if in.Key != "" {
		r.MonthKey = in.Key
	}
	if in.Label != "" {
		r.Label = in.Label
	}
	if in.SourceFile == "" {
		r.SourceFiles = pq.StringArray{}
	}
	for name, s := range map[string]Section{
		SectionFlightHours:   in.FlightHours,
		SectionFixedServices: in.FixedServices,
		SectionVariableOps:   in.VariableOps,
		SectionVariableMaint: in.VariableMaint,
		SectionRevenue:       in.Revenue,
		SectionTotals:        in.Totals,
	} {
		if s == nil {
			s = Section{}
		}
		r.SetSection(name, s)
	}
	return r
}

// clampMonth keeps label rendering safe; Validate reports the real problem.
func clampMonth(m int) int {
	if m < 0 || m > 11 {
		return 0
	}
	return m
}
