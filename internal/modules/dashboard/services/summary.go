package services

import (
	"sort"

	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
)

// Summary aggregates a period of months.
type Summary struct {
	Months      int     `json:"months"`
	Expenses    float64 `json:"expenses"`
	Hours       float64 `json:"hours"`
	Revenue     float64 `json:"revenue"`
	Fuel        float64 `json:"fuel"`
	Fixed       float64 `json:"fixed"`
	Maintenance float64 `json:"maintenance"`
	VariableOps float64 `json:"variableOps"`
	CostPerHour float64 `json:"costPerHour"`
	FuelPerHour float64 `json:"fuelPerHour"`
}

// BreakdownItem is one named cost line summed over a period.
type BreakdownItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type fieldLabel struct {
	field string
	name  string
}

var breakdownLabels = map[string][]fieldLabel{
	models.SectionFixedServices: {
		{"crewSalaries", "Crew Salaries"},
		{"crewBenefits", "Crew Benefits"},
		{"training", "Training"},
		{"hangar", "Hangar"},
		{"permits", "Permits & Subscriptions"},
		{"insurance", "Insurance"},
		{"managementFee", "Management Fee"},
	},
	models.SectionVariableOps: {
		{"fuel", "Fuel"},
		{"coordination", "Flight Coordination"},
		{"landing", "Landing Fees"},
		{"terminalHandling", "Terminal & Handling"},
		{"navigationFees", "Navigation Fees"},
		{"crewExpenses", "Crew Expenses"},
		{"grooming", "Aircraft Grooming"},
	},
	models.SectionVariableMaint: {
		{"engineProgram", "Engine Program"},
		{"apuProgram", "APU Program"},
		{"scheduledMaint", "Scheduled Maintenance"},
		{"unscheduledMaint", "Unscheduled Maintenance"},
	},
}

func sum(months []models.MonthRecord, section, field string) float64 {
	var total float64
	for i := range months {
		total += months[i].Value(section, field)
	}
	return total
}

// Summarize totals a period. Expenses are fixed services plus both variable
// sections; per-hour figures are zero when no hours were flown.
func Summarize(months []models.MonthRecord) Summary {
	s := Summary{
		Months:      len(months),
		Hours:       sum(months, models.SectionFlightHours, "total"),
		Revenue:     sum(months, models.SectionRevenue, "total"),
		Fuel:        sum(months, models.SectionVariableOps, "fuel"),
		Fixed:       sum(months, models.SectionFixedServices, "total"),
		Maintenance: sum(months, models.SectionVariableMaint, "total"),
		VariableOps: sum(months, models.SectionVariableOps, "total"),
	}
	s.Expenses = s.Fixed + s.VariableOps + s.Maintenance
	if s.Hours > 0 {
		s.CostPerHour = s.Expenses / s.Hours
		s.FuelPerHour = s.Fuel / s.Hours
	}
	return s
}

// Breakdown lists the positive cost lines of a section, largest first.
func Breakdown(months []models.MonthRecord, section string) []BreakdownItem {
	items := []BreakdownItem{}
	for _, l := range breakdownLabels[section] {
		if v := sum(months, section, l.field); v > 0 {
			items = append(items, BreakdownItem{Name: l.name, Value: v})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Value > items[j].Value })
	return items
}

// BreakdownSections are the sections Breakdown has labels for.
var BreakdownSections = []string{models.SectionFixedServices, models.SectionVariableOps, models.SectionVariableMaint}
