package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Section names, as used in the stored JSON and the API.
const (
	SectionFlightHours   = "flightHours"
	SectionFixedServices = "fixedServices"
	SectionVariableOps   = "variableOps"
	SectionVariableMaint = "variableMaint"
	SectionRevenue       = "revenue"
	SectionTotals        = "totals"
)

// MonthNames are the short month names indexed by zero-based month.
var MonthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Section holds the named figures of one statement section.
type Section map[string]float64

// MonthRecord is one month of an aircraft operating statement. The key uses
// a zero-based month: "2024-08" is September 2024.
type MonthRecord struct {
	MonthKey      string                      `gorm:"primaryKey;type:varchar(7)" json:"month_key"`
	MonthNum      int                         `gorm:"not null" json:"month_num"`
	YearNum       int                         `gorm:"not null" json:"year_num"`
	Label         string                      `gorm:"type:varchar(16);not null" json:"label"`
	FlightHours   datatypes.JSONType[Section] `gorm:"type:jsonb" json:"flight_hours"`
	FixedServices datatypes.JSONType[Section] `gorm:"type:jsonb" json:"fixed_services"`
	VariableOps   datatypes.JSONType[Section] `gorm:"type:jsonb" json:"variable_ops"`
	VariableMaint datatypes.JSONType[Section] `gorm:"type:jsonb" json:"variable_maint"`
	Revenue       datatypes.JSONType[Section] `gorm:"type:jsonb" json:"revenue"`
	Totals        datatypes.JSONType[Section] `gorm:"type:jsonb" json:"totals"`
	SourceFile    string                      `gorm:"type:varchar(255)" json:"source_file"`
	SourceFiles   pq.StringArray              `gorm:"type:text[]" json:"source_files"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MonthRecord) TableName() string {
	return "aircraft_months"
}

// MonthKey builds the storage key for a zero-based month.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// MonthLabel renders a short label such as "Sep'24".
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%s'%02d", MonthNames[month], year%100)
}

// NewMonthRecord returns an empty record for the given zero-based month.
func NewMonthRecord(year, month int, sourceFile string) MonthRecord {
	r := MonthRecord{
		MonthKey:   MonthKey(year, month),
		MonthNum:   month,
		YearNum:    year,
		Label:      MonthLabel(year, month),
		SourceFile: sourceFile,
	}
	if sourceFile != "" {
		r.SourceFiles = pq.StringArray{sourceFile}
	}
	for _, name := range []string{SectionFlightHours, SectionFixedServices, SectionVariableOps, SectionVariableMaint, SectionRevenue, SectionTotals} {
		r.SetSection(name, Section{})
	}
	return r
}

// Section returns the named section, or nil for an unknown name.
func (r *MonthRecord) Section(name string) Section {
	switch name {
	case SectionFlightHours:
		return r.FlightHours.Data()
	case SectionFixedServices:
		return r.FixedServices.Data()
	case SectionVariableOps:
		return r.VariableOps.Data()
	case SectionVariableMaint:
		return r.VariableMaint.Data()
	case SectionRevenue:
		return r.Revenue.Data()
	case SectionTotals:
		return r.Totals.Data()
	}
	return nil
}

// SetSection replaces the named section.
func (r *MonthRecord) SetSection(name string, s Section) {
	v := datatypes.NewJSONType(s)
	switch name {
	case SectionFlightHours:
		r.FlightHours = v
	case SectionFixedServices:
		r.FixedServices = v
	case SectionVariableOps:
		r.VariableOps = v
	case SectionVariableMaint:
		r.VariableMaint = v
	case SectionRevenue:
		r.Revenue = v
	case SectionTotals:
		r.Totals = v
	}
}

// Value returns one figure, 0 when absent.
func (r *MonthRecord) Value(section, field string) float64 {
	return r.Section(section)[field]
}

// Validate checks that the key, month and year agree.
func (r *MonthRecord) Validate() error {
	if r.MonthNum < 0 || r.MonthNum > 11 {
		return fmt.Errorf("month_num must be between 0 and 11, got %d", r.MonthNum)
	}
	if r.YearNum < 1900 || r.YearNum > 9999 {
		return fmt.Errorf("year_num out of range: %d", r.YearNum)
	}
	if want := MonthKey(r.YearNum, r.MonthNum); r.MonthKey != want {
		return fmt.Errorf("month_key %q does not match %s", r.MonthKey, want)
	}
	return nil
}
