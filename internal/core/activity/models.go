package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Type classifies an activity entry.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// MaxEntries is how many entries are kept; older ones are pruned on insert.
const MaxEntries = 100

// Entry is one line of the user-facing activity feed.
type Entry struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null;index:idx_activity_log_timestamp"`
	Type      Type           `json:"type" gorm:"type:varchar(16);not null"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Details   datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

// TableName specifies the table name
func (Entry) TableName() string {
	return "activity_log"
}

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	Type  Type
	Limit int
}
