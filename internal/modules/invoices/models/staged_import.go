package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StagedImport is a document discovered in the watch folder, waiting to be
// fetched into the queue. A path is staged again when its size or
// modification time changes.
type StagedImport struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SourcePath   string     `gorm:"type:text;not null;uniqueIndex:idx_staged_imports_version" json:"sourcePath"`
	FileName     string     `gorm:"type:varchar(255);not null" json:"fileName"`
	Size         int64      `gorm:"not null;default:0;uniqueIndex:idx_staged_imports_version" json:"size"`
	ModTime      time.Time  `gorm:"not null;uniqueIndex:idx_staged_imports_version" json:"modTime"`
	DiscoveredAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"discoveredAt"`
	FetchedAt    *time.Time `json:"fetchedAt,omitempty"`
}

func (StagedImport) TableName() string {
	return "staged_imports"
}

func (s *StagedImport) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.DiscoveredAt.IsZero() {
		s.DiscoveredAt = time.Now()
	}
	return nil
}
