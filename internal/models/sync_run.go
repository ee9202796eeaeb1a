package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncRun records one synchronization pass over a project.
type SyncRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectPath string         `gorm:"index;not null" json:"projectPath"`
	BaseURL     string         `gorm:"not null" json:"baseUrl"`
	Trigger     string         `gorm:"not null;default:'manual'" json:"trigger"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Results     datatypes.JSON `json:"results"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (SyncRun) TableName() string { return "sync_runs" }

func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
