package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseType struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// BeforeCreate hook to generate UUID
func (ct *CaseType) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == "" {
		ct.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseType model
func (CaseType) TableName() string {
	return "case_types"
}
