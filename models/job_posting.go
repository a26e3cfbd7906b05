package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobPosting is a job advertisement owned by a company user.
type JobPosting struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RecruiterID  uint            `gorm:"index;not null" json:"recruiter_id"`
	Title        string          `gorm:"size:200;not null" json:"title"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Salary       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"salary"`
	MinEducation string          `gorm:"size:100;not null" json:"min_education"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Recruiter    *User           `gorm:"foreignKey:RecruiterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"recruiter,omitempty"`
	Questions    []Question      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"questions,omitempty"`
	Applications []Application   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
