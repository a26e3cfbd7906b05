package models

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Application is a student's submission against a posting.
type Application struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	JobPostingID uint              `gorm:"index;not null" json:"job_posting_id"`
	ApplicantID  uint              `gorm:"index;not null" json:"applicant_id"`
	CV           string            `gorm:"column:cv;size:1024;not null" json:"cv"`
	Status       ApplicationStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	SubmittedAt  time.Time         `gorm:"autoCreateTime;index" json:"submitted_at"`
	JobPosting   *JobPosting       `json:"job_posting,omitempty"`
	Applicant    *User             `gorm:"foreignKey:ApplicantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"applicant,omitempty"`
	Answers      []Answer          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers,omitempty"`
}

// Answer is an applicant's reply to one question. It is never updated after creation.
type Answer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"index;not null" json:"application_id"`
	QuestionID    uint      `gorm:"index;not null" json:"question_id"`
	AnswerText    string    `gorm:"type:text;not null" json:"answer_text"`
	Question      *Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"question,omitempty"`
}
