package models

// QuestionType distinguishes free-text questions from option-based ones.
type QuestionType string

const (
	QuestionOpen   QuestionType = "open"
	QuestionClosed QuestionType = "closed"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionOpen || t == QuestionClosed
}

// Question is a screening question attached to one job posting.
type Question struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	JobPostingID uint             `gorm:"index;not null" json:"job_posting_id"`
	Text         string           `gorm:"size:255;not null" json:"text"`
	Type         QuestionType     `gorm:"column:question_type;size:10;not null" json:"question_type"`
	Options      []QuestionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options,omitempty"`
}

// QuestionOption is one selectable answer of a closed question.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"size:255;not null" json:"text"`
}

// OptionTexts returns the option labels in stored order.
func (q Question) OptionTexts() []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, o.Text)
	}
	return out
}
