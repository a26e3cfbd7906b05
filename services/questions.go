package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/utils"
)

// OptionsDelimiter separates option labels in the legacy single-field encoding.
const OptionsDelimiter = "||"

// ParseOptions returns the option labels of a closed question. The structured list wins; the
// delimiter-joined text is used only when the list is empty. Labels are trimmed and blanks dropped.
func ParseOptions(options []string, optionsText string) []string {
	raw := options
	if len(raw) == 0 && strings.TrimSpace(optionsText) != "" {
		raw = strings.Split(optionsText, OptionsDelimiter)
	}
	out := make([]string, 0, len(raw))
	for _, opt := range raw {
		if label := utils.SanitizeText(opt); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// questionPlan is a sanitized question sub-form ready to be written.
type questionPlan struct {
	index   int
	id      uint
	text    string
	qtype   models.QuestionType
	options []string
	delete  bool
}

// normalizeQuestions sanitizes sub-forms and drops new questions with empty text.
// Existing questions (id set) must keep a text unless they are being deleted.
func normalizeQuestions(inputs []QuestionInput) ([]questionPlan, *ValidationError) {
	verr := &ValidationError{}
	plans := make([]questionPlan, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("questions[%d]", i)
		if in.Delete {
			if in.ID != 0 {
				plans = append(plans, questionPlan{index: i, id: in.ID, delete: true})
			}
			continue
		}
		text := utils.SanitizeText(in.Text)
		if text == "" {
			if in.ID != 0 {
				verr.Add(field+".text", "this field is required")
			}
			continue
		}
		if len([]rune(text)) > maxQuestionLength {
			verr.Add(field+".text", fmt.Sprintf("ensure this value has at most %d characters", maxQuestionLength))
		}
		qtype := models.QuestionType(strings.ToLower(strings.TrimSpace(string(in.Type))))
		if !qtype.Valid() {
			verr.Add(field+".question_type", "select a valid choice: open or closed")
			continue
		}
		plan := questionPlan{index: i, id: in.ID, text: text, qtype: qtype}
		if qtype == models.QuestionClosed {
			plan.options = ParseOptions(in.Options, in.OptionsText)
			for _, o := range plan.options {
				if len([]rune(o)) > maxOptionLength {
					verr.Add(field+".options", fmt.Sprintf("ensure each option has at most %d characters", maxOptionLength))
					break
				}
			}
		}
		plans = append(plans, plan)
	}
	return plans, verr
}

// createQuestion inserts a question and, for closed questions, its options.
func createQuestion(tx *gorm.DB, jobID uint, plan questionPlan) (*models.Question, error) {
	q := models.Question{JobPostingID: jobID, Text: plan.text, Type: plan.qtype}
	if err := tx.Omit("Options").Create(&q).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	if plan.qtype == models.QuestionClosed {
		if err := insertOptions(tx, q.ID, plan.options); err != nil {
			return nil, err
		}
	}
	return &q, nil
}

// replaceOptions deletes every option of the question and recreates them from labels.
func replaceOptions(tx *gorm.DB, questionID uint, labels []string) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&models.QuestionOption{}).Error; err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	return insertOptions(tx, questionID, labels)
}

func insertOptions(tx *gorm.DB, questionID uint, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	opts := make([]models.QuestionOption, 0, len(labels))
	for _, label := range labels {
		opts = append(opts, models.QuestionOption{QuestionID: questionID, Text: label})
	}
	if err := tx.Create(&opts).Error; err != nil {
		return fmt.Errorf("create options: %w", err)
	}
	return nil
}

// deleteQuestions removes questions together with their options and the answers given to them.
func deleteQuestions(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("question_id IN ?", ids).Delete(&models.Answer{}).Error; err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if err := tx.Where("question_id IN ?", ids).Delete(&models.QuestionOption{}).Error; err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}
