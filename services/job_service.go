package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/storage"
	"github.com/cppla/jobboard/utils"
)

// JobService manages postings and their screening questions.
type JobService struct {
	db    *gorm.DB
	files storage.FileStore
}

// DeletePreview is what the confirmation step shows before a posting is removed.
type DeletePreview struct {
	Job              *models.JobPosting `json:"job"`
	QuestionCount    int64              `json:"question_count"`
	ApplicationCount int64              `json:"application_count"`
}

// NewJobService creates a JobService.
func NewJobService(db *gorm.DB, files storage.FileStore) *JobService {
	return &JobService{db: db, files: files}
}

// Create stores a posting owned by the caller together with its questions and options.
func (s *JobService) Create(ctx context.Context, caller Identity, in JobInput) (*models.JobPosting, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	verr := normalizeJob(&in)
	plans, qerr := normalizeQuestions(in.Questions)
	verr.Merge(qerr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	job := models.JobPosting{
		RecruiterID:  caller.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Salary:       *in.Salary,
		MinEducation: in.MinEducation,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&job).Error; err != nil {
			return fmt.Errorf("create job posting: %w", err)
		}
		for _, plan := range plans {
			if plan.id != 0 {
				// ids only make sense when editing
				continue
			}
			if _, err := createQuestion(tx, job.ID, plan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("job posting created", "job_id", job.ID, "recruiter_id", caller.UserID, "questions", len(plans))
	return s.loadOwned(ctx, s.db, caller, job.ID)
}

// Update rewrites the posting fields and applies each question sub-form. Closed questions that
// carry options get their option set replaced wholesale.
func (s *JobService) Update(ctx context.Context, caller Identity, jobID uint, in JobInput) (*models.JobPosting, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	verr := normalizeJob(&in)
	plans, qerr := normalizeQuestions(in.Questions)
	verr.Merge(qerr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.loadOwned(ctx, tx, caller, jobID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.JobPosting{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
			"title":         in.Title,
			"description":   in.Description,
			"salary":        *in.Salary,
			"min_education": in.MinEducation,
		}).Error; err != nil {
			return fmt.Errorf("update job posting: %w", err)
		}

		existing := make(map[uint]models.Question, len(job.Questions))
		for _, q := range job.Questions {
			existing[q.ID] = q
		}

		var toDelete []uint
		for _, plan := range plans {
			if plan.id == 0 {
				if _, err := createQuestion(tx, job.ID, plan); err != nil {
					return err
				}
				continue
			}
			if _, ok := existing[plan.id]; !ok {
				return newFieldError(fmt.Sprintf("questions[%d].id", plan.index), "question does not belong to this job posting")
			}
			if plan.delete {
				toDelete = append(toDelete, plan.id)
				continue
			}
			if err := tx.Model(&models.Question{}).Where("id = ?", plan.id).Updates(map[string]interface{}{
				"text":          plan.text,
				"question_type": plan.qtype,
			}).Error; err != nil {
				return fmt.Errorf("update question: %w", err)
			}
			switch {
			case plan.qtype == models.QuestionOpen:
				if err := tx.Where("question_id = ?", plan.id).Delete(&models.QuestionOption{}).Error; err != nil {
					return fmt.Errorf("clear options: %w", err)
				}
			case len(plan.options) > 0:
				if err := replaceOptions(tx, plan.id, plan.options); err != nil {
					return err
				}
			}
		}
		return deleteQuestions(tx, toDelete)
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("job posting updated", "job_id", jobID, "recruiter_id", caller.UserID)
	return s.loadOwned(ctx, s.db, caller, jobID)
}

// ListOwned returns the caller's postings, newest first.
func (s *JobService) ListOwned(ctx context.Context, caller Identity) ([]models.JobPosting, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	var jobs []models.JobPosting
	err := withQuestions(s.db.WithContext(ctx)).
		Where("recruiter_id = ?", caller.UserID).
		Order("created_at DESC, id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list job postings: %w", err)
	}
	return jobs, nil
}

// GetOwned returns one of the caller's postings.
func (s *JobService) GetOwned(ctx context.Context, caller Identity, jobID uint) (*models.JobPosting, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	return s.loadOwned(ctx, s.db, caller, jobID)
}

// Get returns any posting with its questions, for browsing and the apply form.
func (s *JobService) Get(ctx context.Context, jobID uint) (*models.JobPosting, error) {
	var job models.JobPosting
	err := withQuestions(s.db.WithContext(ctx)).Preload("Recruiter").First(&job, jobID).Error
	if err != nil {
		return nil, notFoundOr(err, "load job posting")
	}
	return &job, nil
}

// Search matches query case-insensitively against title or description. An empty query lists everything.
func (s *JobService) Search(ctx context.Context, query string) ([]models.JobPosting, error) {
	q := s.db.WithContext(ctx).Preload("Recruiter").Order("created_at DESC, id DESC")
	if term := strings.TrimSpace(query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	var jobs []models.JobPosting
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("search job postings: %w", err)
	}
	return jobs, nil
}

// PrepareDelete is the view step of deletion: it reports what the cascade would remove.
func (s *JobService) PrepareDelete(ctx context.Context, caller Identity, jobID uint) (*DeletePreview, error) {
	job, err := s.GetOwned(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	preview := &DeletePreview{Job: job, QuestionCount: int64(len(job.Questions))}
	if err := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("job_posting_id = ?", job.ID).
		Count(&preview.ApplicationCount).Error; err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	return preview, nil
}

// Delete removes the posting with its questions, options, applications and answers once confirmed.
func (s *JobService) Delete(ctx context.Context, caller Identity, jobID uint, confirm bool) error {
	if err := caller.requireCompany(); err != nil {
		return err
	}
	if !confirm {
		return newFieldError("confirm", "deletion must be confirmed")
	}

	var cvs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.loadOwned(ctx, tx, caller, jobID)
		if err != nil {
			return err
		}
		var apps []models.Application
		if err := tx.Select("id", "cv").Where("job_posting_id = ?", job.ID).Find(&apps).Error; err != nil {
			return fmt.Errorf("load applications: %w", err)
		}
		if len(apps) > 0 {
			appIDs := make([]uint, 0, len(apps))
			for _, a := range apps {
				appIDs = append(appIDs, a.ID)
				cvs = append(cvs, a.CV)
			}
			if err := tx.Where("application_id IN ?", appIDs).Delete(&models.Answer{}).Error; err != nil {
				return fmt.Errorf("delete answers: %w", err)
			}
			if err := tx.Where("id IN ?", appIDs).Delete(&models.Application{}).Error; err != nil {
				return fmt.Errorf("delete applications: %w", err)
			}
		}
		questionIDs := make([]uint, 0, len(job.Questions))
		for _, q := range job.Questions {
			questionIDs = append(questionIDs, q.ID)
		}
		if err := deleteQuestions(tx, questionIDs); err != nil {
			return err
		}
		if err := tx.Delete(&models.JobPosting{}, job.ID).Error; err != nil {
			return fmt.Errorf("delete job posting: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ref := range cvs {
		if err := s.files.Delete(ctx, ref); err != nil {
			utils.Sugar.Warnw("cv cleanup failed", "ref", ref, "error", err)
		}
	}
	utils.Sugar.Infow("job posting deleted", "job_id", jobID, "recruiter_id", caller.UserID, "applications", len(cvs))
	return nil
}

// ListApplications returns the applications of one owned posting, newest first.
func (s *JobService) ListApplications(ctx context.Context, caller Identity, jobID uint) ([]models.Application, error) {
	if _, err := s.GetOwned(ctx, caller, jobID); err != nil {
		return nil, err
	}
	var apps []models.Application
	err := s.db.WithContext(ctx).Preload("Applicant").
		Where("job_posting_id = ?", jobID).
		Order("submitted_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *JobService) loadOwned(ctx context.Context, conn *gorm.DB, caller Identity, jobID uint) (*models.JobPosting, error) {
	var job models.JobPosting
	err := withQuestions(conn.WithContext(ctx)).
		Where("id = ? AND recruiter_id = ?", jobID, caller.UserID).
		First(&job).Error
	if err != nil {
		return nil, notFoundOr(err, "load job posting")
	}
	return &job, nil
}

func withQuestions(q *gorm.DB) *gorm.DB {
	return q.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// escapeLike makes % and _ literal for a LIKE ... ESCAPE '!' pattern.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
