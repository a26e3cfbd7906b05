package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/storage"
	"github.com/cppla/jobboard/utils"
)

// ApplicationService handles submissions by students and their review by recruiters.
type ApplicationService struct {
	db          *gorm.DB
	files       storage.FileStore
	allowedExts map[string]bool
}

// CVUpload is the uploaded CV as received from the form.
type CVUpload struct {
	Filename string
	Content  io.Reader
}

// NewApplicationService creates an ApplicationService. An empty allowedExts accepts any extension.
func NewApplicationService(db *gorm.DB, files storage.FileStore, allowedExts []string) *ApplicationService {
	exts := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &ApplicationService{db: db, files: files, allowedExts: exts}
}

// Apply creates a pending application for jobID with the CV and the non-blank answers.
// Answer keys must be questions of that posting.
func (s *ApplicationService) Apply(ctx context.Context, caller Identity, jobID uint, cv *CVUpload, answers map[uint]string) (*models.Application, error) {
	job, err := s.loadApplicable(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if cv == nil || cv.Content == nil || strings.TrimSpace(cv.Filename) == "" {
		verr.Add("cv", "this field is required")
	} else if len(s.allowedExts) > 0 && !s.allowedExts[strings.ToLower(filepath.Ext(cv.Filename))] {
		verr.Add("cv", "unsupported file type")
	}
	rows, aerr := bindAnswers(job.Questions, answers)
	verr.Merge(aerr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	ref, err := s.files.Save(ctx, caller.UserID, cv.Filename, cv.Content)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, newFieldError("cv", err.Error())
		}
		return nil, fmt.Errorf("store cv: %w", err)
	}

	app := models.Application{
		JobPostingID: job.ID,
		ApplicantID:  caller.UserID,
		CV:           ref,
		Status:       models.StatusPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Answers", "JobPosting", "Applicant").Create(&app).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ApplicationID = app.ID
		}
		if err := tx.Omit("Question").Create(&rows).Error; err != nil {
			return fmt.Errorf("create answers: %w", err)
		}
		return nil
	})
	if err != nil {
		if derr := s.files.Delete(ctx, ref); derr != nil {
			utils.Sugar.Warnw("cv rollback cleanup failed", "ref", ref, "error", derr)
		}
		return nil, err
	}
	app.Answers = rows
	utils.Sugar.Infow("application submitted", "application_id", app.ID, "job_id", job.ID, "applicant_id", caller.UserID, "answers", len(rows))
	return &app, nil
}

// CheckApplicable runs the checks Apply makes before it looks at the form: the caller is a
// student and the posting exists.
func (s *ApplicationService) CheckApplicable(ctx context.Context, caller Identity, jobID uint) error {
	_, err := s.loadApplicable(ctx, caller, jobID)
	return err
}

func (s *ApplicationService) loadApplicable(ctx context.Context, caller Identity, jobID uint) (*models.JobPosting, error) {
	if err := caller.requireStudent(); err != nil {
		return nil, err
	}
	var job models.JobPosting
	if err := withQuestions(s.db.WithContext(ctx)).First(&job, jobID).Error; err != nil {
		return nil, notFoundOr(err, "load job posting")
	}
	return &job, nil
}

// bindAnswers turns submitted values into Answer rows, one per answered question, ordered by question id.
func bindAnswers(questions []models.Question, answers map[uint]string) ([]models.Answer, *ValidationError) {
	verr := &ValidationError{}
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]models.Answer, 0, len(ids))
	for _, id := range ids {
		field := fmt.Sprintf("answers[%d]", id)
		q, ok := byID[id]
		if !ok {
			verr.Add(field, "question does not belong to this job posting")
			continue
		}
		text := utils.SanitizeBody(answers[id])
		if text == "" {
			continue
		}
		if q.Type == models.QuestionClosed && len(q.Options) > 0 && !containsString(q.OptionTexts(), text) {
			verr.Add(field, "select one of the offered options")
			continue
		}
		rows = append(rows, models.Answer{QuestionID: id, AnswerText: text})
	}
	return rows, verr
}

// ListMine returns the caller's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, caller Identity) ([]models.Application, error) {
	if err := caller.requireStudent(); err != nil {
		return nil, err
	}
	var apps []models.Application
	err := s.db.WithContext(ctx).Preload("JobPosting").
		Where("applicant_id = ?", caller.UserID).
		Order("submitted_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list my applications: %w", err)
	}
	return apps, nil
}

// DeleteMine withdraws one of the caller's pending applications.
func (s *ApplicationService) DeleteMine(ctx context.Context, caller Identity, applicationID uint) error {
	if err := caller.requireStudent(); err != nil {
		return err
	}
	var cv string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Where("id = ? AND applicant_id = ?", applicationID, caller.UserID).First(&app).Error; err != nil {
			return notFoundOr(err, "load application")
		}
		if app.Status != models.StatusPending {
			return &TransitionError{From: app.Status, To: "withdrawn", Reason: "only pending applications can be withdrawn"}
		}
		if err := tx.Where("application_id = ?", app.ID).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if err := tx.Delete(&models.Application{}, app.ID).Error; err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		cv = app.CV
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, cv); err != nil {
		utils.Sugar.Warnw("cv cleanup failed", "ref", cv, "error", err)
	}
	return nil
}

// ListReceived returns applications on every posting the caller owns, newest first.
func (s *ApplicationService) ListReceived(ctx context.Context, caller Identity) ([]models.Application, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	owned := s.db.Model(&models.JobPosting{}).Select("id").Where("recruiter_id = ?", caller.UserID)
	var apps []models.Application
	err := s.db.WithContext(ctx).Preload("JobPosting").Preload("Applicant").
		Where("job_posting_id IN (?)", owned).
		Order("submitted_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list received applications: %w", err)
	}
	return apps, nil
}

// ViewDetail returns a pending application with its answers. Decided applications are refused
// with an AlreadyProcessedError so each one is reviewed once.
func (s *ApplicationService) ViewDetail(ctx context.Context, caller Identity, applicationID uint) (*models.Application, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	app, err := s.loadReviewable(s.db.WithContext(ctx), caller, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusPending {
		name := ""
		if app.Applicant != nil {
			name = app.Applicant.Username
		}
		return nil, &AlreadyProcessedError{ApplicationID: app.ID, Applicant: name, Status: app.Status}
	}
	return app, nil
}

// UpdateStatus records the recruiter's decision on a pending application.
func (s *ApplicationService) UpdateStatus(ctx context.Context, caller Identity, applicationID uint, status string) (*models.Application, error) {
	if err := caller.requireCompany(); err != nil {
		return nil, err
	}
	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadReviewable(tx, caller, applicationID)
		if err != nil {
			return err
		}
		next, err := decide(loaded.Status, status)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", loaded.ID, models.StatusPending).
			Update("status", next)
		if res.Error != nil {
			return fmt.Errorf("update application status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &TransitionError{From: loaded.Status, To: status, Reason: "application was decided concurrently"}
		}
		loaded.Status = next
		app = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("application decided", "application_id", app.ID, "status", app.Status, "recruiter_id", caller.UserID)
	return app, nil
}

// OpenCV streams the CV of an application to its applicant or to the owner of the posting.
func (s *ApplicationService) OpenCV(ctx context.Context, caller Identity, applicationID uint) (io.ReadCloser, string, error) {
	var app models.Application
	q := s.db.WithContext(ctx).Model(&models.Application{}).Select("applications.*")
	if caller.IsCompany {
		q = q.Joins("JOIN job_postings ON job_postings.id = applications.job_posting_id").
			Where("applications.id = ? AND job_postings.recruiter_id = ?", applicationID, caller.UserID)
	} else {
		q = q.Where("applications.id = ? AND applications.applicant_id = ?", applicationID, caller.UserID)
	}
	if err := q.First(&app).Error; err != nil {
		return nil, "", notFoundOr(err, "load application")
	}
	rc, err := s.files.Open(ctx, app.CV)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidRef) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open cv: %w", err)
	}
	return rc, filepath.Base(app.CV), nil
}

// loadReviewable loads an application whose posting belongs to the caller.
func (s *ApplicationService) loadReviewable(conn *gorm.DB, caller Identity, applicationID uint) (*models.Application, error) {
	var app models.Application
	err := conn.Model(&models.Application{}).
		Select("applications.*").
		Joins("JOIN job_postings ON job_postings.id = applications.job_posting_id").
		Where("applications.id = ? AND job_postings.recruiter_id = ?", applicationID, caller.UserID).
		Preload("Applicant").
		Preload("JobPosting").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("question_id ASC") }).
		Preload("Answers.Question").
		First(&app).Error
	if err != nil {
		return nil, notFoundOr(err, "load application")
	}
	return &app, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
