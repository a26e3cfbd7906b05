// Package testutil holds the in-memory database, fake file store and seed helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cppla/jobboard/config"
	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/storage"
	"github.com/cppla/jobboard/utils"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), "error")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db, models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// ErrInsertFailed is returned by inserts that FailInserts intercepts.
var ErrInsertFailed = errors.New("insert failed")

// FailInserts makes every subsequent INSERT into table fail with ErrInsertFailed, so callers can
// check that a multi-row write leaves nothing behind.
func FailInserts(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("testutil:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(ErrInsertFailed)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

// MemStore is a FileStore that keeps files in memory.
type MemStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	seq     int
	SaveErr error
}

var _ storage.FileStore = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{files: map[string][]byte{}}
}

func (m *MemStore) Save(_ context.Context, owner uint, filename string, r io.Reader) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := path.Join("cvs", "mem", fmt.Sprintf("%d_%d_%s", owner, m.seq, path.Base(filename)))
	m.files[ref] = b
	return ref, nil
}

func (m *MemStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[ref]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *MemStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	return nil
}

// Has reports whether ref is stored.
func (m *MemStore) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[ref]
	return ok
}

// Len returns the number of stored files.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// CreateUser inserts an account with password "secret-pass".
func CreateUser(t testing.TB, db *gorm.DB, username string, isCompany bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: username, PasswordHash: hash, IsCompany: isCompany}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &u
}

// CreateJob inserts a posting owned by recruiterID with the given questions and their options.
func CreateJob(t testing.TB, db *gorm.DB, recruiterID uint, title, description string, questions ...models.Question) *models.JobPosting {
	t.Helper()
	job := models.JobPosting{
		RecruiterID:  recruiterID,
		Title:        title,
		Description:  description,
		MinEducation: "bachelor",
		Questions:    questions,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job %q: %v", title, err)
	}
	return &job
}

// CreateApplication inserts an application with the given status and answers.
func CreateApplication(t testing.TB, db *gorm.DB, jobID, applicantID uint, status models.ApplicationStatus, answers ...models.Answer) *models.Application {
	t.Helper()
	app := models.Application{
		JobPostingID: jobID,
		ApplicantID:  applicantID,
		CV:           fmt.Sprintf("cvs/mem/seed_%d_%d.pdf", jobID, applicantID),
		Status:       status,
		Answers:      answers,
	}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	return &app
}

// OpenQuestion builds an open question for CreateJob.
func OpenQuestion(text string) models.Question {
	return models.Question{Text: text, Type: models.QuestionOpen}
}

// ClosedQuestion builds a closed question with options for CreateJob.
func ClosedQuestion(text string, options ...string) models.Question {
	q := models.Question{Text: text, Type: models.QuestionClosed}
	for _, o := range options {
		q.Options = append(q.Options, models.QuestionOption{Text: o})
	}
	return q
}
