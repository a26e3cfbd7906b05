package services

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/testutil"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

type fixture struct {
	db       *gorm.DB
	files    *testutil.MemStore
	jobs     *JobService
	apps     *ApplicationService
	accounts *AccountService
	company  Identity
	other    Identity
	student  Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	files := testutil.NewMemStore()
	f := &fixture{
		db:       db,
		files:    files,
		jobs:     NewJobService(db, files),
		apps:     NewApplicationService(db, files, []string{"pdf", ".docx"}),
		accounts: NewAccountService(db, time.Hour),
	}
	f.company = identityOf(testutil.CreateUser(t, db, "acme", true))
	f.other = identityOf(testutil.CreateUser(t, db, "globex", true))
	f.student = identityOf(testutil.CreateUser(t, db, "alice", false))
	return f
}

func identityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, IsCompany: u.IsCompany}
}

func salary(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func jobInput(title string, questions ...QuestionInput) JobInput {
	return JobInput{
		Title:        title,
		Description:  "We build things.",
		Salary:       salary("4200.00"),
		MinEducation: "bachelor",
		Questions:    questions,
	}
}

func pdf(body string) *CVUpload {
	return &CVUpload{Filename: "cv.pdf", Content: strings.NewReader(body)}
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
