package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/testutil"
)

func seedJob(t *testing.T, f *fixture) *models.JobPosting {
	t.Helper()
	return testutil.CreateJob(t, f.db, f.company.UserID, "Engineer", "desc",
		testutil.OpenQuestion("Why us?"),
		testutil.ClosedQuestion("Remote?", "Yes", "No"),
		testutil.OpenQuestion("Anything else?"),
	)
}

func TestApplySkipsBlankAnswers(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f)
	q := job.Questions

	app, err := f.apps.Apply(context.Background(), f.student, job.ID, pdf("cv"), map[uint]string{
		q[0].ID: "I like it",
		q[1].ID: "Yes",
		q[2].ID: "   ",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != models.StatusPending || app.ApplicantID != f.student.UserID {
		t.Fatalf("unexpected application %+v", app)
	}
	if n := count(t, f.db, &models.Answer{}, "application_id = ?", app.ID); n != 2 {
		t.Fatalf("expected 2 answers, got %d", n)
	}
	if !f.files.Has(app.CV) {
		t.Fatal("expected CV to be stored")
	}
}

func TestApplyRejectsForeignQuestion(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f)
	other := testutil.CreateJob(t, f.db, f.other.UserID, "Other", "desc", testutil.OpenQuestion("Foreign?"))

	_, err := f.apps.Apply(context.Background(), f.student, job.ID, pdf("cv"), map[uint]string{
		job.Questions[0].ID:   "ok",
		other.Questions[0].ID: "sneaky",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields[fmt.Sprintf("answers[%d]", other.Questions[0].ID)]; !ok {
		t.Fatalf("expected error on the foreign question, got %v", verr.Fields)
	}
	if n := count(t, f.db, &models.Application{}, ""); n != 0 {
		t.Fatalf("expected nothing written, got %d applications", n)
	}
	if f.files.Len() != 0 {
		t.Fatal("expected no CV stored")
	}
}

func TestApplyValidation(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f)
	ctx := context.Background()

	var verr *ValidationError
	_, err := f.apps.Apply(ctx, f.student, job.ID, pdf("cv"), map[uint]string{job.Questions[1].ID: "Maybe"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected closed answer to be checked, got %v", err)
	}
	if _, err := f.apps.Apply(ctx, f.student, job.ID, nil, nil); !errors.As(err, &verr) || verr.Fields["cv"] == "" {
		t.Fatalf("expected cv required, got %v", err)
	}
	exe := &CVUpload{Filename: "cv.exe", Content: pdf("x").Content}
	if _, err := f.apps.Apply(ctx, f.student, job.ID, exe, nil); !errors.As(err, &verr) {
		t.Fatalf("expected cv error, got %v", err)
	}
	if _, err := f.apps.Apply(ctx, f.company, job.ID, pdf("cv"), nil); !errors.Is(err, ErrForbiddenRole) {
		t.Fatalf("expected forbidden role for companies, got %v", err)
	}
	if _, err := f.apps.Apply(ctx, f.student, 9999, pdf("cv"), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.apps.CheckApplicable(ctx, f.student, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.apps.CheckApplicable(ctx, f.company, job.ID); !errors.Is(err, ErrForbiddenRole) {
		t.Fatalf("expected forbidden role, got %v", err)
	}
	if err := f.apps.CheckApplicable(ctx, f.student, job.ID); err != nil {
		t.Fatalf("expected open posting, got %v", err)
	}
}

func TestApplyStoreFailure(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f)
	f.files.SaveErr = errors.New("disk full")

	_, err := f.apps.Apply(context.Background(), f.student, job.ID, pdf("cv"), nil)
	if err == nil {
		t.Fatal("expected store error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("store failure is not a validation error: %v", err)
	}
	if n := count(t, f.db, &models.Application{}, ""); n != 0 {
		t.Fatalf("expected nothing written, got %d applications", n)
	}
}

func TestApplyRollsBackOnAnswerFailure(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f)
	testutil.FailInserts(t, f.db, "answers")

	_, err := f.apps.Apply(context.Background(), f.student, job.ID, pdf("cv"), map[uint]string{
		job.Questions[0].ID: "I like it",
	})
	if !errors.Is(err, testutil.ErrInsertFailed) {
		t.Fatalf("expected insert failure, got %v", err)
	}
	if n := count(t, f.db, &models.Application{}, ""); n != 0 {
		t.Fatalf("expected no application, got %d", n)
	}
	if f.files.Len() != 0 {
		t.Fatal("expected the stored CV to be removed")
	}
}

func TestMyApplicationsAndWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f)
	bob := identityOf(testutil.CreateUser(t, f.db, "bob", false))

	mine, err := f.apps.Apply(ctx, f.student, job.ID, pdf("a"), map[uint]string{job.Questions[0].ID: "hi"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.apps.Apply(ctx, bob, job.ID, pdf("b"), nil); err != nil {
		t.Fatalf("apply: %v", err)
	}

	list, err := f.apps.ListMine(ctx, f.student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].JobPosting == nil || list[0].JobPosting.Title != "Engineer" {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := f.apps.DeleteMine(ctx, bob, mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another student, got %v", err)
	}
	if err := f.apps.DeleteMine(ctx, f.student, mine.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if n := count(t, f.db, &models.Answer{}, "application_id = ?", mine.ID); n != 0 {
		t.Fatalf("expected answers removed, got %d", n)
	}
	if f.files.Has(mine.CV) {
		t.Fatal("expected CV removed")
	}

	decided := testutil.CreateApplication(t, f.db, job.ID, f.student.UserID, models.StatusAccepted)
	var terr *TransitionError
	if err := f.apps.DeleteMine(ctx, f.student, decided.ID); !errors.As(err, &terr) {
		t.Fatalf("expected transition error for a decided application, got %v", err)
	}
}

func TestReceivedApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f)
	foreign := testutil.CreateJob(t, f.db, f.other.UserID, "Other", "desc")
	testutil.CreateApplication(t, f.db, job.ID, f.student.UserID, models.StatusPending)
	testutil.CreateApplication(t, f.db, foreign.ID, f.student.UserID, models.StatusPending)

	apps, err := f.apps.ListReceived(ctx, f.company)
	if err != nil {
		t.Fatalf("received: %v", err)
	}
	if len(apps) != 1 || apps[0].JobPostingID != job.ID {
		t.Fatalf("expected only own postings, got %+v", apps)
	}
	if _, err := f.apps.ListReceived(ctx, f.student); !errors.Is(err, ErrForbiddenRole) {
		t.Fatalf("expected forbidden role, got %v", err)
	}
}

func TestDetailThenDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f)
	app, err := f.apps.Apply(ctx, f.student, job.ID, pdf("cv"), map[uint]string{
		job.Questions[1].ID: "No",
		job.Questions[0].ID: "Because",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for i := 0; i < 2; i++ {
		d, err := f.apps.ViewDetail(ctx, f.company, app.ID)
		if err != nil {
			t.Fatalf("detail #%d: %v", i, err)
		}
		if d.Status != models.StatusPending || len(d.Answers) != 2 || d.Answers[0].Question == nil {
			t.Fatalf("unexpected detail %+v", d)
		}
		if d.Answers[0].QuestionID != job.Questions[0].ID {
			t.Fatalf("expected answers ordered by question")
		}
	}
	if _, err := f.apps.ViewDetail(ctx, f.other, app.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another company, got %v", err)
	}

	var terr *TransitionError
	if _, err := f.apps.UpdateStatus(ctx, f.company, app.ID, "pending"); !errors.As(err, &terr) {
		t.Fatalf("expected transition error, got %v", err)
	}
	if _, err := f.apps.UpdateStatus(ctx, f.other, app.ID, "accepted"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another company, got %v", err)
	}
	decided, err := f.apps.UpdateStatus(ctx, f.company, app.ID, "accepted")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if decided.Status != models.StatusAccepted {
		t.Fatalf("expected accepted, got %s", decided.Status)
	}
	if _, err := f.apps.UpdateStatus(ctx, f.company, app.ID, "rejected"); !errors.As(err, &terr) {
		t.Fatalf("expected decided application to be final, got %v", err)
	}

	_, err = f.apps.ViewDetail(ctx, f.company, app.ID)
	var perr *AlreadyProcessedError
	if !errors.As(err, &perr) {
		t.Fatalf("expected already processed, got %v", err)
	}
	if perr.Applicant != "alice" || perr.Status != models.StatusAccepted {
		t.Fatalf("unexpected warning %+v", perr)
	}
	if perr.Error() != "the application of alice has already been processed" {
		t.Fatalf("unexpected message %q", perr.Error())
	}
}

func TestOpenCV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := seedJob(t, f)
	app, err := f.apps.Apply(ctx, f.student, job.ID, pdf("%PDF-1.4"), nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, caller := range []Identity{f.student, f.company} {
		rc, _, err := f.apps.OpenCV(ctx, caller, app.ID)
		if err != nil {
			t.Fatalf("open as %s: %v", caller.Username, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if string(b) != "%PDF-1.4" {
			t.Fatalf("unexpected content %q", b)
		}
	}
	if _, _, err := f.apps.OpenCV(ctx, f.other, app.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another company, got %v", err)
	}
}
