package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/utils"
)

// JobController exposes posting management for companies and job browsing for everyone signed in.
type JobController struct {
	jobs *services.JobService
}

// NewJobController creates a JobController.
func NewJobController(jobs *services.JobService) *JobController {
	return &JobController{jobs: jobs}
}

// ListJobs returns the caller's own postings.
func (j *JobController) ListJobs(ctx *gin.Context) {
	jobs, err := j.jobs.ListOwned(ctx.Request.Context(), currentIdentity(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.List(ctx, jobs)
}

// CreateJob stores a posting with its questions.
func (j *JobController) CreateJob(ctx *gin.Context) {
	var req services.JobInput
	if !bindJSON(ctx, &req) {
		return
	}
	job, err := j.jobs.Create(ctx.Request.Context(), currentIdentity(ctx), req)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Created(ctx, job)
}

// GetJob returns one owned posting.
func (j *JobController) GetJob(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	job, err := j.jobs.GetOwned(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, job)
}

// UpdateJob edits an owned posting and its question sub-forms.
func (j *JobController) UpdateJob(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req services.JobInput
	if !bindJSON(ctx, &req) {
		return
	}
	job, err := j.jobs.Update(ctx.Request.Context(), currentIdentity(ctx), id, req)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, job)
}

// ConfirmDelete shows what deleting the posting would remove.
func (j *JobController) ConfirmDelete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	preview, err := j.jobs.PrepareDelete(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, preview)
}

// DeleteJob removes the posting once {"confirm": true} is posted.
func (j *JobController) DeleteJob(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	if err := j.jobs.Delete(ctx.Request.Context(), currentIdentity(ctx), id, req.Confirm); err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// JobApplications lists the applications of one owned posting.
func (j *JobController) JobApplications(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	apps, err := j.jobs.ListApplications(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.List(ctx, apps)
}

// SearchJobs matches ?q= against titles and descriptions.
func (j *JobController) SearchJobs(ctx *gin.Context) {
	query := ctx.Query("q")
	jobs, err := j.jobs.Search(ctx.Request.Context(), query)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.SearchResult(ctx, strings.TrimSpace(query), jobs)
}

// JobDetail returns any posting with its questions.
func (j *JobController) JobDetail(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	job, err := j.jobs.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, job)
}
