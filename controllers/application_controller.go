package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/utils"
)

// ApplicationController handles applying, withdrawing and recruiter review.
type ApplicationController struct {
	apps       *services.ApplicationService
	maxCVBytes int64
}

// NewApplicationController creates an ApplicationController. maxCVBytes <= 0 skips the early size check.
func NewApplicationController(apps *services.ApplicationService, maxCVBytes int64) *ApplicationController {
	return &ApplicationController{apps: apps, maxCVBytes: maxCVBytes}
}

// Apply accepts a multipart form with a "cv" file and "answers[<questionID>]" fields.
func (a *ApplicationController) Apply(ctx *gin.Context) {
	jobID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	verr := &services.ValidationError{}
	var cv *services.CVUpload
	file, header, err := ctx.Request.FormFile("cv")
	switch {
	case err != nil:
		verr.Add("cv", "this field is required")
	case a.maxCVBytes > 0 && header.Size > a.maxCVBytes:
		_ = file.Close()
		verr.Add("cv", fmt.Sprintf("file size exceeds %d MB", a.maxCVBytes>>20))
	default:
		defer file.Close()
		cv = &services.CVUpload{Filename: header.Filename, Content: file}
	}

	answers := make(map[uint]string)
	for key, value := range ctx.PostFormMap("answers") {
		id, perr := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if perr != nil || id == 0 {
			verr.Add(fmt.Sprintf("answers[%s]", key), "unknown question")
			continue
		}
		answers[uint(id)] = value
	}
	caller := currentIdentity(ctx)
	if verr.Err() != nil {
		// a missing posting outranks form errors
		if err := a.apps.CheckApplicable(ctx.Request.Context(), caller, jobID); err != nil {
			respondError(ctx, err, "")
			return
		}
		respondError(ctx, verr, "")
		return
	}

	app, err := a.apps.Apply(ctx.Request.Context(), caller, jobID, cv, answers)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Created(ctx, app)
}

// MyApplications lists the caller's applications.
func (a *ApplicationController) MyApplications(ctx *gin.Context) {
	apps, err := a.apps.ListMine(ctx.Request.Context(), currentIdentity(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.List(ctx, apps)
}

// DeleteMyApplication withdraws a pending application.
func (a *ApplicationController) DeleteMyApplication(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.apps.DeleteMine(ctx.Request.Context(), currentIdentity(ctx), id); err != nil {
		respondError(ctx, err, myApplicationsPath)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id, "redirect": myApplicationsPath})
}

// Received lists applications across the caller's postings.
func (a *ApplicationController) Received(ctx *gin.Context) {
	apps, err := a.apps.ListReceived(ctx.Request.Context(), currentIdentity(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.List(ctx, apps)
}

// Detail shows a pending application with its answers.
func (a *ApplicationController) Detail(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	app, err := a.apps.ViewDetail(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		respondError(ctx, err, receivedApplicationsPath)
		return
	}
	utils.Success(ctx, app)
}

// UpdateStatus accepts or rejects a pending application.
func (a *ApplicationController) UpdateStatus(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	app, err := a.apps.UpdateStatus(ctx.Request.Context(), currentIdentity(ctx), id, ctx.Param("status"))
	if err != nil {
		respondError(ctx, err, receivedApplicationsPath)
		return
	}
	utils.Success(ctx, gin.H{"id": app.ID, "status": app.Status, "redirect": receivedApplicationsPath})
}

// DownloadCV streams the stored CV to the applicant or the posting owner.
func (a *ApplicationController) DownloadCV(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	rc, name, err := a.apps.OpenCV(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	defer rc.Close()

	ctx.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
