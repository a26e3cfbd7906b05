package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/middleware"
	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/utils"
)

const (
	receivedApplicationsPath = "/api/v1/applications/received"
	myApplicationsPath       = "/api/v1/my-applications"
)

// currentIdentity reads the caller placed in the context by middleware.AuthRequired.
func currentIdentity(ctx *gin.Context) services.Identity {
	return services.Identity{
		UserID:    ctx.GetUint(middleware.ContextUserIDKey),
		Username:  ctx.GetString(middleware.ContextUsernameKey),
		IsCompany: ctx.GetBool(middleware.ContextIsCompanyKey),
	}
}

// parseID reads a positive numeric path parameter. It writes the 404 itself when the value is bad.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(n), true
}

// respondError maps service errors onto the JSON envelope. redirect is the listing a client
// should return to after an illegal state change.
func respondError(ctx *gin.Context, err error, redirect string) {
	var verr *services.ValidationError
	var terr *services.TransitionError
	var perr *services.AlreadyProcessedError

	switch {
	case errors.As(err, &verr):
		utils.FieldErrors(ctx, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, services.ErrForbiddenRole):
		utils.Error(ctx, http.StatusForbidden, 40300, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, 40106, err.Error())
	case errors.As(err, &terr):
		utils.ErrorWithDetail(ctx, http.StatusConflict, 40900, terr.Reason, utils.ErrorDetail{Redirect: redirect})
	case errors.As(err, &perr):
		utils.ErrorWithDetail(ctx, http.StatusConflict, 40901, perr.Error(), utils.ErrorDetail{
			Redirect:      receivedApplicationsPath,
			ApplicationID: perr.ApplicationID,
			Status:        string(perr.Status),
		})
	default:
		utils.Sugar.Errorw("request failed", "method", ctx.Request.Method, "path", ctx.FullPath(), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

// bindJSON decodes the body, answering 400 on malformed JSON.
func bindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return false
	}
	return true
}
