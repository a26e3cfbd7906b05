package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorDetail is the data block of a failed request: field errors for a rejected form, or the
// listing to return to and the application concerned after a refused state change.
type ErrorDetail struct {
	Errors        map[string]string `json:"errors,omitempty"`
	Redirect      string            `json:"redirect,omitempty"`
	ApplicationID uint              `json:"application_id,omitempty"`
	Status        string            `json:"status,omitempty"`
}

// ListPayload wraps a collection; Query echoes the search term when there is one.
type ListPayload struct {
	Query *string     `json:"query,omitempty"`
	Items interface{} `json:"items"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Created answers 201 with the new resource.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "created", data)
}

// List answers 200 with items as {"items": [...]}. A nil slice is sent as [].
func List[T any](ctx *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	Success(ctx, ListPayload{Items: items})
}

// SearchResult is List with the normalized query echoed back.
func SearchResult[T any](ctx *gin.Context, query string, items []T) {
	if items == nil {
		items = []T{}
	}
	Success(ctx, ListPayload{Query: &query, Items: items})
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// ErrorWithDetail returns an error response carrying field errors or a redirect hint.
func ErrorWithDetail(ctx *gin.Context, status int, code int, message string, detail ErrorDetail) {
	Respond(ctx, status, code, message, detail)
}

// FieldErrors answers 400 with the per-field messages of a rejected form.
func FieldErrors(ctx *gin.Context, fields map[string]string) {
	ErrorWithDetail(ctx, http.StatusBadRequest, 40000, "validation failed", ErrorDetail{Errors: fields})
}
