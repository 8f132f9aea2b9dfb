package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"workcore/pkg/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Kind       string                   `json:"kind"`
	Message    string                   `json:"message"`
	Permission string                   `json:"permission,omitempty"`
	Violations []domain.ValidationError `json:"violations,omitempty"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState, domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidationFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": errorBody{Kind: kind, Message: message}})
}

// fail writes err as a JSON error. Errors without a domain kind are logged
// and reported as internal.
func (h *handler) fail(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	c.AbortWithStatusJSON(statusFor(derr.Kind), gin.H{"ok": false, "error": errorBody{
		Kind:       string(derr.Kind),
		Message:    derr.Error(),
		Permission: derr.Permission,
		Violations: derr.Violations,
	}})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"ok": true, "data": data})
}

func badRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, "bad_request", message)
}

type bulkResponse[T any] struct {
	Succeeded      []T                  `json:"succeeded"`
	Failed         []domain.BulkFailure `json:"failed"`
	SucceededCount int                  `json:"succeeded_count"`
	FailedCount    int                  `json:"failed_count"`
}

func bulk[T any](r domain.BulkResult[T]) bulkResponse[T] {
	return bulkResponse[T]{
		Succeeded:      r.Succeeded,
		Failed:         r.Failed,
		SucceededCount: len(r.Succeeded),
		FailedCount:    len(r.Failed),
	}
}

// listOptions reads limit, offset, sort_by, sort_order, search,
// include_deleted and filter[key]=value query parameters.
func listOptions(c *gin.Context) (domain.ListOptions, bool) {
	opts := domain.ListOptions{
		SortBy:    c.Query("sort_by"),
		SortOrder: domain.SortOrder(strings.ToLower(c.Query("sort_order"))),
		Search:    c.Query("search"),
	}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, name+" must be an integer")
			return domain.ListOptions{}, false
		}
		*dst = n
	}
	if raw := c.Query("include_deleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "include_deleted must be a boolean")
			return domain.ListOptions{}, false
		}
		opts.IncludeDeleted = b
	}
	if filters := c.QueryMap("filter"); len(filters) > 0 {
		opts.Filters = filters
	}
	return opts, true
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return false
	}
	return true
}

type refsRequest struct {
	IDs []string `json:"ids"`
}

type statusRequest struct {
	Status string `json:"status"`
}
