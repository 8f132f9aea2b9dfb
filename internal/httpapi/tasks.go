package httpapi

import (
	"net/http"
	"workcore/pkg/domain"

	"github.com/gin-gonic/gin"
)

func (h *handler) createTask(c *gin.Context) {
	var in domain.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	in.ProjectID = c.Param("id")
	created, err := h.svc.CreateTask(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (h *handler) getTask(c *gin.Context) {
	t, err := h.svc.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

func (h *handler) listTasks(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	page, err := h.svc.ListTasks(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *handler) listMyTasks(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	page, err := h.svc.ListMyTasks(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *handler) updateTask(c *gin.Context) {
	var patch domain.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}
	t, err := h.svc.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

func (h *handler) updateTaskStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.UpdateTaskStatus(c.Request.Context(), c.Param("id"), domain.TaskStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

func (h *handler) deleteTask(c *gin.Context) {
	if err := h.svc.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) restoreTask(c *gin.Context) {
	t, err := h.svc.RestoreTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

type bulkTaskUpdate struct {
	IDs   []string         `json:"ids"`
	Patch domain.TaskPatch `json:"patch"`
}

func (h *handler) bulkUpdateTasks(c *gin.Context) {
	var req bulkTaskUpdate
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.BulkUpdateTasks(c.Request.Context(), req.IDs, req.Patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, bulk(res))
}

func (h *handler) bulkDeleteTasks(c *gin.Context) {
	var req refsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.BulkDeleteTasks(c.Request.Context(), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, bulk(res))
}
