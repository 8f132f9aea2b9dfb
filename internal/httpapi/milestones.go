package httpapi

import (
	"net/http"
	"strconv"
	"workcore/pkg/domain"

	"github.com/gin-gonic/gin"
)

func (h *handler) createMilestone(c *gin.Context) {
	var in domain.MilestoneInput
	if !bindJSON(c, &in) {
		return
	}
	in.ProjectID = c.Param("id")
	created, err := h.svc.CreateMilestone(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (h *handler) getMilestone(c *gin.Context) {
	m, err := h.svc.GetMilestone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *handler) listMilestones(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	page, err := h.svc.ListMilestones(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *handler) updateMilestone(c *gin.Context) {
	var patch domain.MilestonePatch
	if !bindJSON(c, &patch) {
		return
	}
	m, err := h.svc.UpdateMilestone(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *handler) updateMilestoneStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateMilestoneStatus(c.Request.Context(), c.Param("id"), domain.MilestoneStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

type deliverableRequest struct {
	Completed bool `json:"completed"`
}

func (h *handler) setDeliverable(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return
	}
	var req deliverableRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.SetDeliverableCompleted(c.Request.Context(), c.Param("id"), index, req.Completed)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *handler) deleteMilestone(c *gin.Context) {
	if err := h.svc.DeleteMilestone(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) restoreMilestone(c *gin.Context) {
	m, err := h.svc.RestoreMilestone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *handler) bulkDeleteMilestones(c *gin.Context) {
	var req refsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.BulkDeleteMilestones(c.Request.Context(), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, bulk(res))
}
