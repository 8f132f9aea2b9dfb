package httpapi

import (
	"net/http"
	"strconv"
	"workcore/pkg/domain"

	"github.com/gin-gonic/gin"
)

func (h *handler) createProject(c *gin.Context) {
	var in domain.ProjectInput
	if !bindJSON(c, &in) {
		return
	}
	created, err := h.svc.CreateProject(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (h *handler) getProject(c *gin.Context) {
	p, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *handler) listProjects(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	if summary, _ := strconv.ParseBool(c.Query("summary")); summary {
		page, err := h.svc.ListProjectSummaries(c.Request.Context(), opts)
		if err != nil {
			h.fail(c, err)
			return
		}
		ok(c, http.StatusOK, page)
		return
	}
	page, err := h.svc.ListProjects(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *handler) updateProject(c *gin.Context) {
	var patch domain.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *handler) updateProjectStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.UpdateProjectStatus(c.Request.Context(), c.Param("id"), domain.ProjectStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *handler) updateProjectProgress(c *gin.Context) {
	var in domain.ProgressInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.UpdateProjectProgress(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *handler) syncProjectProgress(c *gin.Context) {
	p, err := h.svc.SyncProjectProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// deleteProject soft-deletes unless hard=true is given.
func (h *handler) deleteProject(c *gin.Context) {
	hard, _ := strconv.ParseBool(c.Query("hard"))
	var err error
	if hard {
		err = h.svc.HardDeleteProject(c.Request.Context(), c.Param("id"))
	} else {
		err = h.svc.DeleteProject(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) restoreProject(c *gin.Context) {
	p, err := h.svc.RestoreProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

type bulkProjectUpdate struct {
	IDs   []string            `json:"ids"`
	Patch domain.ProjectPatch `json:"patch"`
}

func (h *handler) bulkUpdateProjects(c *gin.Context) {
	var req bulkProjectUpdate
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.BulkUpdateProjects(c.Request.Context(), req.IDs, req.Patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, bulk(res))
}

func (h *handler) bulkDeleteProjects(c *gin.Context) {
	var req refsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.BulkDeleteProjects(c.Request.Context(), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, bulk(res))
}

func (h *handler) listAuditLog(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	page, err := h.svc.ListAuditLog(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *handler) listMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, members)
}

func (h *handler) addMember(c *gin.Context) {
	var in domain.MemberInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.AddMember(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *handler) updateMemberRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateMemberRole(c.Request.Context(), c.Param("id"), c.Param("userId"), domain.MemberRole(req.Role))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *handler) removeMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
