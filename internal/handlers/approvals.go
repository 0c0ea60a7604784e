package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/store"
)

// ApprovalHandler handles the production approval gate
type ApprovalHandler struct {
	Release *release.Service
}

// SubmitRequest is the body of the submit route
type SubmitRequest struct {
	VersionID string `json:"versionId"`
}

// ReviewRequest is the body of the approve and reject routes
type ReviewRequest struct {
	Comment string `json:"comment"`
}

// ListApprovals handles GET /api/approvals/list
// @Summary List approval requests
// @Description Newest first.
// @Tags Approvals
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param blockId query string false "Block ID"
// @Param versionId query string false "Version ID"
// @Param page query int false "Page (1-indexed)"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} store.Paginated[models.ApprovalRequest]
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /approvals/list [get]
func (h *ApprovalHandler) ListApprovals(c *fiber.Ctx) error {
	result, err := h.Release.ListApprovalRequests(c.UserContext(), store.ApprovalFilter{
		Status:    query(c, "status"),
		BlockID:   query(c, "blockId"),
		VersionID: query(c, "versionId"),
		Page:      parsePage(c),
	})
	if err != nil {
		return failure(err, "approvals.list")
	}
	return c.JSON(result)
}

// Submit handles POST /api/approvals/submit
// @Summary Request production approval for a version
// @Tags Approvals
// @Accept json
// @Produce json
// @Param body body SubmitRequest true "Version"
// @Success 201 {object} models.ApprovalRequest
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /approvals/submit [post]
func (h *ApprovalHandler) Submit(c *fiber.Ctx) error {
	var body SubmitRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("approvals.submit", err)
	}
	versionID := strings.TrimSpace(body.VersionID)
	if versionID == "" {
		return failure(release.Validationf("versionId is required"), "approvals.submit")
	}
	req, err := h.Release.SubmitApproval(c.UserContext(), actor(c), versionID)
	if err != nil {
		return failure(err, "approvals.submit")
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// Approve handles POST /api/approvals/:id/approve
// @Summary Approve a pending request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body ReviewRequest false "Optional comment"
// @Success 200 {object} models.ApprovalRequest
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	var body ReviewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return invalidInput("approvals.approve", err)
		}
	}
	req, err := h.Release.ApproveRequest(c.UserContext(), actor(c), c.Params("id"), body.Comment)
	if err != nil {
		return failure(err, "approvals.approve")
	}
	return c.JSON(req)
}

// Reject handles POST /api/approvals/:id/reject
// @Summary Reject a pending request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param body body ReviewRequest true "Reason"
// @Success 200 {object} models.ApprovalRequest
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	var body ReviewRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("approvals.reject", err)
	}
	req, err := h.Release.RejectRequest(c.UserContext(), actor(c), c.Params("id"), body.Comment)
	if err != nil {
		return failure(err, "approvals.reject")
	}
	return c.JSON(req)
}

// LatestForVersion handles GET /api/approvals/version/:versionId
// @Summary Newest approval request for a version
// @Tags Approvals
// @Produce json
// @Param versionId path string true "Version ID"
// @Success 200 {object} models.ApprovalRequest
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /approvals/version/{versionId} [get]
func (h *ApprovalHandler) LatestForVersion(c *fiber.Ctx) error {
	req, err := h.Release.LatestApprovalForVersion(c.UserContext(), c.Params("versionId"))
	if err != nil {
		return failure(err, "approvals.version")
	}
	return c.JSON(req)
}
