package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/utils"
)

// AppHandler handles app and member routes
type AppHandler struct {
	Catalog *services.CatalogService
}

// ListApps handles GET /api/apps
// @Summary List apps
// @Tags Apps
// @Produce json
// @Param keyword query string false "Case-insensitive name substring"
// @Param status query string false "active or inactive"
// @Param page query int false "Page (1-indexed)"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} store.Paginated[models.App]
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /apps [get]
func (h *AppHandler) ListApps(c *fiber.Ctx) error {
	result, err := h.Catalog.ListApps(c.UserContext(), store.AppFilter{
		Keyword: query(c, "keyword"),
		Status:  query(c, "status"),
		Page:    parsePage(c),
	})
	if err != nil {
		return failure(err, "apps.list")
	}
	return c.JSON(result)
}

// AppStats handles GET /api/apps/stats
// @Summary Count apps
// @Tags Apps
// @Produce json
// @Success 200 {object} utils.TotalResponse
// @Router /apps/stats [get]
func (h *AppHandler) AppStats(c *fiber.Ctx) error {
	total, err := h.Catalog.CountApps(c.UserContext())
	if err != nil {
		return failure(err, "apps.stats")
	}
	return c.JSON(utils.TotalResponse{Total: total})
}

// CreateApp handles POST /api/apps/create
// @Summary Create an app
// @Tags Apps
// @Accept json
// @Produce json
// @Param body body services.AppInput true "App"
// @Success 201 {object} models.App
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /apps/create [post]
func (h *AppHandler) CreateApp(c *fiber.Ctx) error {
	var body services.AppInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("apps.create", err)
	}
	app, err := h.Catalog.CreateApp(c.UserContext(), body)
	if err != nil {
		return failure(err, "apps.create")
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetApp handles GET /api/apps/:id
// @Summary Get an app
// @Tags Apps
// @Produce json
// @Param id path string true "App ID"
// @Success 200 {object} models.App
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id} [get]
func (h *AppHandler) GetApp(c *fiber.Ctx) error {
	app, err := h.Catalog.GetApp(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(err, "apps.get")
	}
	return c.JSON(app)
}

// UpdateApp handles PUT /api/apps/:id
// @Summary Update an app
// @Tags Apps
// @Accept json
// @Produce json
// @Param id path string true "App ID"
// @Param body body services.AppInput true "App"
// @Success 200 {object} models.App
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id} [put]
func (h *AppHandler) UpdateApp(c *fiber.Ctx) error {
	var body services.AppInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("apps.update", err)
	}
	app, err := h.Catalog.UpdateApp(c.UserContext(), c.Params("id"), body)
	if err != nil {
		return failure(err, "apps.update")
	}
	return c.JSON(app)
}

// ListMembers handles GET /api/apps/:id/members
// @Summary List app members
// @Tags Members
// @Produce json
// @Param id path string true "App ID"
// @Param page query int false "Page (1-indexed)"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} store.Paginated[models.AppMember]
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id}/members [get]
func (h *AppHandler) ListMembers(c *fiber.Ctx) error {
	result, err := h.Catalog.ListMembers(c.UserContext(), c.Params("id"), parsePage(c))
	if err != nil {
		return failure(err, "members.list")
	}
	return c.JSON(result)
}

// AddMember handles POST /api/apps/:id/members
// @Summary Add a member
// @Description Regions accept a single key or a list and are normalized.
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "App ID"
// @Param body body services.MemberInput true "Member"
// @Success 201 {object} models.AppMember
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /apps/{id}/members [post]
func (h *AppHandler) AddMember(c *fiber.Ctx) error {
	var body services.MemberInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("members.add", err)
	}
	member, err := h.Catalog.AddMember(c.UserContext(), c.Params("id"), body)
	if err != nil {
		return failure(err, "members.add")
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// MyMembership handles GET /api/apps/:id/members/me
// @Summary Current actor's membership
// @Tags Members
// @Produce json
// @Param id path string true "App ID"
// @Success 200 {object} models.AppMember
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id}/members/me [get]
func (h *AppHandler) MyMembership(c *fiber.Ctx) error {
	member, err := h.Catalog.GetMembership(c.UserContext(), c.Params("id"), actor(c))
	if err != nil {
		return failure(err, "members.me")
	}
	return c.JSON(member)
}

// UpdateMember handles PUT /api/apps/:id/members/:memberId
// @Summary Update a member's role or regions
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "App ID"
// @Param memberId path string true "Member ID"
// @Param body body services.MemberInput true "Member"
// @Success 200 {object} models.AppMember
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id}/members/{memberId} [put]
func (h *AppHandler) UpdateMember(c *fiber.Ctx) error {
	var body services.MemberInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("members.update", err)
	}
	member, err := h.Catalog.UpdateMember(c.UserContext(), c.Params("id"), c.Params("memberId"), body)
	if err != nil {
		return failure(err, "members.update")
	}
	return c.JSON(member)
}

// RemoveMember handles DELETE /api/apps/:id/members/:memberId
// @Summary Remove a member
// @Tags Members
// @Param id path string true "App ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /apps/{id}/members/{memberId} [delete]
func (h *AppHandler) RemoveMember(c *fiber.Ctx) error {
	if err := h.Catalog.RemoveMember(c.UserContext(), c.Params("id"), c.Params("memberId")); err != nil {
		return failure(err, "members.remove")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
