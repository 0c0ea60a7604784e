package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/utils"
)

// BlockHandler handles block routes
type BlockHandler struct {
	Catalog *services.CatalogService
}

// ListBlocks handles GET /api/blocks
// @Summary List blocks
// @Tags Blocks
// @Produce json
// @Param keyword query string false "Case-insensitive name substring"
// @Param appId query string false "Owning app"
// @Param status query string false "Block status"
// @Param type query string false "component, page or module"
// @Param category query string false "Category"
// @Param page query int false "Page (1-indexed)"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} store.Paginated[models.Block]
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /blocks [get]
func (h *BlockHandler) ListBlocks(c *fiber.Ctx) error {
	result, err := h.Catalog.ListBlocks(c.UserContext(), store.BlockFilter{
		AppID:    query(c, "appId"),
		Status:   query(c, "status"),
		Type:     query(c, "type"),
		Category: query(c, "category"),
		Keyword:  query(c, "keyword"),
		Page:     parsePage(c),
	})
	if err != nil {
		return failure(err, "blocks.list")
	}
	return c.JSON(result)
}

// BlockStats handles GET /api/blocks/stats
// @Summary Count blocks
// @Tags Blocks
// @Produce json
// @Success 200 {object} utils.TotalResponse
// @Router /blocks/stats [get]
func (h *BlockHandler) BlockStats(c *fiber.Ctx) error {
	total, err := h.Catalog.CountBlocks(c.UserContext())
	if err != nil {
		return failure(err, "blocks.stats")
	}
	return c.JSON(utils.TotalResponse{Total: total})
}

// Categories handles GET /api/blocks/categories/list
// @Summary Distinct block categories
// @Tags Blocks
// @Produce json
// @Success 200 {array} string
// @Router /blocks/categories/list [get]
func (h *BlockHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.Catalog.BlockCategories(c.UserContext())
	if err != nil {
		return failure(err, "blocks.categories")
	}
	return c.JSON(categories)
}

// CreateBlock handles POST /api/blocks
// @Summary Create a block
// @Description New blocks start as drafts.
// @Tags Blocks
// @Accept json
// @Produce json
// @Param body body services.BlockInput true "Block"
// @Success 201 {object} models.Block
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks [post]
func (h *BlockHandler) CreateBlock(c *fiber.Ctx) error {
	var body services.BlockInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("blocks.create", err)
	}
	block, err := h.Catalog.CreateBlock(c.UserContext(), actor(c), body)
	if err != nil {
		return failure(err, "blocks.create")
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

// GetBlock handles GET /api/blocks/:id
// @Summary Get a block
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} models.Block
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/{id} [get]
func (h *BlockHandler) GetBlock(c *fiber.Ctx) error {
	block, err := h.Catalog.GetBlock(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(err, "blocks.get")
	}
	return c.JSON(block)
}

// UpdateBlock handles PUT /api/blocks/:id
// @Summary Update a block
// @Tags Blocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param body body services.BlockInput true "Block"
// @Success 200 {object} models.Block
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/{id} [put]
func (h *BlockHandler) UpdateBlock(c *fiber.Ctx) error {
	var body services.BlockInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("blocks.update", err)
	}
	block, err := h.Catalog.UpdateBlock(c.UserContext(), c.Params("id"), body)
	if err != nil {
		return failure(err, "blocks.update")
	}
	return c.JSON(block)
}

// ArchiveBlock handles DELETE /api/blocks/:id
// @Summary Archive a block
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} models.Block
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /blocks/{id} [delete]
func (h *BlockHandler) ArchiveBlock(c *fiber.Ctx) error {
	block, err := h.Catalog.ArchiveBlock(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return failure(err, "blocks.archive")
	}
	return c.JSON(block)
}

// RecordDownload handles POST /api/blocks/:id/downloads
// @Summary Count a download
// @Tags Blocks
// @Param id path string true "Block ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/{id}/downloads [post]
func (h *BlockHandler) RecordDownload(c *fiber.Ctx) error {
	if err := h.Catalog.RecordDownload(c.UserContext(), c.Params("id")); err != nil {
		return failure(err, "blocks.download")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BlockRegions handles GET /api/blocks/:id/regions
// @Summary Regions used by a block's versions
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {array} string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/{id}/regions [get]
func (h *BlockHandler) BlockRegions(c *fiber.Ctx) error {
	regions, err := h.Catalog.BlockRegions(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(err, "blocks.regions")
	}
	return c.JSON(regions)
}
