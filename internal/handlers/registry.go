package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/registry"
)

// ListEnvironments handles GET /api/registry/environments
// @Summary Deployment environments in release order
// @Tags Registry
// @Produce json
// @Success 200 {array} registry.EnvironmentConfig
// @Router /registry/environments [get]
func ListEnvironments(c *fiber.Ctx) error {
	return c.JSON(registry.Environments())
}

// ListRegions handles GET /api/registry/regions
// @Summary Region catalogue
// @Description With members=true the "all regions" option is listed first.
// @Tags Registry
// @Produce json
// @Param members query bool false "Include the all-regions option"
// @Success 200 {array} registry.Region
// @Router /registry/regions [get]
func ListRegions(c *fiber.Ctx) error {
	if c.QueryBool("members") {
		return c.JSON(registry.MemberRegionOptions())
	}
	return c.JSON(registry.Regions())
}
