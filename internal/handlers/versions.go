// versions.go
//
// Block release service: versioned blocks, approval gating and per-environment publication
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of blockrelease.
// blockrelease is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// blockrelease is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with blockrelease.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/services"
)

// VersionHandler handles block version creation, queries and publication
type VersionHandler struct {
	Catalog *services.CatalogService
	Release *release.Service
}

// PublishRequest is the body of the publish route
type PublishRequest struct {
	Environment string `json:"environment"`
	Region      string `json:"region,omitempty"`
}

// UnpublishRequest is the body of the unpublish route
type UnpublishRequest struct {
	Environment string `json:"environment"`
}

// ListVersions handles GET /api/blocks/:id/versions
// @Summary List a block's versions
// @Description A concrete region also returns versions targeting every region; "*" returns all.
// @Tags Versions
// @Produce json
// @Param id path string true "Block ID"
// @Param region query string false "Region key"
// @Success 200 {array} models.BlockVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/{id}/versions [get]
func (h *VersionHandler) ListVersions(c *fiber.Ctx) error {
	versions, err := h.Release.ListBlockVersions(c.UserContext(), c.Params("id"), query(c, "region"))
	if err != nil {
		return failure(err, "versions.list")
	}
	return c.JSON(versions)
}

// CreateVersion handles POST /api/blocks/versions
// @Summary Create a block version
// @Description Multipart form; the "package" file is required unless type is config.
// @Tags Versions
// @Accept mpfd
// @Produce json
// @Param blockId formData string true "Block ID"
// @Param version formData string true "Semantic version"
// @Param type formData string false "package or config"
// @Param region formData string false "Region key or *"
// @Param changelog formData string false "Changelog"
// @Param config formData string false "JSON configuration"
// @Param package formData file false "Package file"
// @Success 201 {object} models.BlockVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /blocks/versions [post]
func (h *VersionHandler) CreateVersion(c *fiber.Ctx) error {
	var body services.VersionInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("versions.create", err)
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return invalidInput("versions.create", err)
		}
		if files := form.File["package"]; len(files) > 0 {
			if len(files) > 1 {
				return invalidInput("versions.create", fmt.Errorf("only one package file may be uploaded"))
			}
			file, err := files[0].Open()
			if err != nil {
				return invalidInput("versions.create", err)
			}
			defer file.Close()
			body.Package = &services.PackageUpload{Filename: files[0].Filename, Reader: file}
		}
	}

	version, err := h.Catalog.CreateVersion(c.UserContext(), actor(c), body)
	if err != nil {
		return failure(err, "versions.create")
	}
	return c.Status(fiber.StatusCreated).JSON(version)
}

// GetVersion handles GET /api/blocks/versions/:versionId
// @Summary Get a block version
// @Tags Versions
// @Produce json
// @Param versionId path string true "Version ID"
// @Success 200 {object} models.BlockVersion
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /blocks/versions/{versionId} [get]
func (h *VersionHandler) GetVersion(c *fiber.Ctx) error {
	version, err := h.Catalog.GetVersion(c.UserContext(), c.Params("versionId"))
	if err != nil {
		return failure(err, "versions.get")
	}
	return c.JSON(version)
}

// Publish handles POST /api/blocks/versions/:versionId/publish
// @Summary Publish a version to an environment
// @Tags Versions
// @Accept json
// @Produce json
// @Param versionId path string true "Version ID"
// @Param body body PublishRequest true "Target"
// @Success 200 {object} models.BlockVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /blocks/versions/{versionId}/publish [post]
func (h *VersionHandler) Publish(c *fiber.Ctx) error {
	var body PublishRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("versions.publish", err)
	}
	version, err := h.Release.PublishVersion(c.UserContext(), actor(c), c.Params("versionId"),
		strings.TrimSpace(body.Environment), strings.TrimSpace(body.Region))
	if err != nil {
		return failure(err, "versions.publish")
	}
	return c.JSON(version)
}

// Unpublish handles POST /api/blocks/versions/:versionId/unpublish
// @Summary Withdraw a version from an environment
// @Tags Versions
// @Accept json
// @Produce json
// @Param versionId path string true "Version ID"
// @Param body body UnpublishRequest true "Target"
// @Success 200 {object} models.BlockVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /blocks/versions/{versionId}/unpublish [post]
func (h *VersionHandler) Unpublish(c *fiber.Ctx) error {
	var body UnpublishRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput("versions.unpublish", err)
	}
	version, err := h.Release.UnpublishVersion(c.UserContext(), actor(c), c.Params("versionId"), strings.TrimSpace(body.Environment))
	if err != nil {
		return failure(err, "versions.unpublish")
	}
	return c.JSON(version)
}
