package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/services"
)

// Register mounts every /api route on api. Reads are public; mutations and
// the membership lookup run behind auth.
func Register(api fiber.Router, catalog *services.CatalogService, releases *release.Service, auth fiber.Handler) {
	appHandler := &AppHandler{Catalog: catalog}
	blockHandler := &BlockHandler{Catalog: catalog}
	versionHandler := &VersionHandler{Catalog: catalog, Release: releases}
	approvalHandler := &ApprovalHandler{Release: releases}

	apps := api.Group("/apps")
	apps.Get("/", appHandler.ListApps)
	apps.Get("/stats", appHandler.AppStats)
	apps.Post("/create", auth, appHandler.CreateApp)
	apps.Get("/:id", appHandler.GetApp)
	apps.Put("/:id", auth, appHandler.UpdateApp)
	apps.Get("/:id/members", appHandler.ListMembers)
	apps.Post("/:id/members", auth, appHandler.AddMember)
	apps.Get("/:id/members/me", auth, appHandler.MyMembership)
	apps.Put("/:id/members/:memberId", auth, appHandler.UpdateMember)
	apps.Delete("/:id/members/:memberId", auth, appHandler.RemoveMember)

	// static segments before /:id
	blocks := api.Group("/blocks")
	blocks.Get("/", blockHandler.ListBlocks)
	blocks.Get("/stats", blockHandler.BlockStats)
	blocks.Get("/categories/list", blockHandler.Categories)
	blocks.Post("/", auth, blockHandler.CreateBlock)
	blocks.Post("/versions", auth, versionHandler.CreateVersion)
	blocks.Get("/versions/:versionId", versionHandler.GetVersion)
	blocks.Post("/versions/:versionId/publish", auth, versionHandler.Publish)
	blocks.Post("/versions/:versionId/unpublish", auth, versionHandler.Unpublish)
	blocks.Get("/:id", blockHandler.GetBlock)
	blocks.Put("/:id", auth, blockHandler.UpdateBlock)
	blocks.Delete("/:id", auth, blockHandler.ArchiveBlock)
	blocks.Post("/:id/downloads", blockHandler.RecordDownload)
	blocks.Get("/:id/versions", versionHandler.ListVersions)
	blocks.Get("/:id/regions", blockHandler.BlockRegions)

	approvals := api.Group("/approvals")
	approvals.Get("/list", approvalHandler.ListApprovals)
	approvals.Post("/submit", auth, approvalHandler.Submit)
	approvals.Post("/:id/approve", auth, approvalHandler.Approve)
	approvals.Post("/:id/reject", auth, approvalHandler.Reject)
	approvals.Get("/version/:versionId", approvalHandler.LatestForVersion)

	reg := api.Group("/registry")
	reg.Get("/environments", ListEnvironments)
	reg.Get("/regions", ListRegions)
}
