// handlers/projects.go - Project CRUD, listing and membership endpoints
package handlers

import (
	"encoding/json"

	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/services"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateProject handles POST /api/projects/create. Managers only.
func CreateProject(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	var in services.ProjectInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := authService.GetUser(userID)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	project, err := projectService.CreateProject(user, in)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusCreated, "Project created successfully.", project)
}

// ListProjects handles GET /api/projects. The rendered page is cached per
// user and URL; writes anywhere in the project graph invalidate it.
func ListProjects(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	key := services.ProjectListKey(userID, c.OriginalURL())
	if raw, err := listCache.Get(key); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}

	page, pageSize := pagination(c)
	projects, total, err := projectService.ListProjects(userID, c.Query("status"), page, pageSize)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	payload := fiber.Map{
		"success": true,
		"message": "Projects retrieved successfully.",
		"data": fiber.Map{
			"results":   projects,
			"count":     total,
			"page":      page,
			"page_size": pageSize,
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return respondServiceError(c, err, "project")
	}
	_ = listCache.Set(key, raw, services.ListCacheTTL)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// GetProject handles GET /api/projects/:slug. Manager of the project only.
func GetProject(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	project, err := projectService.GetProject(c.Params("slug"), actor)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusOK, "Project retrieved successfully.", project)
}

// UpdateProject handles PATCH /api/projects/:slug/edit.
func UpdateProject(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	var in services.ProjectInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	project, err := projectService.UpdateProject(c.Params("slug"), actor, in)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusOK, "Project updated successfully.", project)
}

// DeleteProject handles DELETE /api/projects/:slug/delete. Soft delete.
func DeleteProject(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	if err := projectService.DeleteProject(c.Params("slug"), actor); err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusOK, "Project deleted successfully.", nil)
}

// ProjectMembers handles GET /api/projects/:slug/members. Open to the
// project's manager and its members.
func ProjectMembers(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	members, err := projectService.Members(c.Params("slug"), actor)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusOK, "Members retrieved successfully.", members)
}

func loadActor(c *fiber.Ctx) (services.Actor, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return services.Anonymous{}, nil
	}
	return services.LoadActor(db, userID)
}
