// handlers/tasks.go - Task CRUD and listing endpoints
package handlers

import (
	"encoding/json"

	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/services"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateTask handles POST /api/projects/:slug/tasks/create. Open to the
// project's manager and its member contributors.
func CreateTask(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	var in services.TaskInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	task, err := taskService.CreateTask(c.Params("slug"), actor, in)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	return utils.Success(c, fiber.StatusCreated, "Task created successfully.", task)
}

// ListTasks handles GET /api/projects/:slug/tasks. Cached per project, user
// and URL so member and manager views never bleed into each other.
func ListTasks(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	slug := c.Params("slug")
	key := services.TaskListKey(slug, userID, c.OriginalURL())
	if raw, err := listCache.Get(key); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}

	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	page, pageSize := pagination(c)
	tasks, total, err := taskService.ListTasks(slug, actor, c.Query("status"), page, pageSize)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	payload := fiber.Map{
		"success": true,
		"message": "Tasks retrieved successfully.",
		"data": fiber.Map{
			"results":   tasks,
			"count":     total,
			"page":      page,
			"page_size": pageSize,
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return respondServiceError(c, err, "task")
	}
	_ = listCache.Set(key, raw, services.ListCacheTTL)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// GetTask handles GET /api/tasks/:taskSlug.
func GetTask(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	task, err := taskService.GetTask(c.Params("taskSlug"), actor)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	return utils.Success(c, fiber.StatusOK, "Task retrieved successfully.", task)
}

// UpdateTask handles PATCH /api/tasks/:taskSlug/edit. Open to the project's
// manager and its member contributors.
func UpdateTask(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	var in services.TaskInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	task, err := taskService.UpdateTask(c.Params("taskSlug"), actor, in)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	return utils.Success(c, fiber.StatusOK, "Task updated successfully.", task)
}

// DeleteTask handles DELETE /api/tasks/:taskSlug/delete. Soft delete.
func DeleteTask(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "task")
	}

	if err := taskService.DeleteTask(c.Params("taskSlug"), actor); err != nil {
		return respondServiceError(c, err, "task")
	}

	return utils.Success(c, fiber.StatusOK, "Task deleted successfully.", nil)
}
