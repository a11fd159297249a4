// handlers/contributors.go - Contributor skill endpoints
package handlers

import (
	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
)

// GetSkills handles GET /api/skills for the authenticated contributor.
func GetSkills(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	contributor, err := contributorService.GetByUser(userID)
	if err != nil {
		return respondServiceError(c, err, "contributor profile")
	}

	return utils.Success(c, fiber.StatusOK, "Skills retrieved successfully.", fiber.Map{
		"skills": contributor.SkillList(),
	})
}

// UpdateSkills handles POST /api/skills. Replaces the skill set.
func UpdateSkills(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	var req struct {
		Skills []string `json:"skills"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	contributor, err := contributorService.UpdateSkills(userID, req.Skills)
	if err != nil {
		return respondServiceError(c, err, "contributor profile")
	}

	return utils.Success(c, fiber.StatusOK, "Skills updated successfully.", fiber.Map{
		"skills": contributor.SkillList(),
	})
}

// RunSweeps handles POST /api/sweeps/run. Manual trigger for the scheduled
// overdue reconciliation, managers only.
func RunSweeps(c *fiber.Ctx) error {
	if scheduler == nil {
		return utils.Fail(c, fiber.StatusServiceUnavailable, "Scheduler is not running.")
	}

	scheduler.RunSweeps()
	return utils.Success(c, fiber.StatusOK, "Sweeps completed.", nil)
}
