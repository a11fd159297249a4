// handlers/invites.go - Contributor invitation endpoints
package handlers

import (
	"strings"

	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/services"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
)

// InviteContributors handles POST /api/projects/:slug/invite. Managers only.
// Existing contributors are added directly; unknown addresses get a pending
// invite and a registration link by email.
func InviteContributors(c *fiber.Ctx) error {
	actor, err := loadActor(c)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	var req struct {
		Emails []string `json:"emails"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.Emails) == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "At least one email is required.")
	}

	results, err := inviteService.InviteContributors(c.Params("slug"), actor, req.Emails)
	if err != nil {
		return respondServiceError(c, err, "project")
	}

	return utils.Success(c, fiber.StatusOK, "Invitations processed successfully.", results)
}

// AcceptInvite handles POST /api/invite_register. The invite token arrives as
// a query parameter from the emailed link; the body carries the new account.
func AcceptInvite(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "Invitation token is required.")
	}

	var in services.AcceptInviteInput
	if err := c.BodyParser(&in); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, invite, err := inviteService.AcceptInvite(token, in)
	if err != nil {
		return respondServiceError(c, err, "invitation")
	}

	access, refresh, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return respondServiceError(c, err, "invitation")
	}

	return utils.Success(c, fiber.StatusCreated, "Invitation accepted. Account created.", fiber.Map{
		"user":          user,
		"project":       invite.Project,
		"access_token":  access,
		"refresh_token": refresh,
	})
}
