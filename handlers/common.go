// handlers/common.go - Handler wiring shared across the API surface
package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/apps390/project-tracker-home-task/cache"
	"github.com/apps390/project-tracker-home-task/mailer"
	"github.com/apps390/project-tracker-home-task/services"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	db                 *gorm.DB
	listCache          cache.Store
	authService        *services.AuthService
	projectService     *services.ProjectService
	taskService        *services.TaskService
	inviteService      *services.InviteService
	contributorService *services.ContributorService
	scheduler          *services.Scheduler
)

// Init wires the handler package to its collaborators. Must run after the
// database is initialized and before any route is served.
func Init(database *gorm.DB, store cache.Store, inv *services.Invalidator, mail mailer.Mailer, sched *services.Scheduler, baseURL string) {
	db = database
	listCache = store
	authService = services.NewAuthService(database, mail)
	projectService = services.NewProjectService(database, inv)
	taskService = services.NewTaskService(database, inv)
	inviteService = services.NewInviteService(database, inv, mail, baseURL)
	contributorService = services.NewContributorService(database, inv)
	scheduler = sched
}

// Pagination defaults follow the list endpoints' contract.
const (
	defaultPageSize = 5
	maxPageSize     = 50
)

func pagination(c *fiber.Ctx) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = defaultPageSize
	if ps, err := strconv.Atoi(c.Query("page_size")); err == nil && ps > 0 {
		pageSize = ps
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// respondServiceError maps the service error taxonomy onto the envelope.
// resource is the lowercase entity name used in the caller-facing messages.
func respondServiceError(c *fiber.Ctx, err error, resource string) error {
	var vErr *services.ValidationError

	switch {
	case errors.As(err, &vErr):
		return utils.Fail(c, fiber.StatusBadRequest, vErr.Message)
	case errors.Is(err, services.ErrConflict):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, fmt.Sprintf("%s not found.", capitalize(resource)))
	case errors.Is(err, services.ErrAlreadyDeleted):
		return utils.Fail(c, fiber.StatusBadRequest, fmt.Sprintf("This %s has already been deleted.", resource))
	case errors.Is(err, services.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, fmt.Sprintf("You are not authorized to perform this action on this %s.", resource))
	case errors.Is(err, services.ErrOTPExpired):
		return utils.Fail(c, fiber.StatusBadRequest, "OTP expired or already used.")
	case errors.Is(err, services.ErrInvalidToken):
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid or expired invitation token.")
	case errors.Is(err, services.ErrExpired):
		return utils.Fail(c, fiber.StatusBadRequest, "This invitation has expired.")
	case errors.Is(err, services.ErrAlreadyAccepted):
		return utils.Fail(c, fiber.StatusBadRequest, "This invitation has already been accepted.")
	default:
		log.Printf("unexpected error on %s endpoint: %v", resource, err)
		return utils.Fail(c, fiber.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
