// services/project_service.go - Project CRUD and authorization gates
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/apps390/project-tracker-home-task/models"
	"github.com/apps390/project-tracker-home-task/utils"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type ProjectService struct {
	db  *gorm.DB
	inv *Invalidator
	now func() time.Time
}

func NewProjectService(db *gorm.DB, inv *Invalidator) *ProjectService {
	return &ProjectService{db: db, inv: inv, now: time.Now}
}

func (s *ProjectService) publish(ev InvalidationEvent) {
	if s.inv != nil {
		s.inv.Publish(ev)
	}
}

// ProjectInput carries the writable project fields. Update treats nil
// pointers as "leave unchanged".
type ProjectInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// CreateProject validates and stores a new project owned by the creator.
// The manager-role gate runs at the route level before this is reached.
func (s *ProjectService) CreateProject(creator *models.User, in ProjectInput) (*models.Project, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, validationErr("name", "Project name cannot be empty or only spaces.")
	}
	name := strings.TrimSpace(*in.Name)

	if err := s.checkBlankFields(in); err != nil {
		return nil, err
	}
	if in.StartDate == nil || in.EndDate == nil {
		return nil, validationErr("start_date", "Both start date and end date are required.")
	}

	start, err := time.Parse(dateLayout, *in.StartDate)
	if err != nil {
		return nil, validationErr("start_date", "Start date must be in YYYY-MM-DD format.")
	}
	end, err := time.Parse(dateLayout, *in.EndDate)
	if err != nil {
		return nil, validationErr("end_date", "End date must be in YYYY-MM-DD format.")
	}

	today := models.DateOf(s.now())
	if models.DateOf(start).Before(today) {
		return nil, validationErr("start_date", "Start date cannot be in the past.")
	}
	if models.DateOf(end).Before(models.DateOf(start)) {
		return nil, validationErr("end_date", "End date cannot be earlier than start date.")
	}

	var dup int64
	s.db.Model(&models.Project{}).
		Where("LOWER(name) = ? AND is_deleted = ?", strings.ToLower(name), false).
		Count(&dup)
	if dup > 0 {
		return nil, conflictErr("A project with this name already exists.")
	}

	project := &models.Project{
		Name:        name,
		Slug:        utils.GenerateSlug(name, s.slugTaken),
		Status:      models.ProjectActive,
		CreatedByID: creator.ID,
		StartDate:   models.DateOf(start),
		EndDate:     models.DateOf(end),
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		project.Location = strings.TrimSpace(*in.Location)
	}

	if err := s.db.Create(project).Error; err != nil {
		return nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeProject, ProjectID: project.ID})
	return project, nil
}

// GetProject loads a project for its manager.
func (s *ProjectService) GetProject(slug string, actor Actor) (*models.Project, error) {
	project, err := s.loadBySlug(s.db, slug)
	if err != nil {
		return nil, err
	}
	if ok, reason := CanManage(project, actor); !ok {
		return nil, denyError(reason)
	}
	return project, nil
}

// UpdateProject applies a partial update. The ownership check and the write
// share one transaction so a concurrent delete cannot slip between them.
func (s *ProjectService) UpdateProject(slug string, actor Actor, in ProjectInput) (*models.Project, error) {
	var updated *models.Project

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := s.loadBySlug(tx, slug)
		if err != nil {
			return err
		}
		if ok, reason := CanManage(project, actor); !ok {
			return denyError(reason)
		}

		if err := s.applyUpdate(tx, project, in); err != nil {
			return err
		}

		// Guard on is_deleted so the update loses against a racing delete.
		res := tx.Model(&models.Project{}).
			Where("id = ? AND is_deleted = ?", project.ID, false).
			Updates(map[string]interface{}{
				"name":        project.Name,
				"description": project.Description,
				"location":    project.Location,
				"status":      project.Status,
				"start_date":  project.StartDate,
				"end_date":    project.EndDate,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDeleted
		}

		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeProject, ProjectID: updated.ID})
	return updated, nil
}

// DeleteProject soft-deletes. Deleting twice fails with ErrAlreadyDeleted.
func (s *ProjectService) DeleteProject(slug string, actor Actor) error {
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := s.loadBySlug(tx, slug)
		if err != nil {
			return err
		}
		if ok, reason := CanManage(project, actor); !ok {
			return denyError(reason)
		}

		res := tx.Model(&models.Project{}).
			Where("id = ? AND is_deleted = ?", project.ID, false).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDeleted
		}

		projectID = project.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(InvalidationEvent{Scope: ScopeProject, ProjectID: projectID})
	return nil
}

// ListProjects returns the page of non-deleted projects the user created or
// belongs to, newest first.
func (s *ProjectService) ListProjects(userID uint, status string, page, pageSize int) ([]models.Project, int64, error) {
	query := s.db.Model(&models.Project{}).
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id").
		Joins("LEFT JOIN contributors ct ON ct.id = pm.contributor_id").
		Where("projects.is_deleted = ?", false).
		Where("projects.created_by_id = ? OR ct.user_id = ?", userID, userID).
		Distinct("projects.*")

	if status != "" {
		query = query.Where("projects.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := query.
		Order("projects.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Members returns the project's contributors (excluding the creator, who is
// never in the member set) for anyone with member access.
func (s *ProjectService) Members(slug string, actor Actor) ([]models.Contributor, error) {
	project, err := s.loadBySlugWithUsers(slug)
	if err != nil {
		return nil, err
	}
	if ok, reason := CanAccessAsMember(project, actor); !ok {
		return nil, denyError(reason)
	}
	return project.Members, nil
}

func (s *ProjectService) applyUpdate(tx *gorm.DB, project *models.Project, in ProjectInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return validationErr("name", "Project name cannot be empty or only spaces.")
		}
		var dup int64
		tx.Model(&models.Project{}).
			Where("LOWER(name) = ? AND is_deleted = ? AND id <> ?", strings.ToLower(name), false, project.ID).
			Count(&dup)
		if dup > 0 {
			return conflictErr("A project with this name already exists.")
		}
		project.Name = name
	}
	if err := s.checkBlankFields(in); err != nil {
		return err
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		project.Location = strings.TrimSpace(*in.Location)
	}
	if in.Status != nil {
		switch models.ProjectStatus(*in.Status) {
		case models.ProjectActive, models.ProjectCompleted, models.ProjectOnHold, models.ProjectOverdue:
			project.Status = models.ProjectStatus(*in.Status)
		default:
			return validationErr("status", "Invalid project status.")
		}
	}

	start := project.StartDate
	end := project.EndDate
	if in.StartDate != nil {
		parsed, err := time.Parse(dateLayout, *in.StartDate)
		if err != nil {
			return validationErr("start_date", "Start date must be in YYYY-MM-DD format.")
		}
		if models.DateOf(parsed).Before(models.DateOf(s.now())) {
			return validationErr("start_date", "Start date cannot be in the past.")
		}
		start = models.DateOf(parsed)
	}
	if in.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *in.EndDate)
		if err != nil {
			return validationErr("end_date", "End date must be in YYYY-MM-DD format.")
		}
		end = models.DateOf(parsed)
	}
	if end.Before(start) {
		return validationErr("end_date", "End date cannot be earlier than start date.")
	}
	project.StartDate = start
	project.EndDate = end

	return nil
}

func (s *ProjectService) checkBlankFields(in ProjectInput) error {
	if in.Location != nil && *in.Location != "" && strings.TrimSpace(*in.Location) == "" {
		return validationErr("location", "Location cannot be empty or only spaces.")
	}
	if in.Description != nil && *in.Description != "" && strings.TrimSpace(*in.Description) == "" {
		return validationErr("description", "Description cannot be empty or only spaces.")
	}
	return nil
}

func (s *ProjectService) loadBySlug(tx *gorm.DB, slug string) (*models.Project, error) {
	var project models.Project
	err := tx.Preload("Members").Where("slug = ?", slug).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) loadBySlugWithUsers(slug string) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Members").Preload("Members.User").Where("slug = ?", slug).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) slugTaken(slug string) bool {
	var n int64
	s.db.Model(&models.Project{}).Where("slug = ?", slug).Count(&n)
	return n > 0
}

// denyError maps an access decision onto the error taxonomy.
func denyError(reason DenyReason) error {
	if reason == DenyProjectDeleted {
		return ErrAlreadyDeleted
	}
	return ErrForbidden
}
