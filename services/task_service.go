// services/task_service.go - Task CRUD under a project
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apps390/project-tracker-home-task/models"
	"github.com/apps390/project-tracker-home-task/utils"

	"gorm.io/gorm"
)

type TaskService struct {
	db  *gorm.DB
	inv *Invalidator
	now func() time.Time
}

func NewTaskService(db *gorm.DB, inv *Invalidator) *TaskService {
	return &TaskService{db: db, inv: inv, now: time.Now}
}

func (s *TaskService) publish(ev InvalidationEvent) {
	if s.inv != nil {
		s.inv.Publish(ev)
	}
}

// TaskInput carries the writable task fields; nil means unchanged on update.
// AssignedTo lists contributor ids and, when present, replaces the set.
type TaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status"`
	AssignedTo  []uint  `json:"assigned_to"`
}

// CreateTask validates and stores a task under the project. Assignees must
// be members of the project at assignment time.
func (s *TaskService) CreateTask(projectSlug string, actor Actor, in TaskInput) (*models.Task, error) {
	var task *models.Task
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := s.loadProject(tx, projectSlug)
		if err != nil {
			return err
		}
		if ok, reason := CanAccessAsMember(project, actor); !ok {
			return denyError(reason)
		}

		if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
			return validationErr("title", "Task title cannot be empty or only spaces.")
		}
		title := strings.TrimSpace(*in.Title)

		var dup int64
		tx.Model(&models.Task{}).
			Where("project_id = ? AND LOWER(title) = ? AND is_deleted = ?", project.ID, strings.ToLower(title), false).
			Count(&dup)
		if dup > 0 {
			return conflictErr("A task with this title already exists in this project.")
		}

		if in.DueDate == nil {
			return validationErr("due_date", "Due date is required.")
		}
		due, err := time.Parse(dateLayout, *in.DueDate)
		if err != nil {
			return validationErr("due_date", "Due date must be in YYYY-MM-DD format.")
		}
		today := models.DateOf(s.now())
		if models.DateOf(due).Before(today) {
			return validationErr("due_date", "Due date cannot be in the past.")
		}

		assignees, err := s.resolveAssignees(tx, project, in.AssignedTo)
		if err != nil {
			return err
		}

		task = &models.Task{
			ProjectID: project.ID,
			Title:     title,
			Slug:      utils.GenerateSlug(title, s.taskSlugTaken(tx)),
			DueDate:   models.DateOf(due),
			Status:    models.TaskOngoing,
		}
		if in.Description != nil {
			task.Description = strings.TrimSpace(*in.Description)
		}
		task.Status = models.DeriveTaskStatus(task.Status, task.DueDate, today)
		task.AssignedTo = assignees

		projectID = project.ID
		return tx.Create(task).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeTask, ProjectID: projectID})
	return task, nil
}

// GetTask loads a task for anyone with member access to its project.
func (s *TaskService) GetTask(taskSlug string, actor Actor) (*models.Task, error) {
	task, project, err := s.loadTask(s.db, taskSlug)
	if err != nil {
		return nil, err
	}
	if ok, reason := CanAccessAsMember(project, actor); !ok {
		return nil, denyError(reason)
	}
	return task, nil
}

// UpdateTask applies a partial update inside one transaction with the access
// check. The overdue flip goes through DeriveTaskStatus on every write.
func (s *TaskService) UpdateTask(taskSlug string, actor Actor, in TaskInput) (*models.Task, error) {
	var updated *models.Task
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, project, err := s.loadTask(tx, taskSlug)
		if err != nil {
			return err
		}
		if ok, reason := CanAccessAsMember(project, actor); !ok {
			return denyError(reason)
		}
		if task.IsDeleted {
			return ErrAlreadyDeleted
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return validationErr("title", "Task title cannot be empty or only spaces.")
			}
			var dup int64
			tx.Model(&models.Task{}).
				Where("project_id = ? AND LOWER(title) = ? AND id <> ? AND is_deleted = ?",
					project.ID, strings.ToLower(title), task.ID, false).
				Count(&dup)
			if dup > 0 {
				return conflictErr("A task with this title already exists in this project.")
			}
			task.Title = title
		}
		if in.Description != nil {
			task.Description = strings.TrimSpace(*in.Description)
		}
		if in.DueDate != nil {
			due, err := time.Parse(dateLayout, *in.DueDate)
			if err != nil {
				return validationErr("due_date", "Due date must be in YYYY-MM-DD format.")
			}
			if models.DateOf(due).Before(models.DateOf(s.now())) {
				return validationErr("due_date", "Due date cannot be in the past.")
			}
			task.DueDate = models.DateOf(due)
		}
		if in.Status != nil {
			switch models.TaskStatus(*in.Status) {
			case models.TaskOngoing, models.TaskOnHold, models.TaskCompleted, models.TaskOverdue:
				task.Status = models.TaskStatus(*in.Status)
			default:
				return validationErr("status", "Invalid task status.")
			}
		}
		task.Status = models.DeriveTaskStatus(task.Status, task.DueDate, models.DateOf(s.now()))

		res := tx.Model(&models.Task{}).
			Where("id = ? AND is_deleted = ?", task.ID, false).
			Updates(map[string]interface{}{
				"title":       task.Title,
				"description": task.Description,
				"due_date":    task.DueDate,
				"status":      task.Status,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDeleted
		}

		if in.AssignedTo != nil {
			assignees, err := s.resolveAssignees(tx, project, in.AssignedTo)
			if err != nil {
				return err
			}
			if err := tx.Model(task).Association("AssignedTo").Replace(assignees); err != nil {
				return err
			}
			task.AssignedTo = assignees
		}

		updated = task
		projectID = project.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeTask, ProjectID: projectID})
	return updated, nil
}

// DeleteTask soft-deletes; a second delete reports ErrAlreadyDeleted.
func (s *TaskService) DeleteTask(taskSlug string, actor Actor) error {
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, project, err := s.loadTask(tx, taskSlug)
		if err != nil {
			return err
		}
		if ok, reason := CanAccessAsMember(project, actor); !ok {
			return denyError(reason)
		}

		res := tx.Model(&models.Task{}).
			Where("id = ? AND is_deleted = ?", task.ID, false).
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

	s.publish(InvalidationEvent{Scope: ScopeTask, ProjectID: projectID})
	return nil
}

// ListTasks returns a page of the project's non-deleted tasks, newest first,
// for anyone with member access.
func (s *TaskService) ListTasks(projectSlug string, actor Actor, status string, page, pageSize int) ([]models.Task, int64, error) {
	project, err := s.loadProject(s.db, projectSlug)
	if err != nil {
		return nil, 0, err
	}
	if ok, reason := CanAccessAsMember(project, actor); !ok {
		return nil, 0, denyError(reason)
	}

	query := s.db.Model(&models.Task{}).
		Where("project_id = ? AND is_deleted = ?", project.ID, false)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err = query.
		Preload("AssignedTo").
		Preload("AssignedTo.User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// resolveAssignees loads the contributors and rejects anyone outside the
// project's member set.
func (s *TaskService) resolveAssignees(tx *gorm.DB, project *models.Project, ids []uint) ([]models.Contributor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var contributors []models.Contributor
	if err := tx.Where("id IN ?", ids).Find(&contributors).Error; err != nil {
		return nil, err
	}

	found := make(map[uint]bool, len(contributors))
	for _, c := range contributors {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, validationErr("assigned_to", fmt.Sprintf("Contributor with ID %d does not exist.", id))
		}
		if !project.HasMember(id) {
			return nil, validationErr("assigned_to", fmt.Sprintf("Contributor with ID %d is not part of this project.", id))
		}
	}

	return contributors, nil
}

func (s *TaskService) loadProject(tx *gorm.DB, slug string) (*models.Project, error) {
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

func (s *TaskService) loadTask(tx *gorm.DB, slug string) (*models.Task, *models.Project, error) {
	var task models.Task
	err := tx.Preload("AssignedTo").Where("slug = ?", slug).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var project models.Project
	if err := tx.Preload("Members").First(&project, task.ProjectID).Error; err != nil {
		return nil, nil, err
	}
	task.Project = &project

	return &task, &project, nil
}

func (s *TaskService) taskSlugTaken(tx *gorm.DB) func(string) bool {
	return func(slug string) bool {
		var n int64
		tx.Model(&models.Task{}).Where("slug = ?", slug).Count(&n)
		return n > 0
	}
}
