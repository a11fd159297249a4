// services/overdue.go - Overdue Reconciliation Scheduler & Notification Dispatcher
//
// Two sweeps run on a cron cadence: projects past their end date flip to
// overdue, tasks past their due date flip in bulk, and tasks due today get a
// reminder. Every flip enqueues a notification job carrying only the entity
// id; the worker reloads the row at execution time, so a job whose entity is
// gone or soft-deleted by then is a no-op, not a failure. Sweeps re-evaluate
// their predicate each run, so a crash mid-sweep converges on the next one.
package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/apps390/project-tracker-home-task/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type jobKind string

const (
	jobProjectOverdue jobKind = "project_overdue"
	jobTaskDueToday   jobKind = "task_due_today"
	jobTaskOverdue    jobKind = "task_overdue"
)

type notificationJob struct {
	Kind     jobKind
	EntityID uint
}

const notificationRetries = 3

type Scheduler struct {
	db       *gorm.DB
	notifier Notifier
	invites  *InviteService

	jobs       chan notificationJob
	wg         sync.WaitGroup
	cron       *cron.Cron
	stopOnce   sync.Once
	retryDelay time.Duration
	now        func() time.Time
}

func NewScheduler(db *gorm.DB, notifier Notifier, invites *InviteService) *Scheduler {
	return &Scheduler{
		db:         db,
		notifier:   notifier,
		invites:    invites,
		jobs:       make(chan notificationJob, 1024),
		retryDelay: 30 * time.Second,
		now:        time.Now,
	}
}

// Start launches the notification workers and schedules the sweeps on the
// given cron spec (standard five-field syntax).
func (s *Scheduler) Start(spec string, workers int) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for job := range s.jobs {
				s.runJobWithRetry(job)
			}
		}()
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.RunSweeps); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	s.cron.Start()

	log.Printf("🕛 Overdue sweeps scheduled (%s), %d notification workers", spec, workers)
	return nil
}

// Stop halts the cadence and drains in-flight notification jobs.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		close(s.jobs)
	})
	s.wg.Wait()
}

// RunSweeps executes all periodic checks once. Safe to call concurrently
// with itself: every transition is guarded by its selection predicate.
func (s *Scheduler) RunSweeps() {
	if n, err := s.SweepProjects(); err != nil {
		log.Printf("project sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("project sweep: %d projects marked overdue", n)
	}

	if due, over, err := s.SweepTasks(); err != nil {
		log.Printf("task sweep failed: %v", err)
	} else if due+over > 0 {
		log.Printf("task sweep: %d due today, %d marked overdue", due, over)
	}

	if s.invites != nil {
		if n, err := s.invites.ExpireStaleInvites(); err != nil {
			log.Printf("invite sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("invite sweep: %d stale invites expired", n)
		}
	}
}

// SweepProjects marks non-deleted active/on-hold projects past their end
// date as overdue and enqueues one notification per project.
func (s *Scheduler) SweepProjects() (int, error) {
	today := models.DateOf(s.now())

	var projects []models.Project
	err := s.db.
		Where("end_date < ? AND status IN ? AND is_deleted = ?",
			today, []models.ProjectStatus{models.ProjectActive, models.ProjectOnHold}, false).
		Find(&projects).Error
	if err != nil {
		return 0, err
	}

	for i := range projects {
		project := &projects[i]
		// Guarded per-row flip: a concurrent sweep or an explicit status
		// change wins cleanly; zero rows affected just means no mail.
		res := s.db.Model(&models.Project{}).
			Where("id = ? AND status IN ?", project.ID,
				[]models.ProjectStatus{models.ProjectActive, models.ProjectOnHold}).
			Update("status", models.ProjectOverdue)
		if res.Error != nil {
			log.Printf("project sweep: updating project %d: %v", project.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		s.enqueue(notificationJob{Kind: jobProjectOverdue, EntityID: project.ID})
	}

	return len(projects), nil
}

// SweepTasks reminds about tasks due today (watermarked so one reminder per
// day) and bulk-flips tasks past due to overdue, one notification each.
func (s *Scheduler) SweepTasks() (dueToday int, overdue int, err error) {
	today := models.DateOf(s.now())
	tomorrow := today.Add(24 * time.Hour)
	live := []models.TaskStatus{models.TaskOngoing, models.TaskOnHold}

	var dueTasks []models.Task
	err = s.db.
		Where("due_date >= ? AND due_date < ? AND status IN ? AND is_deleted = ?", today, tomorrow, live, false).
		Where("due_notified_on IS NULL OR due_notified_on < ?", today).
		Find(&dueTasks).Error
	if err != nil {
		return 0, 0, err
	}

	for i := range dueTasks {
		task := &dueTasks[i]
		if uerr := s.db.Model(&models.Task{}).Where("id = ?", task.ID).
			Update("due_notified_on", today).Error; uerr != nil {
			log.Printf("task sweep: watermarking task %d: %v", task.ID, uerr)
			continue
		}
		s.enqueue(notificationJob{Kind: jobTaskDueToday, EntityID: task.ID})
	}

	var overdueIDs []uint
	err = s.db.Model(&models.Task{}).
		Where("due_date < ? AND status IN ? AND is_deleted = ?", today, live, false).
		Pluck("id", &overdueIDs).Error
	if err != nil {
		return len(dueTasks), 0, err
	}

	if len(overdueIDs) > 0 {
		// One bulk write; a crash between it and the enqueues is repaired by
		// the predicate re-evaluating next run.
		err = s.db.Model(&models.Task{}).
			Where("due_date < ? AND status IN ? AND is_deleted = ?", today, live, false).
			Update("status", models.TaskOverdue).Error
		if err != nil {
			return len(dueTasks), 0, err
		}
		for _, id := range overdueIDs {
			s.enqueue(notificationJob{Kind: jobTaskOverdue, EntityID: id})
		}
	}

	return len(dueTasks), len(overdueIDs), nil
}

func (s *Scheduler) enqueue(job notificationJob) {
	s.jobs <- job
}

func (s *Scheduler) runJobWithRetry(job notificationJob) {
	var err error
	for attempt := 1; attempt <= notificationRetries; attempt++ {
		if err = s.runJob(job); err == nil {
			return
		}
		log.Printf("notification %s/%d attempt %d failed: %v", job.Kind, job.EntityID, attempt, err)
		if attempt < notificationRetries {
			time.Sleep(s.retryDelay)
		}
	}
	log.Printf("notification %s/%d dropped after %d attempts: %v", job.Kind, job.EntityID, notificationRetries, err)
}

// runJob loads the entity fresh by id and sends one notification. A missing
// or soft-deleted entity is success: the work it described no longer exists.
func (s *Scheduler) runJob(job notificationJob) error {
	switch job.Kind {
	case jobProjectOverdue:
		return s.notifyProjectOverdue(job.EntityID)
	case jobTaskDueToday, jobTaskOverdue:
		return s.notifyTask(job.Kind, job.EntityID)
	default:
		log.Printf("unknown notification kind %q", job.Kind)
		return nil
	}
}

func (s *Scheduler) notifyProjectOverdue(projectID uint) error {
	var project models.Project
	err := s.db.
		Preload("CreatedBy").
		Preload("Members.User").
		Where("id = ? AND is_deleted = ?", projectID, false).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(project.Members)+1)
	if project.CreatedBy != nil {
		recipients = append(recipients, project.CreatedBy.Email)
	}
	for _, m := range project.Members {
		if m.User != nil {
			recipients = append(recipients, m.User.Email)
		}
	}
	recipients = dedupeEmails(recipients)
	if len(recipients) == 0 {
		return nil
	}

	today := models.DateOf(s.now()).Format(dateLayout)
	subject := fmt.Sprintf("Project Overdue: %s", project.Name)
	text := fmt.Sprintf("Project %s is overdue as of %s. Its end date was %s.",
		project.Name, today, project.EndDate.Format(dateLayout))
	html := fmt.Sprintf("<p>Project <strong>%s</strong> is overdue as of %s.</p><p>End date: %s</p>",
		project.Name, today, project.EndDate.Format(dateLayout))

	return s.notifier.Send(recipients, subject, text, html)
}

func (s *Scheduler) notifyTask(kind jobKind, taskID uint) error {
	var task models.Task
	err := s.db.
		Preload("AssignedTo.User").
		Preload("Project.CreatedBy").
		Where("id = ? AND is_deleted = ?", taskID, false).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if task.Project == nil || task.Project.IsDeleted {
		return nil
	}

	recipients := make([]string, 0, len(task.AssignedTo)+1)
	for _, c := range task.AssignedTo {
		if c.User != nil {
			recipients = append(recipients, c.User.Email)
		}
	}
	if task.Project.CreatedBy != nil {
		recipients = append(recipients, task.Project.CreatedBy.Email)
	}
	recipients = dedupeEmails(recipients)
	if len(recipients) == 0 {
		return nil
	}

	due := task.DueDate.Format(dateLayout)
	var subject, text, html string
	if kind == jobTaskDueToday {
		subject = fmt.Sprintf("Task Due Today: %s", task.Title)
		text = fmt.Sprintf("Task %s in project %s is due today (%s).", task.Title, task.Project.Name, due)
		html = fmt.Sprintf("<p>Task <strong>%s</strong> in project %s is due today (%s).</p>",
			task.Title, task.Project.Name, due)
	} else {
		daysOverdue := int(models.DateOf(s.now()).Sub(models.DateOf(task.DueDate)).Hours() / 24)
		subject = fmt.Sprintf("Task Overdue: %s", task.Title)
		text = fmt.Sprintf("Task %s in project %s is overdue by %d day(s). Due date was %s.",
			task.Title, task.Project.Name, daysOverdue, due)
		html = fmt.Sprintf("<p>Task <strong>%s</strong> in project %s is overdue by %d day(s).</p><p>Due date: %s</p>",
			task.Title, task.Project.Name, daysOverdue, due)
	}

	return s.notifier.Send(recipients, subject, text, html)
}

func dedupeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
