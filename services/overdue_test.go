package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/apps390/project-tracker-home-task/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTask(t *testing.T, db *gorm.DB, project *models.Project, title string, due time.Time, status models.TaskStatus) *models.Task {
	t.Helper()
	task := &models.Task{
		ProjectID: project.ID,
		Title:     title,
		Slug:      fmt.Sprintf("%s-%d", title, time.Now().UnixNano()),
		DueDate:   models.DateOf(due),
		Status:    status,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func drainJobs(s *Scheduler) []notificationJob {
	var jobs []notificationJob
	for {
		select {
		case j := <-s.jobs:
			jobs = append(jobs, j)
		default:
			return jobs
		}
	}
}

func TestSweepProjectsFlipsOverdue(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	s := NewScheduler(db, notifier, nil)
	manager := createManager(t, db, "boss@example.com")

	late := createProject(t, db, manager, "late", day(-30), day(-1))
	onHold := createProject(t, db, manager, "paused", day(-30), day(-1))
	require.NoError(t, db.Model(onHold).Update("status", models.ProjectOnHold).Error)
	done := createProject(t, db, manager, "done", day(-30), day(-1))
	require.NoError(t, db.Model(done).Update("status", models.ProjectCompleted).Error)
	gone := createProject(t, db, manager, "gone", day(-30), day(-1))
	require.NoError(t, db.Model(gone).Update("is_deleted", true).Error)
	createProject(t, db, manager, "current", day(0), day(30))

	n, err := s.SweepProjects()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, want := range map[uint]models.ProjectStatus{
		late.ID:   models.ProjectOverdue,
		onHold.ID: models.ProjectOverdue,
		done.ID:   models.ProjectCompleted,
		gone.ID:   models.ProjectActive,
	} {
		var p models.Project
		require.NoError(t, db.First(&p, id).Error)
		assert.Equal(t, want, p.Status, "project %d", id)
	}

	jobs := drainJobs(s)
	assert.Len(t, jobs, 2)

	// A second run finds nothing left to flip
	n, err = s.SweepProjects()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, drainJobs(s))
}

func TestSweepTasksOverdueFlip(t *testing.T) {
	db := newTestDB(t)
	s := NewScheduler(db, &fakeNotifier{}, nil)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(-30), day(30))

	late := createTask(t, db, project, "late", day(-2), models.TaskOngoing)
	paused := createTask(t, db, project, "paused", day(-2), models.TaskOnHold)
	done := createTask(t, db, project, "done", day(-2), models.TaskCompleted)
	createTask(t, db, project, "future", day(5), models.TaskOngoing)

	dueToday, overdue, err := s.SweepTasks()
	require.NoError(t, err)
	assert.Equal(t, 0, dueToday)
	assert.Equal(t, 2, overdue)

	for id, want := range map[uint]models.TaskStatus{
		late.ID:   models.TaskOverdue,
		paused.ID: models.TaskOverdue,
		done.ID:   models.TaskCompleted,
	} {
		var task models.Task
		require.NoError(t, db.First(&task, id).Error)
		assert.Equal(t, want, task.Status, "task %d", id)
	}

	jobs := drainJobs(s)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, jobTaskOverdue, j.Kind)
	}
}

func TestSweepTasksDueTodayWatermark(t *testing.T) {
	db := newTestDB(t)
	s := NewScheduler(db, &fakeNotifier{}, nil)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(-30), day(30))
	task := createTask(t, db, project, "today", day(0), models.TaskOngoing)

	dueToday, overdue, err := s.SweepTasks()
	require.NoError(t, err)
	assert.Equal(t, 1, dueToday)
	assert.Equal(t, 0, overdue)

	var fresh models.Task
	require.NoError(t, db.First(&fresh, task.ID).Error)
	assert.Equal(t, models.TaskOngoing, fresh.Status)
	require.NotNil(t, fresh.DueNotifiedOn)

	jobs := drainJobs(s)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobTaskDueToday, jobs[0].Kind)

	// Same-day rerun does not remind again
	dueToday, _, err = s.SweepTasks()
	require.NoError(t, err)
	assert.Equal(t, 0, dueToday)
	assert.Empty(t, drainJobs(s))
}

func TestProjectOverdueNotificationRecipients(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	s := NewScheduler(db, notifier, nil)
	manager := createManager(t, db, "boss@example.com")
	_, contributor := createMember(t, db, "member@example.com")
	project := createProject(t, db, manager, "late", day(-30), day(-1))
	addMember(t, db, project, contributor)

	require.NoError(t, s.runJob(notificationJob{Kind: jobProjectOverdue, EntityID: project.ID}))

	require.Equal(t, 1, notifier.sentCount())
	mail := notifier.lastMail()
	assert.ElementsMatch(t, []string{"boss@example.com", "member@example.com"}, mail.To)
	assert.Contains(t, mail.Subject, "Project Overdue")
	assert.Contains(t, mail.Text, project.Name)
}

func TestTaskNotificationRecipients(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	s := NewScheduler(db, notifier, nil)
	manager := createManager(t, db, "boss@example.com")
	_, contributor := createMember(t, db, "member@example.com")
	project := createProject(t, db, manager, "alpha", day(-30), day(30))
	addMember(t, db, project, contributor)
	task := createTask(t, db, project, "late", day(-3), models.TaskOverdue)
	require.NoError(t, db.Model(task).Association("AssignedTo").Append(contributor))

	require.NoError(t, s.runJob(notificationJob{Kind: jobTaskOverdue, EntityID: task.ID}))

	require.Equal(t, 1, notifier.sentCount())
	mail := notifier.lastMail()
	assert.ElementsMatch(t, []string{"member@example.com", "boss@example.com"}, mail.To)
	assert.Contains(t, mail.Text, "overdue by 3 day(s)")
}

func TestNotificationForDeletedEntityIsNoOp(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	s := NewScheduler(db, notifier, nil)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(-30), day(30))
	task := createTask(t, db, project, "late", day(-1), models.TaskOverdue)
	require.NoError(t, db.Model(task).Update("is_deleted", true).Error)

	require.NoError(t, s.runJob(notificationJob{Kind: jobTaskOverdue, EntityID: task.ID}))
	require.NoError(t, s.runJob(notificationJob{Kind: jobProjectOverdue, EntityID: 9999}))
	assert.Equal(t, 0, notifier.sentCount())
}

func TestNotificationRetry(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{failures: 2}
	s := NewScheduler(db, notifier, nil)
	s.retryDelay = time.Millisecond
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "late", day(-30), day(-1))

	s.runJobWithRetry(notificationJob{Kind: jobProjectOverdue, EntityID: project.ID})
	assert.Equal(t, 1, notifier.sentCount())
}

func TestRunSweepsExpiresInvites(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	invites := NewInviteService(db, nil, notifier, "http://localhost:3000")
	s := NewScheduler(db, notifier, invites)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(0), day(30))

	_, err := invites.InviteContributors(project.Slug, managerActor(manager), []string{"new@example.com"})
	require.NoError(t, err)

	invites.now = func() time.Time { return time.Now().Add(models.InviteTTL + time.Hour) }
	s.RunSweeps()

	var pending int64
	db.Model(&models.ProjectInvite{}).Where("status = ?", models.InvitePending).Count(&pending)
	assert.EqualValues(t, 0, pending)
}
