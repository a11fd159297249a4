package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/apps390/project-tracker-home-task/database"
	"github.com/apps390/project-tracker-home-task/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	// Every pooled connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeNotifier records outgoing mail and can be told to fail.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentMail
	failures int
}

type sentMail struct {
	To      []string
	Subject string
	Text    string
}

func (f *fakeNotifier) Send(to []string, subject, textBody, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Text: textBody})
	return nil
}

func (f *fakeNotifier) SendSilently(to []string, subject, textBody, htmlBody string) {
	_ = f.Send(to, subject, textBody, htmlBody)
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) lastMail() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func createManager(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		FirstName: "Pat",
		LastName:  "Manager",
		Password:  "x",
		Role:      models.RoleManager,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createMember(t *testing.T, db *gorm.DB, email string) (*models.User, *models.Contributor) {
	t.Helper()
	user := &models.User{
		Email:     email,
		FirstName: "Sam",
		LastName:  "Member",
		Password:  "x",
		Role:      models.RoleMember,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)

	contributor := &models.Contributor{
		UserID:   user.ID,
		Skills:   "[]",
		JoinedOn: time.Now().UTC(),
	}
	require.NoError(t, db.Create(contributor).Error)
	return user, contributor
}

func createProject(t *testing.T, db *gorm.DB, creator *models.User, name string, start, end time.Time) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:        name,
		Slug:        fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		Status:      models.ProjectActive,
		CreatedByID: creator.ID,
		StartDate:   models.DateOf(start),
		EndDate:     models.DateOf(end),
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func addMember(t *testing.T, db *gorm.DB, project *models.Project, contributor *models.Contributor) {
	t.Helper()
	require.NoError(t, db.Model(project).Association("Members").Append(contributor))
	project.Members = append(project.Members, *contributor)
}

func managerActor(u *models.User) Actor { return Manager{User: *u} }

func memberActor(u *models.User, c *models.Contributor) Actor {
	return Member{User: *u, Contributor: *c}
}

func strPtr(s string) *string { return &s }

func day(offset int) time.Time {
	return models.DateOf(time.Now().UTC()).AddDate(0, 0, offset)
}

func dayStr(offset int) string {
	return day(offset).Format("2006-01-02")
}
