// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"github.com/apps390/project-tracker-home-task/models"

	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	log.Println("🔄 Running database migrations...")

	if err := Migrate(GetDB()); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// Migrate applies the schema to the given handle. Split out so tests can
// migrate an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.EmailOTP{},
		&models.Contributor{},
		&models.Project{},
		&models.Task{},
		&models.ProjectInvite{},
	)
}

// createIndexes creates indexes AutoMigrate does not express
func createIndexes() {
	db := GetDB()

	// List scopes filter on these together
	db.Exec("CREATE INDEX IF NOT EXISTS idx_projects_creator_deleted ON projects(created_by_id, is_deleted)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_project_deleted ON tasks(project_id, is_deleted)")

	// Sweep predicates
	db.Exec("CREATE INDEX IF NOT EXISTS idx_projects_status_end ON projects(status, end_date)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_status_due ON tasks(status, due_date)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_invites_status_expires ON project_invites(status, expires_at)")

	// OTP verification reads newest first
	db.Exec("CREATE INDEX IF NOT EXISTS idx_email_otps_email_created ON email_otps(email, created_at DESC)")
}
