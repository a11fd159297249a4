// models/project.go
package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectOverdue   ProjectStatus = "overdue"
)

type Project struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"not null;size:200;index"`
	Description string        `json:"description" gorm:"type:text"`
	Slug        string        `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	Location    string        `json:"location" gorm:"size:150"`
	Status      ProjectStatus `json:"status" gorm:"not null;default:'active';size:20;index"`
	CreatedByID uint          `json:"created_by_id" gorm:"not null;index"`
	CreatedBy   *User         `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	StartDate   time.Time     `json:"start_date" gorm:"not null"`
	EndDate     time.Time     `json:"end_date" gorm:"not null"`
	IsDeleted   bool          `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Members []Contributor `json:"members,omitempty" gorm:"many2many:project_members;"`
	Tasks   []Task        `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// HasMember reports whether the contributor is in the loaded member set.
// Members must be preloaded.
func (p *Project) HasMember(contributorID uint) bool {
	for _, m := range p.Members {
		if m.ID == contributorID {
			return true
		}
	}
	return false
}
