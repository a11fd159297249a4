// models/contributor.go
package models

import (
	"encoding/json"
	"time"
)

// Contributor is a member's project-facing profile. Users keep their
// contributor profile even when the projects they belonged to go away.
type Contributor struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Skills   string    `json:"-" gorm:"type:text;default:'[]'"`
	JoinedOn time.Time `json:"joined_on"`

	Projects []Project `json:"projects,omitempty" gorm:"many2many:project_members;"`
}

func (Contributor) TableName() string {
	return "contributors"
}

// SkillList decodes the stored skill set. A corrupt column reads as empty.
func (c *Contributor) SkillList() []string {
	var skills []string
	if err := json.Unmarshal([]byte(c.Skills), &skills); err != nil {
		return []string{}
	}
	return skills
}

// SetSkills stores the given skill set, dropping duplicates.
func (c *Contributor) SetSkills(skills []string) {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	raw, _ := json.Marshal(out)
	c.Skills = string(raw)
}
