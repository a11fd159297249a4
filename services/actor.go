// services/actor.go - Who is calling
package services

import (
	"errors"

	"github.com/apps390/project-tracker-home-task/models"

	"gorm.io/gorm"
)

// Actor is the caller's identity as the access evaluator sees it: a manager,
// a member with a contributor profile, or nobody. Making the three cases
// explicit types keeps "user without a profile" from masquerading as a member.
type Actor interface {
	isActor()
}

type Anonymous struct{}

type Manager struct {
	User models.User
}

type Member struct {
	User        models.User
	Contributor models.Contributor
}

func (Anonymous) isActor() {}
func (Manager) isActor()   {}
func (Member) isActor()    {}

// ActorUser returns the user behind an authenticated actor, or nil for
// Anonymous.
func ActorUser(a Actor) *models.User {
	switch v := a.(type) {
	case Manager:
		return &v.User
	case Member:
		return &v.User
	default:
		return nil
	}
}

// LoadActor resolves a user id into an Actor. Managers never get a member
// view even when a contributor profile exists for them; members without a
// profile are treated as anonymous for project access purposes.
func LoadActor(db *gorm.DB, userID uint) (Actor, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Anonymous{}, nil
		}
		return nil, err
	}

	if user.Role == models.RoleManager {
		return Manager{User: user}, nil
	}

	var contributor models.Contributor
	if err := db.Where("user_id = ?", user.ID).First(&contributor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Anonymous{}, nil
		}
		return nil, err
	}

	return Member{User: user, Contributor: contributor}, nil
}
