// services/contributor_service.go - Contributor profile operations
package services

import (
	"errors"

	"github.com/apps390/project-tracker-home-task/models"

	"gorm.io/gorm"
)

type ContributorService struct {
	db  *gorm.DB
	inv *Invalidator
}

func NewContributorService(db *gorm.DB, inv *Invalidator) *ContributorService {
	return &ContributorService{db: db, inv: inv}
}

// GetByUser loads the calling user's contributor profile.
func (s *ContributorService) GetByUser(userID uint) (*models.Contributor, error) {
	var contributor models.Contributor
	err := s.db.Where("user_id = ?", userID).First(&contributor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contributor, nil
}

// UpdateSkills replaces the profile's skill set.
func (s *ContributorService) UpdateSkills(userID uint, skills []string) (*models.Contributor, error) {
	contributor, err := s.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	contributor.SetSkills(skills)
	if err := s.db.Model(contributor).Update("skills", contributor.Skills).Error; err != nil {
		return nil, err
	}

	if s.inv != nil {
		s.inv.Publish(InvalidationEvent{Scope: ScopeContributor, ContributorID: contributor.ID})
	}
	return contributor, nil
}
