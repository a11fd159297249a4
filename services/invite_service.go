// services/invite_service.go - Invitation State Machine
//
// pending is the only live invite state; accepted and expired are terminal.
// Acceptance is a compare-and-swap on the status column inside the same
// transaction that creates the account and the membership, so two concurrent
// accepts of one token produce exactly one member.
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/apps390/project-tracker-home-task/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Notifier is the email transport contract. Send propagates failures;
// SendSilently logs and swallows them for best-effort paths.
type Notifier interface {
	Send(to []string, subject, textBody, htmlBody string) error
	SendSilently(to []string, subject, textBody, htmlBody string)
}

type InviteService struct {
	db       *gorm.DB
	inv      *Invalidator
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

func NewInviteService(db *gorm.DB, inv *Invalidator, notifier Notifier, baseURL string) *InviteService {
	return &InviteService{
		db:       db,
		inv:      inv,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

func (s *InviteService) publish(ev InvalidationEvent) {
	if s.inv != nil {
		s.inv.Publish(ev)
	}
}

// InviteResult reports what happened per email: existing contributors are
// added to the member set directly, everyone else gets a pending invite.
type InviteResult struct {
	Email         string `json:"email"`
	DirectlyAdded bool   `json:"directly_added"`
}

// InviteContributors processes a batch of invite emails for a project the
// actor manages. Validation failures abort the batch; invitation emails go
// out only after the transaction commits.
func (s *InviteService) InviteContributors(projectSlug string, actor Actor, emails []string) ([]InviteResult, error) {
	var results []InviteResult
	var created []models.ProjectInvite
	var project *models.Project
	inviter := ActorUser(actor)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = s.loadProject(tx, projectSlug)
		if err != nil {
			return err
		}
		if ok, reason := CanManage(project, actor); !ok {
			return denyError(reason)
		}

		for _, raw := range emails {
			email := strings.ToLower(strings.TrimSpace(raw))
			if email == "" || !strings.Contains(email, "@") {
				return validationErr("email", fmt.Sprintf("%q is not a valid email address.", raw))
			}
			if email == strings.ToLower(inviter.Email) {
				return validationErr("email", "You cannot invite yourself to your own project.")
			}

			// Fast path: a registered contributor skips the invite entirely.
			var existing models.User
			userErr := tx.Preload("Contributor").Where("email = ?", email).First(&existing).Error
			if userErr == nil && existing.Contributor != nil {
				if project.HasMember(existing.Contributor.ID) {
					return conflictErr("This user is already a member of the project.")
				}
				if err := tx.Model(project).Association("Members").Append(existing.Contributor); err != nil {
					return err
				}
				project.Members = append(project.Members, *existing.Contributor)
				results = append(results, InviteResult{Email: email, DirectlyAdded: true})
				continue
			}
			if userErr != nil && !errors.Is(userErr, gorm.ErrRecordNotFound) {
				return userErr
			}

			var pending int64
			tx.Model(&models.ProjectInvite{}).
				Where("project_id = ? AND email = ? AND status = ?", project.ID, email, models.InvitePending).
				Count(&pending)
			if pending > 0 {
				return conflictErr("An invitation is already pending for this email.")
			}

			invite := models.ProjectInvite{
				ProjectID:   project.ID,
				InvitedByID: inviter.ID,
				Email:       email,
				Token:       uuid.NewString(),
				ExpiresAt:   s.now().Add(models.InviteTTL),
			}
			if err := tx.Create(&invite).Error; err != nil {
				return err
			}
			created = append(created, invite)
			results = append(results, InviteResult{Email: email})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeMembership, ProjectID: project.ID})

	// Best effort: a failed invitation email never fails the request, the
	// invite row exists and the link can be resent.
	for _, invite := range created {
		s.sendInvitationEmail(project, &invite, inviter)
	}

	return results, nil
}

// AcceptInviteInput is the new-account half of invite acceptance.
type AcceptInviteInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AcceptInvite consumes an invite token: it creates the member account and
// its contributor profile, adds the membership and marks the invite accepted,
// all in one transaction. Expiry is checked lazily here.
func (s *InviteService) AcceptInvite(token string, in AcceptInviteInput) (*models.User, *models.ProjectInvite, error) {
	if in.Password != in.ConfirmPassword {
		return nil, nil, validationErr("password", "Passwords do not match.")
	}
	if len(in.Password) < 6 {
		return nil, nil, validationErr("password", "Password must be at least 6 characters.")
	}

	var user models.User
	var invite models.ProjectInvite
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Project").Where("token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		switch invite.Status {
		case models.InviteAccepted:
			return ErrAlreadyAccepted
		case models.InviteExpired:
			return ErrExpired
		}

		if invite.IsExpired(s.now()) {
			// Lazy transition; terminal once set.
			tx.Model(&models.ProjectInvite{}).
				Where("id = ? AND status = ?", invite.ID, models.InvitePending).
				Update("status", models.InviteExpired)
			return ErrExpired
		}

		var dup int64
		tx.Model(&models.User{}).Where("email = ?", invite.Email).Count(&dup)
		if dup > 0 {
			return conflictErr("User with this email already exists.")
		}

		// CAS pending -> accepted: under concurrent accepts of the same
		// token exactly one transaction flips the row.
		res := tx.Model(&models.ProjectInvite{}).
			Where("id = ? AND status = ?", invite.ID, models.InvitePending).
			Update("status", models.InviteAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAccepted
		}
		invite.Status = models.InviteAccepted

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user = models.User{
			Email:     invite.Email,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Password:  string(hash),
			Role:      models.RoleMember,
			IsActive:  true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		contributor := models.Contributor{
			UserID:   user.ID,
			Skills:   "[]",
			JoinedOn: s.now(),
		}
		if err := tx.Create(&contributor).Error; err != nil {
			return err
		}

		project := models.Project{ID: invite.ProjectID}
		if err := tx.Model(&project).Association("Members").Append(&contributor); err != nil {
			return err
		}

		projectID = invite.ProjectID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(InvalidationEvent{Scope: ScopeMembership, ProjectID: projectID})
	return &user, &invite, nil
}

// ExpireStaleInvites demotes pending invites whose deadline has passed, so
// they do not sit uselessly "pending" in listings forever. Called by the
// scheduler; returns how many rows flipped.
func (s *InviteService) ExpireStaleInvites() (int64, error) {
	res := s.db.Model(&models.ProjectInvite{}).
		Where("status = ? AND expires_at < ?", models.InvitePending, s.now()).
		Update("status", models.InviteExpired)
	return res.RowsAffected, res.Error
}

func (s *InviteService) sendInvitationEmail(project *models.Project, invite *models.ProjectInvite, inviter *models.User) {
	if s.notifier == nil {
		return
	}

	link := fmt.Sprintf("%s/invite_register?token=%s", s.baseURL, invite.Token)
	subject := fmt.Sprintf("Join %s on Project Tracker", project.Name)

	text := fmt.Sprintf(
		"You've been invited to join '%s'\n\n"+
			"Invited by: %s (%s)\n\n"+
			"Accept your invitation: %s\n\n"+
			"This link will expire in 48 hours.\n\n"+
			"If you have any questions, please contact %s",
		project.Name, inviter.FullName(), inviter.Email, link, inviter.Email)

	html := fmt.Sprintf(
		"<p>You've been invited to join <strong>%s</strong>.</p>"+
			"<p>Invited by: %s (%s)</p>"+
			"<p><a href=%q>Accept your invitation</a></p>"+
			"<p>This link will expire in 48 hours.</p>",
		project.Name, inviter.FullName(), inviter.Email, link)

	// SendSilently reports its own delivery failures; this only records that
	// the invite email was handed off.
	log.Printf("Invitation email queued for %s (project %s)", invite.Email, project.Slug)
	s.notifier.SendSilently([]string{invite.Email}, subject, text, html)
}

func (s *InviteService) loadProject(tx *gorm.DB, slug string) (*models.Project, error) {
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
