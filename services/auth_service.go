// services/auth_service.go - Identity & Credential Store operations
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apps390/project-tracker-home-task/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OTPTTL is how long a login code stays verifiable.
const OTPTTL = 5 * time.Minute

type AuthService struct {
	db       *gorm.DB
	notifier Notifier
	otpTTL   time.Duration
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, notifier Notifier) *AuthService {
	return &AuthService{db: db, notifier: notifier, otpTTL: OTPTTL, now: time.Now}
}

// SendOTP creates a login challenge and emails it. The send is strict: if
// the code cannot be delivered the caller must know.
func (s *AuthService) SendOTP(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return validationErr("email", "A valid email address is required.")
	}

	record := models.EmailOTP{
		Email: email,
		OTP:   models.GenerateOTP(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}

	text := fmt.Sprintf(
		"Dear User,\n\n"+
			"Your One-Time Password (OTP) for verification is: %s\n\n"+
			"This OTP is valid for the next 5 minutes. "+
			"Please do not share this code with anyone.\n\n"+
			"Best regards,\nProject Tracker Team",
		record.OTP)

	if err := s.notifier.Send([]string{email}, "Login OTP", text, ""); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}
	return nil
}

// VerifyOTP checks the newest matching challenge and consumes it. A code
// can only ever be used once.
func (s *AuthService) VerifyOTP(email, otp string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var record models.EmailOTP
	err := s.db.
		Where("email = ? AND otp = ?", email, otp).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationErr("otp", "Invalid OTP")
		}
		return err
	}

	if !record.IsValid(s.otpTTL, s.now()) {
		return ErrOTPExpired
	}

	// Consume with a guard so a concurrent verify of the same code loses.
	res := s.db.Model(&models.EmailOTP{}).
		Where("id = ? AND is_used = ?", record.ID, false).
		Update("is_used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOTPExpired
	}

	return nil
}

// RegisterManager creates a manager account for an email that already passed
// OTP verification (proven by the email token the handler validated).
func (s *AuthService) RegisterManager(email, firstName, lastName, password, confirmPassword string) (*models.User, error) {
	if password != confirmPassword {
		return nil, validationErr("password", "Passwords do not match")
	}
	if len(password) < 6 {
		return nil, validationErr("password", "Password must be at least 6 characters")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var dup int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&dup)
	if dup > 0 {
		return nil, conflictErr("User with this email already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Password:  string(hash),
		Role:      models.RoleManager,
		IsActive:  true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials. The error is the same for an unknown email and
// a wrong password.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, validationErr("email", "Invalid email or password.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, validationErr("email", "Invalid email or password.")
	}

	if !user.IsActive {
		return nil, validationErr("email", "This account is inactive.")
	}

	return &user, nil
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
