// handlers/auth.go - OTP challenge, registration and session endpoints
package handlers

import (
	"strings"

	"github.com/apps390/project-tracker-home-task/middleware"
	"github.com/apps390/project-tracker-home-task/utils"

	"github.com/gofiber/fiber/v2"
)

// SendOTP mails a one-time code to the address so it can prove ownership
// before a manager account is created.
func SendOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := authService.SendOTP(req.Email); err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusOK, "OTP sent to your email.", nil)
}

// VerifyOTP consumes the code and returns a short-lived email token that the
// registration endpoint accepts as proof of address ownership.
func VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := authService.VerifyOTP(req.Email, strings.TrimSpace(req.OTP)); err != nil {
		return respondServiceError(c, err, "account")
	}

	emailToken, err := middleware.GenerateEmailToken(req.Email)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusOK, "OTP verified.", fiber.Map{
		"email_token": emailToken,
	})
}

// RegisterManager creates a manager account. The bearer token must be the
// email token issued by VerifyOTP; the account email comes from its claims,
// never from the body.
func RegisterManager(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return utils.Fail(c, fiber.StatusUnauthorized, "Email verification token required.")
	}

	claims, err := middleware.ParseToken(parts[1], "email")
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid or expired email verification token.")
	}
	email, _ := claims["email"].(string)

	var req struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := authService.RegisterManager(email, req.FirstName, req.LastName, req.Password, req.ConfirmPassword)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	access, refresh, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusCreated, "Registration successful.", fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Login authenticates with email and password and issues a token pair.
func Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := authService.Login(strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	access, refresh, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusOK, "Login successful.", fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	claims, err := middleware.ParseToken(req.RefreshToken, "refresh")
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid or expired refresh token.")
	}

	idClaim, ok := claims["user_id"].(float64)
	if !ok {
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid refresh token.")
	}

	user, err := authService.GetUser(uint(idClaim))
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	access, refresh, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusOK, "Token refreshed.", fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Me returns the authenticated user's profile.
func Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	user, err := authService.GetUser(userID)
	if err != nil {
		return respondServiceError(c, err, "account")
	}

	return utils.Success(c, fiber.StatusOK, "User profile.", user)
}
