// middleware/auth.go
package middleware

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/apps390/project-tracker-home-task/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
	EmailTokenTTL   = 10 * time.Minute
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "project-tracker-secret-change-in-production"
	}
	return []byte(secret)
}

// AuthMiddleware validates the bearer token and stores the caller's identity
// in the request locals.
func AuthMiddleware(c *fiber.Ctx) error {
	claims, err := parseBearer(c, "access")
	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	c.Locals("userId", claims["user_id"])
	c.Locals("email", claims["email"])
	c.Locals("role", claims["role"])

	return c.Next()
}

// ManagerRequired rejects callers whose session does not carry the manager
// role. Runs after AuthMiddleware, before any project is loaded.
func ManagerRequired(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role == "" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required.",
		})
	}
	if models.Role(role) != models.RoleManager {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied. Only project managers are allowed.",
		})
	}
	return c.Next()
}

func parseBearer(c *fiber.Ctx, wantType string) (jwt.MapClaims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("Invalid authorization header format")
	}

	return ParseToken(parts[1], wantType)
}

// ParseToken validates a signed token and checks its type claim
// ("access", "refresh" or "email").
func ParseToken(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("Invalid signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("Invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, errors.New("Token expired")
	}

	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, errors.New("Invalid token type")
	}

	return claims, nil
}

// GenerateTokenPair issues the access/refresh pair for a user session.
func GenerateTokenPair(user *models.User) (access string, refresh string, err error) {
	access, err = signToken(jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"type":    "access",
		"exp":     time.Now().Add(AccessTokenTTL).Unix(),
	})
	if err != nil {
		return "", "", err
	}

	refresh, err = signToken(jwt.MapClaims{
		"user_id": user.ID,
		"type":    "refresh",
		"exp":     time.Now().Add(RefreshTokenTTL).Unix(),
	})
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// GenerateEmailToken issues the short-lived proof that an email passed OTP
// verification. Registration consumes it.
func GenerateEmailToken(email string) (string, error) {
	return signToken(jwt.MapClaims{
		"email": email,
		"type":  "email",
		"exp":   time.Now().Add(EmailTokenTTL).Unix(),
	})
}

func signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// GetUserID extracts the authenticated user's id from the request locals.
func GetUserID(c *fiber.Ctx) (uint, error) {
	userID := c.Locals("userId")
	if userID == nil {
		return 0, fiber.NewError(401, "User not authenticated")
	}

	// JWT claims decode numbers as float64
	if id, ok := userID.(float64); ok {
		return uint(id), nil
	}
	if id, ok := userID.(uint); ok {
		return id, nil
	}

	return 0, fiber.NewError(401, "Invalid user ID format")
}

// GetEmail extracts the authenticated user's email from the request locals.
func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}
