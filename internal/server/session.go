package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-client"
	sessionTTL    = 14 * 24 * time.Hour
)

var errSessionRevoked = errors.New("session has been revoked")

// session is the authenticated identity carried by a request.
type session struct {
	UserID   uint
	Username string
	JTI      string
	Expires  time.Time
}

// generateToken creates a session token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(sessionTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func (s *Server) tokenFromRequest(c *fiber.Ctx) string {
	if cookie := c.Cookies(s.config.SessionCookieName); cookie != "" {
		return cookie
	}
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseSession validates a token and checks it against the revocation list.
func (s *Server) parseSession(ctx context.Context, tokenString string) (*session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}

	sess := &session{UserID: uint(userID), Expires: exp.Time}
	sess.Username, _ = claims["username"].(string)
	sess.JTI, _ = claims["jti"].(string)

	if sess.JTI != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, "blacklist:"+sess.JTI).Result()
		if err == nil && revoked > 0 {
			return nil, errSessionRevoked
		}
	}
	return sess, nil
}

// SessionMiddleware resolves the caller from the session token when one is
// present. Anonymous requests pass through untouched.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := s.tokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}

		sess, err := s.parseSession(c.UserContext(), tokenString)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "ignoring invalid session", "error", err)
			return c.Next()
		}

		c.Locals("userID", sess.UserID)
		c.Locals("username", sess.Username)
		c.Locals("session", sess)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, sess.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// currentUserID returns the caller's id, or false for anonymous requests.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}

// LoginRequired redirects anonymous callers to the login page.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUserID(c); !ok {
			return c.Redirect(s.loginRedirect(c), fiber.StatusFound)
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after LoginRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := currentUserID(c)

		admin, err := s.userService.IsAdmin(c.UserContext(), userID)
		if err != nil && !models.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// startSession issues a token for user and sets it as the session cookie.
func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// endSession revokes the current token until it would have expired and clears the cookie.
func (s *Server) endSession(c *fiber.Ctx) {
	if sess, ok := c.Locals("session").(*session); ok && sess.JTI != "" && s.redis != nil {
		ttl := time.Until(sess.Expires)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), "blacklist:"+sess.JTI, "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
			}
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
