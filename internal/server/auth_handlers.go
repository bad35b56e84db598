package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"penloft/internal/cache"
	"penloft/internal/engagement"
	"penloft/internal/middleware"
	"penloft/internal/models"
	"penloft/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "penloft-api"
	tokenAudience = "penloft-client"
)

// Locals keys set by the auth middleware.
const (
	localUserID   = "userID"
	localUser     = "user"
	localTokenID  = "jti"
	localTokenExp = "tokenExp"
)

// Calls to action returned by GET /api/session.
const (
	ctaCreatePost = "create_post"
	ctaSignIn     = "sign_in"
)

var errTokenRevoked = errors.New("token has been revoked")

// tokenClaims is what a verified bearer token carries.
type tokenClaims struct {
	Fuid      string
	Email     string
	ID        string
	ExpiresAt time.Time
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new author account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SignUp(c.UserContext(), service.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.Fuid, user.Email)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with email and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.Fuid, user.Email)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. The token's jti is recorded in Redis
// until the token would have expired anyway.
// @Summary User logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(localTokenID).(string)
	exp, _ := c.Locals(localTokenExp).(time.Time)

	if s.redis != nil && jti != "" {
		ttl := time.Until(exp)
		if ttl <= 0 {
			ttl = time.Minute
		}
		if err := s.redis.Set(c.UserContext(), cache.RevokedTokenKey(jti), "1", ttl).Err(); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", "error", err)
			return s.respondError(c, models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Session handles GET /api/session: the viewer (if any) and the call to
// action the header renders.
// @Summary Current session
// @Description Viewer, call to action and feature flags for the header
// @Tags auth
// @Produce json
// @Success 200 {object} object{authenticated=bool,cta=string,cta_path=string,user=models.User,features=map[string]bool}
// @Router /session [get]
func (s *Server) Session(c *fiber.Ctx) error {
	user := viewer(c)
	if user == nil {
		return c.JSON(fiber.Map{
			"authenticated": false,
			"cta":           ctaSignIn,
			"cta_path":      engagement.SignInPath,
		})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"cta":           ctaCreatePost,
		"cta_path":      "/posts/new",
		"user":          user,
		"features":      s.featureFlags.Snapshot(user.ID),
	})
}

// AuthRequired rejects requests without a valid bearer token. The token's
// fuid is resolved to a user, creating one on first access.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.verifyToken(c.UserContext(), tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}

		if err := s.attachViewer(c, claims); err != nil {
			return s.respondError(c, err)
		}
		return c.Next()
	}
}

// OptionalViewer attaches the caller when a valid token is present and lets
// anonymous requests through untouched.
func (s *Server) OptionalViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Next()
		}
		claims, err := s.verifyToken(c.UserContext(), tokenString)
		if err != nil {
			return c.Next()
		}
		if err := s.attachViewer(c, claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "viewer resolution failed", "error", err)
		}
		return c.Next()
	}
}

func (s *Server) attachViewer(c *fiber.Ctx, claims *tokenClaims) error {
	user, err := s.userService.ResolveByFuid(c.UserContext(), service.Identity{
		Fuid:  claims.Fuid,
		Email: claims.Email,
	})
	if err != nil {
		return err
	}

	c.Locals(localUserID, user.ID)
	c.Locals(localUser, user)
	c.Locals(localTokenID, claims.ID)
	c.Locals(localTokenExp, claims.ExpiresAt)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
	c.SetUserContext(ctx)
	return nil
}

// viewer returns the authenticated caller or nil.
func viewer(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// generateToken creates a signed token whose subject is the user's fuid.
func (s *Server) generateToken(fuid, email string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}
	ttl := time.Duration(s.config.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fuid,
		"email": email,
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// verifyToken checks signature, issuer, audience, expiry and revocation.
func (s *Server) verifyToken(ctx context.Context, tokenString string) (*tokenClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return []byte(s.config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("token has no subject")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("token has no expiry")
	}
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)

	if jti != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
		if err == nil && revoked > 0 {
			return nil, errTokenRevoked
		}
	}

	return &tokenClaims{Fuid: sub, Email: email, ID: jti, ExpiresAt: exp.Time}, nil
}
