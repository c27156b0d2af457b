package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

type IAuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GoogleSignIn(ctx context.Context, p services.GoogleProfile) (*models.User, error)
	StartSession(ctx context.Context, user *models.User) (*services.Session, error)
	Refresh(ctx context.Context, raw string) (*services.Session, error)
	Logout(ctx context.Context, userID string) error
	UserIDFromRefresh(raw string) string
}

// OAuthFlow runs the redirect dance with an identity provider.
type OAuthFlow interface {
	Begin(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request) (services.GoogleProfile, error)
}

// CookieConfig controls how session cookies are written.
type CookieConfig struct {
	Domain string
	Secure bool
}

type AuthController struct {
	service     IAuthService
	resolver    auth.Resolver
	google      OAuthFlow
	cookies     CookieConfig
	frontendURL string
}

func NewAuthController(service IAuthService, resolver auth.Resolver, google OAuthFlow, cookies CookieConfig, frontendURL string) *AuthController {
	return &AuthController{
		service:     service,
		resolver:    resolver,
		google:      google,
		cookies:     cookies,
		frontendURL: frontendURL,
	}
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request body"))
		return
	}
	user, err := ctrl.service.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "Account registered", zap.String("user_id", user.ID.Hex()), zap.String("provider", string(user.Provider)))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    user,
	})
}

func (ctrl *AuthController) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Email and password are required"))
		return
	}
	user, err := ctrl.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	session, err := ctrl.service.StartSession(c.Request.Context(), user)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	ctrl.setSessionCookies(c, session)
	logger.Info(c, "User logged in", zap.String("user_id", user.ID.Hex()))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Logged in successfully",
		"user":      user,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout clears the cookies and the stored refresh token. It succeeds even
// without a session.
func (ctrl *AuthController) Logout(c *gin.Context) {
	userID := ctrl.resolver.Resolve(c.Request).UserID
	if userID == "" {
		if raw, err := c.Cookie(auth.RefreshCookie); err == nil {
			userID = ctrl.service.UserIDFromRefresh(raw)
		}
	}
	if userID != "" {
		if err := ctrl.service.Logout(c.Request.Context(), userID); err != nil {
			logger.Warn(c, "Failed to clear refresh token", zap.String("user_id", userID), zap.Error(err))
		}
	}
	ctrl.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates the refresh token from the cookie, or from the JSON
// body for non-browser clients.
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	raw, _ := c.Cookie(auth.RefreshCookie)
	if raw == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		raw = req.RefreshToken
	}
	if raw == "" {
		apperrors.Abort(c, apperrors.Unauthorized("Refresh token not found"))
		return
	}

	session, err := ctrl.service.Refresh(c.Request.Context(), raw)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Code == http.StatusUnauthorized {
			ctrl.clearSessionCookies(c)
		}
		apperrors.Abort(c, err)
		return
	}
	ctrl.setSessionCookies(c, session)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Session refreshed",
		"expiresAt": session.ExpiresAt,
	})
}

var ErrGoogleDisabled = apperrors.NotFound("Google sign-in is not configured")

func (ctrl *AuthController) GoogleBegin(c *gin.Context) {
	if ctrl.google == nil {
		apperrors.Abort(c, ErrGoogleDisabled)
		return
	}
	ctrl.google.Begin(c.Writer, c.Request)
}

// GoogleCallback completes the OAuth flow, signs the user in and sends the
// browser back to the admin UI.
func (ctrl *AuthController) GoogleCallback(c *gin.Context) {
	if ctrl.google == nil {
		apperrors.Abort(c, ErrGoogleDisabled)
		return
	}
	profile, err := ctrl.google.Complete(c.Writer, c.Request)
	if err != nil {
		logger.Warn(c, "Google sign-in failed", zap.Error(err))
		c.Redirect(http.StatusFound, ctrl.frontendURL+"/login?error=OAuthCallback")
		return
	}
	user, err := ctrl.service.GoogleSignIn(c.Request.Context(), profile)
	if err != nil {
		logger.Error(c, "Google account resolution failed", err)
		c.Redirect(http.StatusFound, ctrl.frontendURL+"/login?error=OAuthAccount")
		return
	}
	session, err := ctrl.service.StartSession(c.Request.Context(), user)
	if err != nil {
		logger.Error(c, "Failed to start session", err, zap.String("user_id", user.ID.Hex()))
		c.Redirect(http.StatusFound, ctrl.frontendURL+"/login?error=SessionRequired")
		return
	}
	ctrl.setSessionCookies(c, session)
	logger.Info(c, "User signed in with Google", zap.String("user_id", user.ID.Hex()))
	c.Redirect(http.StatusFound, ctrl.frontendURL+"/")
}

func (ctrl *AuthController) setSessionCookies(c *gin.Context, s *services.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, s.Token, secondsUntil(s.ExpiresAt), "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
	c.SetCookie(auth.RefreshCookie, s.RefreshToken, secondsUntil(s.RefreshExpires), "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
}

func (ctrl *AuthController) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
	c.SetCookie(auth.RefreshCookie, "", -1, "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
}

func secondsUntil(t time.Time) int {
	d := time.Until(t)
	if d <= 0 {
		return -1
	}
	return int(d.Seconds())
}
