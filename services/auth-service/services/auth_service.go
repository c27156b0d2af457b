package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventUserRegistered is published after a new account is stored.
const EventUserRegistered = "user.registered"

var (
	ErrEmailTaken     = apperrors.Conflict("An account with this email already exists")
	ErrUserNotFound   = apperrors.NotFound("User not found")
	ErrGoogleNoEmail  = apperrors.BadRequest("Google account has no email address")
	ErrRefreshInvalid = apperrors.Unauthorized("Invalid or expired refresh token")
)

type IUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error
	RotateRefreshToken(ctx context.Context, id primitive.ObjectID, oldHash, newHash string, expiry time.Time) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

type ISessionIssuer interface {
	Issue(ac auth.Context) (string, time.Time, error)
}

// Session is everything a sign-in hands back to the client as cookies.
type Session struct {
	User           *models.User
	Token          string
	ExpiresAt      time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// GoogleProfile is the subset of the OAuth user the service needs.
type GoogleProfile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

type AuthService struct {
	users    IUserRepository
	sessions ISessionIssuer
	tokens   *TokenService
	admins   AdminList
	events   awspkg.EventPublisher
	password *PasswordValidator
	now      func() time.Time
}

func NewAuthService(users IUserRepository, sessions ISessionIssuer, tokens *TokenService, admins AdminList, events awspkg.EventPublisher) *AuthService {
	if events == nil {
		events = awspkg.NopPublisher{}
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		admins:   admins,
		events:   events,
		password: NewPasswordValidator(),
		now:      time.Now,
	}
}

// AdminList is the set of emails promoted to admin on every sign-in.
type AdminList map[string]bool

// ParseAdminList reads a comma separated ADMIN_EMAILS value.
func ParseAdminList(raw string) AdminList {
	list := AdminList{}
	for _, e := range strings.Split(raw, ",") {
		if e = normalizeEmail(e); e != "" {
			list[e] = true
		}
	}
	return list
}

func (a AdminList) roleFor(email string, current auth.Role) auth.Role {
	if a[normalizeEmail(email)] {
		return auth.RoleAdmin
	}
	if current == "" {
		return auth.RoleUser
	}
	return current
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a credentials account. When the email belongs to a
// Google-only account the password is linked to it instead.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.ContactNumbers = trimContacts(req.ContactNumbers)
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	if err := s.password.ValidatePassword(req.Password, req.Email); err != nil {
		return nil, apperrors.New(http.StatusBadRequest, err.Error(), err)
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Password != "" {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()

	if existing != nil {
		return s.linkPassword(ctx, existing, req, hash, now)
	}

	user := &models.User{
		Email:          req.Email,
		Password:       hash,
		Name:           req.Name,
		Role:           s.admins.roleFor(req.Email, ""),
		Provider:       auth.ProviderCredentials,
		ContactNumbers: req.ContactNumbers,
		Addresses:      req.Addresses,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := checkContactDetails(user); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.publishRegistered(ctx, user)
	return user, nil
}

func (s *AuthService) linkPassword(ctx context.Context, user *models.User, req types.RegisterRequest, hash string, now time.Time) (*models.User, error) {
	user.Password = hash
	user.Provider = auth.ProviderBoth
	user.Role = s.admins.roleFor(user.Email, user.Role)
	if user.Name == "" {
		user.Name = req.Name
	}
	if len(req.ContactNumbers) > 0 {
		user.ContactNumbers = req.ContactNumbers
	}
	if len(req.Addresses) > 0 {
		user.Addresses = req.Addresses
	}
	if err := checkContactDetails(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	zap.L().Info("Linked password to Google account", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// Login checks credentials and applies the admin allowlist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.promote(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GoogleSignIn finds or creates the account for a Google identity, linking
// it to an existing credentials account with the same email.
func (s *AuthService) GoogleSignIn(ctx context.Context, p GoogleProfile) (*models.User, error) {
	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, ErrGoogleNoEmail
	}
	now := s.now().UTC()

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		user = &models.User{
			Email:          email,
			Name:           strings.TrimSpace(p.Name),
			Role:           s.admins.roleFor(email, ""),
			Provider:       auth.ProviderGoogle,
			GoogleID:       p.ID,
			ProfileImage:   p.AvatarURL,
			ContactNumbers: []string{},
			Addresses:      []models.Address{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.publishRegistered(ctx, user)
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	changed := false
	if user.Provider == auth.ProviderCredentials {
		user.Provider = auth.ProviderBoth
		changed = true
	}
	if user.GoogleID == "" && p.ID != "" {
		user.GoogleID = p.ID
		changed = true
	}
	if user.Name == "" && p.Name != "" {
		user.Name = strings.TrimSpace(p.Name)
		changed = true
	}
	if role := s.admins.roleFor(user.Email, user.Role); role != user.Role {
		user.Role = role
		changed = true
	}
	if changed {
		user.UpdatedAt = now
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// promote applies the admin allowlist to an existing account.
func (s *AuthService) promote(ctx context.Context, user *models.User) error {
	role := s.admins.roleFor(user.Email, user.Role)
	if role == user.Role {
		return nil
	}
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	zap.L().Info("Promoted allowlisted account to admin", zap.String("user_id", user.ID.Hex()))
	return nil
}

// StartSession signs a session for user and stores a fresh refresh token.
func (s *AuthService) StartSession(ctx context.Context, user *models.User) (*Session, error) {
	rt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, rt.Hash, rt.ExpiresAt); err != nil {
		return nil, err
	}
	return s.session(user, rt)
}

// Refresh rotates a refresh token and signs a new session. A token that has
// already been rotated is rejected.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	id, presented, err := s.tokens.Split(raw)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if !s.tokens.Matches(user.RefreshToken, presented, user.RefreshTokenExpiry) {
		return nil, ErrRefreshInvalid
	}

	rt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateRefreshToken(ctx, user.ID, user.RefreshToken, rt.Hash, rt.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if err := s.promote(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user, rt)
}

// Logout drops the stored refresh token for userID.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	return s.users.ClearRefreshToken(ctx, id)
}

// UserIDFromRefresh names the account a refresh token claims, without
// checking it.
func (s *AuthService) UserIDFromRefresh(raw string) string {
	id, _, err := s.tokens.Split(raw)
	if err != nil {
		return ""
	}
	return id.Hex()
}

func (s *AuthService) session(user *models.User, rt *RefreshToken) (*Session, error) {
	token, expiresAt, err := s.sessions.Issue(user.AuthContext())
	if err != nil {
		return nil, err
	}
	return &Session{
		User:           user,
		Token:          token,
		ExpiresAt:      expiresAt,
		RefreshToken:   rt.Raw,
		RefreshExpires: rt.ExpiresAt,
	}, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, user *models.User) {
	err := s.events.Publish(ctx, EventUserRegistered, map[string]interface{}{
		"user_id":  user.ID.Hex(),
		"email":    user.Email,
		"name":     user.Name,
		"provider": string(user.Provider),
		"role":     string(user.Role),
	})
	if err != nil {
		zap.L().Warn("Failed to publish user.registered", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
}
