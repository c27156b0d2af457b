package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mock Service ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) GoogleSignIn(ctx context.Context, p services.GoogleProfile) (*models.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) StartSession(ctx context.Context, user *models.User) (*services.Session, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, raw string) (*services.Session, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) UserIDFromRefresh(raw string) string {
	return m.Called(raw).String(0)
}

type fakeGoogle struct {
	profile services.GoogleProfile
	err     error
}

func (f *fakeGoogle) Begin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "https://accounts.google.com/o/oauth2/auth", http.StatusTemporaryRedirect)
}

func (f *fakeGoogle) Complete(http.ResponseWriter, *http.Request) (services.GoogleProfile, error) {
	return f.profile, f.err
}

const frontend = "http://admin.test"

func newRouter(t *testing.T, svc *MockAuthService, google OAuthFlow) (*gin.Engine, *auth.Sessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions, err := auth.NewSessions("controller-secret")
	require.NoError(t, err)

	ctrl := NewAuthController(svc, sessions, google, CookieConfig{}, frontend)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.POST("/register", ctrl.Register)
	r.POST("/login", ctrl.Login)
	r.POST("/logout", ctrl.Logout)
	r.POST("/refresh-token", ctrl.RefreshToken)
	r.GET("/auth/google", ctrl.GoogleBegin)
	r.GET("/auth/google/callback", ctrl.GoogleCallback)
	return r, sessions
}

func postJSON(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func testSession(user *models.User) *services.Session {
	now := time.Now()
	return &services.Session{
		User:           user,
		Token:          "session-token",
		ExpiresAt:      now.Add(auth.SessionTTL),
		RefreshToken:   user.ID.Hex() + ".secret",
		RefreshExpires: now.Add(auth.RefreshTTL),
	}
}

// --- Tests ---

func TestLoginController(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "test@example.com", Role: auth.RoleAdmin}

	t.Run("Success - 200 OK", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Login", mock.Anything, "test@example.com", "password123").Return(user, nil).Once()
		mockService.On("StartSession", mock.Anything, user).Return(testSession(user), nil).Once()

		recorder := postJSON(router, "/login", `{"email": "test@example.com", "password": "password123"}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Logged in successfully")
		assert.NotContains(t, recorder.Body.String(), "password\"")
		cookies := cookieMap(recorder)
		require.Contains(t, cookies, auth.SessionCookie)
		require.Contains(t, cookies, auth.RefreshCookie)
		assert.Equal(t, "session-token", cookies[auth.SessionCookie].Value)
		assert.True(t, cookies[auth.SessionCookie].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[auth.RefreshCookie].SameSite)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Credentials - 401 Unauthorized", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Login", mock.Anything, "test@example.com", "wrong").Return(nil, apperrors.ErrInvalidCredentials).Once()

		recorder := postJSON(router, "/login", `{"email": "test@example.com", "password": "wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.JSONEq(t, `{"error":"Invalid email or password"}`, recorder.Body.String())
		assert.Empty(t, recorder.Result().Cookies())
		mockService.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Bad Request - 400", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)

		recorder := postJSON(router, "/login", `{"email": "test@example.com"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.JSONEq(t, `{"error":"Email and password are required"}`, recorder.Body.String())
	})

	t.Run("Failure - Store error - 500 with generic body", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Login", mock.Anything, "test@example.com", "x").Return(nil, errors.New("mongo down")).Once()

		recorder := postJSON(router, "/login", `{"email": "test@example.com", "password": "x"}`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.NotContains(t, recorder.Body.String(), "mongo")
	})
}

func TestRegisterController(t *testing.T) {
	t.Run("Created - 201", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		user := &models.User{ID: primitive.NewObjectID(), Email: "new@example.com", Password: "hash"}
		mockService.On("Register", mock.Anything, mock.MatchedBy(func(req types.RegisterRequest) bool {
			return req.Email == "new@example.com" && len(req.ContactNumbers) == 1 && len(req.Addresses) == 1
		})).Return(user, nil).Once()

		recorder := postJSON(router, "/register", `{
			"email": "new@example.com", "password": "s3cure-pass", "name": "New",
			"contactNumbers": ["+15550100"],
			"addresses": [{"street": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US"}]
		}`)

		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Account created successfully")
		assert.NotContains(t, recorder.Body.String(), "hash")
		assert.Empty(t, recorder.Result().Cookies(), "registration does not sign in")
	})

	t.Run("Missing contact number - 400", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrContactNumberRequired).Once()

		recorder := postJSON(router, "/register", `{"email": "new@example.com", "password": "s3cure-pass", "name": "New", "contactNumbers": []}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.JSONEq(t, `{"error":"At least one contact number is required"}`, recorder.Body.String())
	})

	t.Run("Duplicate - 409", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrEmailTaken).Once()

		recorder := postJSON(router, "/register", `{"email": "taken@example.com"}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestRefreshController(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "test@example.com"}

	t.Run("Missing token - 401", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)

		recorder := postJSON(router, "/refresh-token", ``)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.JSONEq(t, `{"error":"Refresh token not found"}`, recorder.Body.String())
	})

	t.Run("Cookie token rotates both cookies", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Refresh", mock.Anything, "old.raw").Return(testSession(user), nil).Once()

		recorder := postJSON(router, "/refresh-token", ``, &http.Cookie{Name: auth.RefreshCookie, Value: "old.raw"})

		assert.Equal(t, http.StatusOK, recorder.Code)
		cookies := cookieMap(recorder)
		assert.Equal(t, "session-token", cookies[auth.SessionCookie].Value)
		assert.Equal(t, user.ID.Hex()+".secret", cookies[auth.RefreshCookie].Value)
	})

	t.Run("Body token is accepted", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Refresh", mock.Anything, "body.raw").Return(testSession(user), nil).Once()

		recorder := postJSON(router, "/refresh-token", `{"refreshToken":"body.raw"}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Rejected token clears cookies", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("Refresh", mock.Anything, "reused.raw").Return(nil, services.ErrRefreshInvalid).Once()

		recorder := postJSON(router, "/refresh-token", ``, &http.Cookie{Name: auth.RefreshCookie, Value: "reused.raw"})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		cookies := cookieMap(recorder)
		require.Contains(t, cookies, auth.SessionCookie)
		assert.Negative(t, cookies[auth.SessionCookie].MaxAge)
		assert.Negative(t, cookies[auth.RefreshCookie].MaxAge)
	})
}

func TestLogoutController(t *testing.T) {
	t.Run("Session cookie identifies the user", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, sessions := newRouter(t, mockService, nil)
		token, _, err := sessions.Issue(auth.Context{UserID: "user-1", Role: auth.RoleUser})
		require.NoError(t, err)
		mockService.On("Logout", mock.Anything, "user-1").Return(nil).Once()

		recorder := postJSON(router, "/logout", ``, &http.Cookie{Name: auth.SessionCookie, Value: token})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Negative(t, cookieMap(recorder)[auth.SessionCookie].MaxAge)
		mockService.AssertExpectations(t)
	})

	t.Run("Expired session falls back to the refresh cookie", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)
		mockService.On("UserIDFromRefresh", "abc.raw").Return("abc").Once()
		mockService.On("Logout", mock.Anything, "abc").Return(errors.New("timeout")).Once()

		recorder := postJSON(router, "/logout", ``, &http.Cookie{Name: auth.RefreshCookie, Value: "abc.raw"})

		assert.Equal(t, http.StatusOK, recorder.Code, "logout always succeeds for the client")
		assert.Contains(t, recorder.Body.String(), "Logged out successfully")
		mockService.AssertExpectations(t)
	})

	t.Run("No session at all", func(t *testing.T) {
		mockService := new(MockAuthService)
		router, _ := newRouter(t, mockService, nil)

		recorder := postJSON(router, "/logout", ``)

		assert.Equal(t, http.StatusOK, recorder.Code)
		mockService.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func TestGoogleController(t *testing.T) {
	get := func(r http.Handler, path string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, req)
		return recorder
	}

	t.Run("Disabled - 404", func(t *testing.T) {
		router, _ := newRouter(t, new(MockAuthService), nil)
		assert.Equal(t, http.StatusNotFound, get(router, "/auth/google").Code)
		assert.Equal(t, http.StatusNotFound, get(router, "/auth/google/callback").Code)
	})

	t.Run("Begin redirects to the provider", func(t *testing.T) {
		router, _ := newRouter(t, new(MockAuthService), &fakeGoogle{})
		recorder := get(router, "/auth/google")
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	})

	t.Run("Callback signs in and returns to the admin UI", func(t *testing.T) {
		mockService := new(MockAuthService)
		profile := services.GoogleProfile{ID: "g-1", Email: "g@example.com"}
		router, _ := newRouter(t, mockService, &fakeGoogle{profile: profile})
		user := &models.User{ID: primitive.NewObjectID(), Email: "g@example.com", Provider: auth.ProviderGoogle}
		mockService.On("GoogleSignIn", mock.Anything, profile).Return(user, nil).Once()
		mockService.On("StartSession", mock.Anything, user).Return(testSession(user), nil).Once()

		recorder := get(router, "/auth/google/callback")

		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, frontend+"/", recorder.Header().Get("Location"))
		assert.Contains(t, cookieMap(recorder), auth.SessionCookie)
	})

	t.Run("Provider failure redirects with an error", func(t *testing.T) {
		router, _ := newRouter(t, new(MockAuthService), &fakeGoogle{err: errors.New("state mismatch")})

		recorder := get(router, "/auth/google/callback")

		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Equal(t, frontend+"/login?error=OAuthCallback", recorder.Header().Get("Location"))
	})
}
