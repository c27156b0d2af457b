package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

// RefreshPath is the auth-service endpoint that rotates refresh tokens.
const RefreshPath = "/api/refresh-token"

// skipRefresh lists paths that manage the session themselves.
var skipRefresh = []string{
	RefreshPath,
	"/api/login",
	"/api/logout",
	"/api/register",
	"/api/auth/",
	"/health",
}

// SessionRefresher keeps a browser signed in: when a request arrives with no
// valid session but with a refresh cookie, it rotates the pair through the
// auth service, rewrites the request cookies and lets the request continue.
type SessionRefresher struct {
	resolver auth.Resolver
	authBase string
	client   *http.Client
}

func NewSessionRefresher(resolver auth.Resolver, authBase string, timeout time.Duration) *SessionRefresher {
	return &SessionRefresher{
		resolver: resolver,
		authBase: strings.TrimSuffix(authBase, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *SessionRefresher) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.needsRefresh(c.Request) {
			c.Next()
			return
		}
		rt, _ := c.Request.Cookie(auth.RefreshCookie)

		fresh, err := s.refresh(c, rt.Value)
		if err != nil {
			// The downstream gate answers 401 as usual.
			logger.Info(c, "Silent session refresh failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
			return
		}

		replaceCookies(c.Request, fresh)
		for _, ck := range fresh {
			c.Writer.Header().Add("Set-Cookie", ck.String())
		}
		logger.Info(c, "Session refreshed silently", zap.String("path", c.Request.URL.Path))
		c.Next()
	}
}

func (s *SessionRefresher) needsRefresh(r *http.Request) bool {
	for _, p := range skipRefresh {
		if r.URL.Path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(r.URL.Path, p)) {
			return false
		}
	}
	if s.resolver.Resolve(r).Authenticated() {
		return false
	}
	rt, err := r.Cookie(auth.RefreshCookie)
	return err == nil && rt.Value != ""
}

// refresh asks the auth service to rotate raw and returns the cookies it set.
func (s *SessionRefresher) refresh(ctx context.Context, raw string) ([]*http.Cookie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authBase+RefreshPath, nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: raw})
	if gc, ok := ctx.(*gin.Context); ok {
		if id := gc.GetString(logger.RequestIDKey); id != "" {
			req.Header.Set(logger.RequestIDHeader, id)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	cookies := resp.Cookies()
	for _, ck := range cookies {
		if ck.Name == auth.SessionCookie && ck.Value != "" {
			return cookies, nil
		}
	}
	return nil, fmt.Errorf("refresh response carried no session cookie")
}

// replaceCookies swaps the named cookies on r for their fresh values so the
// backend sees the new session.
func replaceCookies(r *http.Request, fresh []*http.Cookie) {
	replaced := make(map[string]bool, len(fresh))
	for _, ck := range fresh {
		replaced[ck.Name] = true
	}

	var parts []string
	for _, ck := range r.Cookies() {
		if !replaced[ck.Name] {
			parts = append(parts, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
		}
	}
	for _, ck := range fresh {
		if ck.Value != "" && ck.MaxAge >= 0 {
			parts = append(parts, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
		}
	}
	r.Header.Set("Cookie", strings.Join(parts, "; "))
}
