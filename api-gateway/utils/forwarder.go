package utils

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

// hopHeaders are meaningful only for a single connection.
var hopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder relays requests to a backend service, keeping method, path,
// query, body and cookies.
type Forwarder struct {
	TargetBase string
	client     *http.Client
}

func NewForwarder(targetBase string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		TargetBase: strings.TrimSuffix(targetBase, "/"),
		client: &http.Client{
			Timeout: timeout,
			// Redirects (Google sign-in) go back to the browser untouched.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

// Handler forwards every request it receives to the same path on the target.
func (f *Forwarder) Handler() gin.HandlerFunc {
	return f.Forward
}

func (f *Forwarder) Forward(c *gin.Context) {
	targetURL := f.TargetBase + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		logger.Error(c, "Failed to create forward request", err, zap.String("url", targetURL))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	for k, v := range c.Request.Header {
		if hopHeaders[strings.ToLower(k)] {
			continue
		}
		req.Header[k] = v
	}
	if id := c.GetString(logger.RequestIDKey); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}
	req.Header.Set("X-Forwarded-For", c.ClientIP())
	req.Header.Set("X-Forwarded-Host", c.Request.Host)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Error(c, "Failed to forward request", err,
			zap.String("method", c.Request.Method),
			zap.String("url", targetURL),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lowerKey := strings.ToLower(k)
		// CORS belongs to the gateway.
		if strings.HasPrefix(lowerKey, "access-control-") || hopHeaders[lowerKey] {
			continue
		}
		// The gateway already set its own request id.
		if lowerKey == strings.ToLower(logger.RequestIDHeader) {
			continue
		}
		for _, vv := range v {
			c.Writer.Header().Add(k, vv)
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Warn(c, "Failed to copy response body", zap.String("url", targetURL), zap.Error(err))
	}
}
