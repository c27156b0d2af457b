package routes

import (
	"github.com/gin-gonic/gin"
)

// RegisterAllRoutes maps the public /api surface onto the backend services.
// Authorization stays with the services; the gateway only forwards.
func RegisterAllRoutes(r *gin.Engine, authService, catalogService gin.HandlerFunc) {
	// ===== AUTH SERVICE =====
	r.POST("/api/register", authService)
	r.POST("/api/login", authService)
	r.POST("/api/logout", authService)
	r.POST("/api/refresh-token", authService)
	r.GET("/api/auth/*any", authService)

	// Account (signed in)
	r.GET("/api/account", authService)
	r.PUT("/api/account", authService)
	r.POST("/api/upload-profile-image", authService)
	r.DELETE("/api/upload-profile-image", authService)

	// ===== CATALOG SERVICE (admin) =====
	admin := r.Group("/api/admin")
	admin.GET("/*any", catalogService)
	admin.POST("/*any", catalogService)
	admin.PUT("/*any", catalogService)
	admin.DELETE("/*any", catalogService)
}
