package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/controllers"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
)

// RegisterRoutes mounts the sign-in and account routes under /api. The
// credential endpoints sit behind limiter.
func RegisterRoutes(r *gin.Engine, resolver auth.Resolver, limiter gin.HandlerFunc, authCtrl *controllers.AuthController, account *controllers.AccountController) {
	signedIn := func(fn auth.HandlerFunc) gin.HandlerFunc {
		return auth.Gate(resolver, auth.RoleUser, fn)
	}

	api := r.Group("/api")
	api.POST("/register", limiter, authCtrl.Register)
	api.POST("/login", limiter, authCtrl.Login)
	api.POST("/logout", authCtrl.Logout)
	api.POST("/refresh-token", limiter, authCtrl.RefreshToken)
	api.GET("/auth/google", authCtrl.GoogleBegin)
	api.GET("/auth/google/callback", authCtrl.GoogleCallback)

	api.GET("/account", signedIn(account.Get))
	api.PUT("/account", signedIn(account.Update))
	api.POST("/upload-profile-image", signedIn(account.UploadProfileImage))
	api.DELETE("/upload-profile-image", signedIn(account.DeleteProfileImage))
}
