package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/controllers"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
)

// Handlers bundles the controllers served under /api/admin.
type Handlers struct {
	Brands         controllers.EntityHandlers
	Categories     controllers.EntityHandlers
	Components     controllers.EntityHandlers
	ComponentItems controllers.EntityHandlers
	Accessories    controllers.EntityHandlers
	Images         *controllers.ImageController
	Slugs          *controllers.SlugController
}

// RegisterRoutes mounts every admin route behind the admin gate.
func RegisterRoutes(r *gin.Engine, resolver auth.Resolver, h Handlers) {
	admin := func(fn auth.HandlerFunc) gin.HandlerFunc {
		return auth.Gate(resolver, auth.RoleAdmin, fn)
	}

	api := r.Group("/api/admin")
	registerEntity(api.Group("/brands"), admin, h.Brands)
	registerEntity(api.Group("/categories"), admin, h.Categories)
	registerEntity(api.Group("/components"), admin, h.Components)
	registerEntity(api.Group("/component-items"), admin, h.ComponentItems)
	registerEntity(api.Group("/accessories"), admin, h.Accessories)

	api.POST("/upload-image", admin(h.Images.Upload))
	api.DELETE("/upload-image", admin(h.Images.Delete))
	api.POST("/check-slug", admin(h.Slugs.Check))
}

func registerEntity(g *gin.RouterGroup, wrap func(auth.HandlerFunc) gin.HandlerFunc, ctrl controllers.EntityHandlers) {
	g.GET("", wrap(ctrl.List))
	g.POST("", wrap(ctrl.Create))
	g.GET("/:id", wrap(ctrl.Get))
	g.PUT("/:id", wrap(ctrl.Update))
	g.DELETE("/:id", wrap(ctrl.Delete))
}
