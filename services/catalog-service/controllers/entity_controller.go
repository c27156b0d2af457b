package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EntityService is the CRUD surface every catalog kind exposes. Req is the
// request body and T the document (or populated view) returned.
type EntityService[Req any, T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	Create(ctx context.Context, req Req) (*T, error)
	Update(ctx context.Context, id primitive.ObjectID, req Req) (*T, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// EntityHandlers is what the router needs from an entity controller.
type EntityHandlers interface {
	List(c *gin.Context, ac auth.Context)
	Get(c *gin.Context, ac auth.Context)
	Create(c *gin.Context, ac auth.Context)
	Update(c *gin.Context, ac auth.Context)
	Delete(c *gin.Context, ac auth.Context)
}

// EntityController serves one catalog kind. Errors are attached to the gin
// context and rendered by the error middleware.
type EntityController[Req any, T any] struct {
	kind    string
	service EntityService[Req, T]
	cache   *ListCache
}

func NewEntityController[Req any, T any](kind string, service EntityService[Req, T], cache *ListCache) *EntityController[Req, T] {
	return &EntityController[Req, T]{kind: kind, service: service, cache: cache}
}

func (ec *EntityController[Req, T]) List(c *gin.Context, _ auth.Context) {
	ctx := c.Request.Context()
	body, version, ok := ec.cache.Get(ctx, ec.kind)
	if ok {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	docs, err := ec.service.List(ctx)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	if docs == nil {
		docs = []T{}
	}
	body, err = json.Marshal(docs)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	ec.cache.SetAsync(ec.kind, version, body)
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (ec *EntityController[Req, T]) Get(c *gin.Context, _ auth.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := ec.service.Get(c.Request.Context(), id)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (ec *EntityController[Req, T]) Create(c *gin.Context, ac auth.Context) {
	var req Req
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request body"))
		return
	}
	doc, err := ec.service.Create(c.Request.Context(), req)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	ec.cache.Invalidate(c.Request.Context())
	logger.Info(c, "Catalog entity created", zap.String("kind", ec.kind), zap.String("admin_id", ac.UserID))
	c.JSON(http.StatusCreated, doc)
}

func (ec *EntityController[Req, T]) Update(c *gin.Context, ac auth.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req Req
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request body"))
		return
	}
	doc, err := ec.service.Update(c.Request.Context(), id, req)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	ec.cache.Invalidate(c.Request.Context())
	logger.Info(c, "Catalog entity updated",
		zap.String("kind", ec.kind), zap.String("id", id.Hex()), zap.String("admin_id", ac.UserID))
	c.JSON(http.StatusOK, doc)
}

func (ec *EntityController[Req, T]) Delete(c *gin.Context, ac auth.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ec.service.Delete(c.Request.Context(), id); err != nil {
		apperrors.Abort(c, err)
		return
	}
	ec.cache.Invalidate(c.Request.Context())
	logger.Info(c, "Catalog entity deleted",
		zap.String("kind", ec.kind), zap.String("id", id.Hex()), zap.String("admin_id", ac.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

// parseID reads :id, aborting with 400 when it is not an ObjectID.
func parseID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, apperrors.ErrInvalidID)
		return primitive.NilObjectID, false
	}
	return id, true
}
