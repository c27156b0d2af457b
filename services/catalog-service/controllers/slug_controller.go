package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
)

type IdentifierChecker interface {
	Check(ctx context.Context, kind validation.Kind, raw, excludeID string) (*services.CheckResult, error)
}

type SlugController struct {
	checker IdentifierChecker
}

func NewSlugController(checker IdentifierChecker) *SlugController {
	return &SlugController{checker: checker}
}

type checkSlugRequest struct {
	Slug       string `json:"slug"`
	EntityType string `json:"entityType"`
	ExcludeID  string `json:"excludeId"`
}

// Check answers 200 for a free identifier, 400 for a malformed one and 409
// for a taken one. The body is the same result shape in every case.
func (sc *SlugController) Check(c *gin.Context, _ auth.Context) {
	var req checkSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request body"))
		return
	}
	kind, ok := validation.ParseKind(req.EntityType)
	if !ok {
		apperrors.Abort(c, apperrors.BadRequest("Invalid entity type"))
		return
	}

	res, err := sc.checker.Check(c.Request.Context(), kind, req.Slug, req.ExcludeID)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	status := http.StatusOK
	switch {
	case !res.IsValid:
		status = http.StatusBadRequest
	case !res.IsUnique:
		status = http.StatusConflict
	}
	c.JSON(status, res)
}
