package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

type IAccountService interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req types.AccountUpdateRequest) (*models.User, error)
	SetProfileImage(ctx context.Context, userID string, upload storage.Upload) (*storage.Uploaded, error)
	RemoveProfileImage(ctx context.Context, userID string) error
}

// AccountController acts on the caller's own account only.
type AccountController struct {
	service IAccountService
}

func NewAccountController(service IAccountService) *AccountController {
	return &AccountController{service: service}
}

func (ctrl *AccountController) Get(c *gin.Context, ac auth.Context) {
	user, err := ctrl.service.Get(c.Request.Context(), ac.UserID)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctrl *AccountController) Update(c *gin.Context, ac auth.Context) {
	var req types.AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request body"))
		return
	}
	user, err := ctrl.service.Update(c.Request.Context(), ac.UserID, req)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "Account updated", zap.String("user_id", ac.UserID))
	c.JSON(http.StatusOK, gin.H{
		"message": "Account updated successfully",
		"user":    user,
	})
}

func (ctrl *AccountController) UploadProfileImage(c *gin.Context, ac auth.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+1<<20)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.Abort(c, apperrors.New(http.StatusBadRequest, storage.ErrTooLarge.Error(), err))
			return
		}
		apperrors.Abort(c, apperrors.BadRequest("No image file provided"))
		return
	}
	file, err := fh.Open()
	if err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Could not read uploaded file"))
		return
	}
	defer file.Close()

	uploaded, err := ctrl.service.SetProfileImage(c.Request.Context(), ac.UserID, storage.Upload{
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		if storage.IsValidationError(err) {
			apperrors.Abort(c, apperrors.New(http.StatusBadRequest, err.Error(), err))
			return
		}
		if _, ok := apperrors.As(err); ok {
			apperrors.Abort(c, err)
			return
		}
		apperrors.Abort(c, apperrors.New(http.StatusInternalServerError, "Failed to upload image", err))
		return
	}
	logger.Info(c, "Profile image updated", zap.String("user_id", ac.UserID), zap.String("key", uploaded.Key))
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile image uploaded successfully",
		"url":     uploaded.URL,
	})
}

func (ctrl *AccountController) DeleteProfileImage(c *gin.Context, ac auth.Context) {
	if err := ctrl.service.RemoveProfileImage(c.Request.Context(), ac.UserID); err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "Profile image removed", zap.String("user_id", ac.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Profile image removed successfully"})
}
