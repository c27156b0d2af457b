package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

// DefaultFolder is used when an upload names no folder.
const DefaultFolder = "uploads"

// ImageManager is the part of storage.ImageManager the handlers use.
type ImageManager interface {
	Upload(ctx context.Context, u storage.Upload) (*storage.Uploaded, error)
	Owns(rawURL string) bool
	Delete(ctx context.Context, rawURL string) bool
}

type ImageController struct {
	images ImageManager
}

func NewImageController(images ImageManager) *ImageController {
	return &ImageController{images: images}
}

// Upload accepts multipart fields image, folder and an optional deleteUrl
// naming the image this upload supersedes.
func (ic *ImageController) Upload(c *gin.Context, ac auth.Context) {
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
	folder := strings.TrimSpace(c.PostForm("folder"))
	if folder == "" {
		folder = DefaultFolder
	}

	file, err := fh.Open()
	if err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Could not read uploaded file"))
		return
	}
	defer file.Close()

	uploaded, err := ic.images.Upload(c.Request.Context(), storage.Upload{
		Folder:      folder,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		if storage.IsValidationError(err) {
			apperrors.Abort(c, apperrors.New(http.StatusBadRequest, err.Error(), err))
			return
		}
		apperrors.Abort(c, apperrors.New(http.StatusInternalServerError, "Failed to upload image", err))
		return
	}

	if old := strings.TrimSpace(c.PostForm("deleteUrl")); old != "" && old != uploaded.URL {
		ic.images.Delete(c.Request.Context(), old)
	}

	logger.Info(c, "Image uploaded", zap.String("key", uploaded.Key), zap.String("admin_id", ac.UserID))
	c.JSON(http.StatusOK, gin.H{
		"message": "Image uploaded successfully",
		"url":     uploaded.URL,
		"key":     uploaded.Key,
	})
}

type deleteImageRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

// Delete removes an image by URL. Storage failures are swallowed.
func (ic *ImageController) Delete(c *gin.Context, ac auth.Context) {
	var req deleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("imageUrl is required"))
		return
	}
	if !ic.images.Owns(req.ImageURL) {
		apperrors.Abort(c, apperrors.New(http.StatusBadRequest, "Image URL does not belong to this store", storage.ErrForeignURL))
		return
	}

	deleted := ic.images.Delete(c.Request.Context(), req.ImageURL)
	logger.Info(c, "Image delete requested",
		zap.String("url", req.ImageURL), zap.Bool("deleted", deleted), zap.String("admin_id", ac.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
