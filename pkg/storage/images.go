package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"go.uber.org/zap"
)

// MaxImageSize is the upload ceiling; a file of exactly this size is accepted.
const MaxImageSize int64 = 5 << 20

// EventImageOrphaned is published when a superseded image could not be removed.
const EventImageOrphaned = "image.orphaned"

var (
	ErrUnsupportedType = errors.New("invalid file type. Only JPEG, PNG and WebP images are allowed")
	ErrTooLarge        = fmt.Errorf("file too large (max %dMB)", MaxImageSize>>20)
	ErrEmptyFile       = errors.New("image file is empty")
	ErrInvalidFolder   = errors.New("invalid folder name. Use 1-50 letters, digits, hyphens or underscores")
)

var (
	allowedImageTypes = map[string]string{
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/png":  "png",
		"image/webp": "webp",
	}
	folderPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
)

// IsValidationError reports whether err describes bad client input rather
// than a storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrInvalidFolder) ||
		errors.Is(err, ErrForeignURL)
}

// Observer receives lifecycle counts. The prometheus collectors implement it.
type Observer interface {
	ObserveUpload(folder string, size int64)
	ObserveDelete(outcome string)
}

// Delete outcomes reported to the Observer.
const (
	DeleteOK      = "deleted"
	DeleteFailed  = "failed"
	DeleteSkipped = "skipped"
)

type Upload struct {
	Folder      string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Uploaded struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ImageManager owns the upload and cleanup rules for every stored image.
// Cleanup is best-effort: failures are logged, counted and reported as
// orphan events, never returned.
type ImageManager struct {
	store         BlobStore
	observer      Observer
	events        awspkg.EventPublisher
	deleteTimeout time.Duration
	now           func() time.Time
}

type Option func(*ImageManager)

func WithObserver(o Observer) Option { return func(m *ImageManager) { m.observer = o } }

func WithEvents(p awspkg.EventPublisher) Option { return func(m *ImageManager) { m.events = p } }

func WithClock(now func() time.Time) Option { return func(m *ImageManager) { m.now = now } }

func NewImageManager(store BlobStore, opts ...Option) *ImageManager {
	m := &ImageManager{
		store:         store,
		events:        awspkg.NopPublisher{},
		deleteTimeout: 10 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validate checks an upload against the folder, type and size rules and
// returns the file extension to use for the key.
func Validate(folder, contentType string, size int64) (string, error) {
	if !folderPattern.MatchString(folder) {
		return "", ErrInvalidFolder
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedType
	}
	ext, ok := allowedImageTypes[strings.ToLower(mediaType)]
	if !ok {
		return "", ErrUnsupportedType
	}
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if size > MaxImageSize {
		return "", ErrTooLarge
	}
	return ext, nil
}

// Upload validates and stores an image under {folder}/{millis}-{random}.{ext}.
// Nothing is sent to storage when validation fails.
func (m *ImageManager) Upload(ctx context.Context, u Upload) (*Uploaded, error) {
	ext, err := Validate(u.Folder, u.ContentType, u.Size)
	if err != nil {
		return nil, err
	}

	ref := BlobRef{
		Bucket: m.store.Bucket(),
		Key:    fmt.Sprintf("%s/%d-%s.%s", u.Folder, m.now().UnixMilli(), randomSuffix(), ext),
	}

	mediaType, _, _ := mime.ParseMediaType(u.ContentType)
	body := io.LimitReader(u.Body, u.Size)
	if err := m.store.Put(ctx, ref, body, u.Size, strings.ToLower(mediaType)); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	if m.observer != nil {
		m.observer.ObserveUpload(u.Folder, u.Size)
	}
	zap.L().Info("Image uploaded", zap.String("key", ref.Key), zap.Int64("size", u.Size))
	return &Uploaded{URL: m.store.URL(ref), Key: ref.Key}, nil
}

// Owns reports whether rawURL was issued by the configured store.
func (m *ImageManager) Owns(rawURL string) bool {
	_, err := m.store.Ref(rawURL)
	return err == nil
}

// Delete removes the object behind rawURL. Empty and foreign URLs are
// skipped. It reports whether the object was removed.
func (m *ImageManager) Delete(ctx context.Context, rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}

	ref, err := m.store.Ref(rawURL)
	if err != nil {
		zap.L().Warn("Skipping delete of unmanaged image url", zap.String("url", rawURL))
		m.observe(DeleteSkipped)
		return false
	}

	// Cleanup outlives a cancelled request so the blob is not leaked.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.deleteTimeout)
	defer cancel()

	if err := m.store.Delete(cctx, ref); err != nil {
		zap.L().Warn("Failed to delete image, leaving orphan", zap.String("key", ref.Key), zap.Error(err))
		m.observe(DeleteFailed)
		m.reportOrphan(cctx, rawURL, ref, err)
		return false
	}

	m.observe(DeleteOK)
	return true
}

// DeleteAll removes every URL independently; one failure never stops the rest.
func (m *ImageManager) DeleteAll(ctx context.Context, urls ...string) int {
	deleted := 0
	for _, u := range urls {
		if m.Delete(ctx, u) {
			deleted++
		}
	}
	return deleted
}

// Replace deletes oldURL when a document field moved to a different value.
func (m *ImageManager) Replace(ctx context.Context, oldURL, newURL string) {
	if oldURL == "" || oldURL == newURL {
		return
	}
	m.Delete(ctx, oldURL)
}

// Reconcile deletes every image the old document held that the new one no
// longer references, in any field, and returns them. A URL moved between
// fields is kept.
func (m *ImageManager) Reconcile(ctx context.Context, oldURLs, newURLs []string) []string {
	removed := RemovedURLs(oldURLs, newURLs)
	m.DeleteAll(ctx, removed...)
	return removed
}

// RemovedURLs returns the URLs in prev that are absent from next, in prev's order.
func RemovedURLs(prev, next []string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, u := range next {
		keep[u] = struct{}{}
	}
	var removed []string
	seen := make(map[string]struct{}, len(prev))
	for _, u := range prev {
		if u == "" {
			continue
		}
		if _, ok := keep[u]; ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		removed = append(removed, u)
	}
	return removed
}

func (m *ImageManager) observe(outcome string) {
	if m.observer != nil {
		m.observer.ObserveDelete(outcome)
	}
}

func (m *ImageManager) reportOrphan(ctx context.Context, rawURL string, ref BlobRef, cause error) {
	err := m.events.Publish(ctx, EventImageOrphaned, map[string]interface{}{
		"url":    rawURL,
		"bucket": ref.Bucket,
		"key":    ref.Key,
		"reason": cause.Error(),
	})
	if err != nil {
		zap.L().Warn("Failed to publish orphaned image event", zap.String("key", ref.Key), zap.Error(err))
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
