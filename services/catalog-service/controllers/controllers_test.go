package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeBrandService struct {
	brands    []models.Brand
	listCalls int
	creates   int
	createErr error
}

func (f *fakeBrandService) List(context.Context) ([]models.Brand, error) {
	f.listCalls++
	return f.brands, nil
}

func (f *fakeBrandService) Get(_ context.Context, id primitive.ObjectID) (*models.Brand, error) {
	for i := range f.brands {
		if f.brands[i].ID == id {
			return &f.brands[i], nil
		}
	}
	return nil, apperrors.NotFound("Brand not found")
}

func (f *fakeBrandService) Create(_ context.Context, req services.BrandRequest) (*models.Brand, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := models.Brand{ID: primitive.NewObjectID(), BrandName: req.BrandName, IsActive: true}
	f.brands = append(f.brands, b)
	return &b, nil
}

func (f *fakeBrandService) Update(_ context.Context, id primitive.ObjectID, req services.BrandRequest) (*models.Brand, error) {
	return &models.Brand{ID: id, BrandName: req.BrandName}, nil
}

func (f *fakeBrandService) Delete(context.Context, primitive.ObjectID) error { return nil }

// memRedis answers the three commands the list cache issues.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	down bool
}

func newMemRedis() *memRedis { return &memRedis{data: map[string]string{}} }

func (m *memRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case int:
		m.data[key] = strconv.Itoa(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	n, _ := strconv.Atoi(m.data[key])
	n++
	m.data[key] = strconv.Itoa(n)
	return redis.NewIntResult(int64(n), nil)
}

func (m *memRedis) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type testEnv struct {
	router   *gin.Engine
	sessions *auth.Sessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := auth.NewSessions("controller-secret")
	require.NoError(t, err)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	return &testEnv{router: r, sessions: s}
}

func (e *testEnv) admin(fn auth.HandlerFunc) gin.HandlerFunc {
	return auth.Gate(e.sessions, auth.RoleAdmin, fn)
}

func (e *testEnv) do(t *testing.T, req *http.Request, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	if role != "" {
		token, _, err := e.sessions.Issue(auth.Context{UserID: "u-" + string(role), Role: role})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNonAdminCannotCreate(t *testing.T) {
	env := newTestEnv(t)
	svc := &fakeBrandService{}
	ctrl := NewEntityController[services.BrandRequest, models.Brand]("brands", svc, nil)
	env.router.POST("/api/admin/brands", env.admin(ctrl.Create))

	body := `{"brandName":"Dell"}`
	w := env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", body), auth.RoleUser)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())

	w = env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", body), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please log in"}`, w.Body.String())

	assert.Zero(t, svc.creates)

	w = env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", body), auth.RoleAdmin)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, svc.creates)
}

func TestCreateRendersServiceErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := &fakeBrandService{createErr: apperrors.Conflict("Brand with this name already exists")}
	ctrl := NewEntityController[services.BrandRequest, models.Brand]("brands", svc, nil)
	env.router.POST("/api/admin/brands", env.admin(ctrl.Create))

	w := env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", `{"brandName":"Dell"}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Brand with this name already exists"}`, w.Body.String())

	svc.createErr = errors.New("mongo: server selection timeout")
	w = env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", `{"brandName":"Dell"}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", `{not json`), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetValidatesID(t *testing.T) {
	env := newTestEnv(t)
	ctrl := NewEntityController[services.BrandRequest, models.Brand]("brands", &fakeBrandService{}, nil)
	env.router.GET("/api/admin/brands/:id", env.admin(ctrl.Get))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands/xyz", nil), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid id format"}`, w.Body.String())

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands/"+primitive.NewObjectID().Hex(), nil), auth.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsesCacheAndMutationsInvalidate(t *testing.T) {
	env := newTestEnv(t)
	svc := &fakeBrandService{brands: []models.Brand{{ID: primitive.NewObjectID(), BrandName: "Dell"}}}
	rdb := newMemRedis()
	ctrl := NewEntityController[services.BrandRequest, models.Brand]("brands", svc, NewListCache(rdb, time.Minute))
	env.router.GET("/api/admin/brands", env.admin(ctrl.List))
	env.router.POST("/api/admin/brands", env.admin(ctrl.Create))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands", nil), auth.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"brandName":"Dell"`)

	// only the list; the version key appears with the first invalidation
	require.Eventually(t, func() bool { return rdb.size() == 1 }, time.Second, 10*time.Millisecond)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands", nil), auth.RoleAdmin)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, svc.listCalls)

	w = env.do(t, jsonReq(http.MethodPost, "/api/admin/brands", `{"brandName":"HP"}`), auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands", nil), auth.RoleAdmin)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, svc.listCalls)
	assert.Contains(t, w.Body.String(), `"brandName":"HP"`)
}

func (m *memRedis) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func TestListCacheDropsWriteFromBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	rdb := newMemRedis()
	cache := NewListCache(rdb, time.Minute)

	_, version, hit := cache.Get(ctx, "brands")
	require.False(t, hit)
	assert.Zero(t, version)

	cache.Invalidate(ctx)
	cache.SetAsync("brands", version, []byte(`[{"brandName":"Old"}]`))
	require.Eventually(t, func() bool { return rdb.has(ListCachePrefix + "0:brands") }, time.Second, 10*time.Millisecond)

	body, version, hit := cache.Get(ctx, "brands")
	assert.False(t, hit)
	assert.Nil(t, body)
	assert.Equal(t, int64(1), version)
}

func TestListCacheSkipsWriteWithoutVersion(t *testing.T) {
	rdb := newMemRedis()
	rdb.down = true
	cache := NewListCache(rdb, time.Minute)

	_, version, hit := cache.Get(context.Background(), "brands")
	assert.False(t, hit)
	assert.Equal(t, NoVersion, version)

	rdb.down = false
	cache.SetAsync("brands", version, []byte(`[]`))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, rdb.size())
}

func TestListWorksWhenRedisIsDown(t *testing.T) {
	env := newTestEnv(t)
	svc := &fakeBrandService{}
	rdb := newMemRedis()
	rdb.down = true
	ctrl := NewEntityController[services.BrandRequest, models.Brand]("brands", svc, NewListCache(rdb, 0))
	env.router.GET("/api/admin/brands", env.admin(ctrl.List))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/brands", nil), auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

type recordingBlobs struct {
	storage.PublicURLLocator
	mu      sync.Mutex
	puts    int
	deletes []string
	failDel bool
}

func (r *recordingBlobs) Bucket() string { return r.PublicURLLocator.Bucket }

func (r *recordingBlobs) Put(_ context.Context, _ storage.BlobRef, body io.Reader, _ int64, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	_, err := io.Copy(io.Discard, body)
	return err
}

func (r *recordingBlobs) Delete(_ context.Context, ref storage.BlobRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDel {
		return errors.New("throttled")
	}
	r.deletes = append(r.deletes, ref.Key)
	return nil
}

func (r *recordingBlobs) List(context.Context, string, func(storage.ObjectInfo) error) error {
	return nil
}

func imageEnv(t *testing.T) (*testEnv, *recordingBlobs) {
	env := newTestEnv(t)
	blobs := &recordingBlobs{PublicURLLocator: storage.NewS3Locator("laptops", "us-east-1", "http://localhost:4566", "")}
	ctrl := NewImageController(storage.NewImageManager(blobs))
	env.router.POST("/api/admin/upload-image", env.admin(ctrl.Upload))
	env.router.DELETE("/api/admin/upload-image", env.admin(ctrl.Delete))
	return env, blobs
}

func multipartUpload(t *testing.T, contentType string, size int, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if contentType != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="pic"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xAB}, size))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRejectsGIFWithoutStorageCall(t *testing.T) {
	env, blobs := imageEnv(t)
	w := env.do(t, multipartUpload(t, "image/gif", 1024, map[string]string{"folder": "brands"}), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only JPEG, PNG and WebP")
	assert.Zero(t, blobs.puts)
}

func TestUploadSizeBoundary(t *testing.T) {
	env, blobs := imageEnv(t)

	w := env.do(t, multipartUpload(t, "image/png", int(storage.MaxImageSize)+1, nil), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file too large")
	assert.Zero(t, blobs.puts)

	w = env.do(t, multipartUpload(t, "image/png", int(storage.MaxImageSize), nil), auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, blobs.puts)
	assert.Contains(t, w.Body.String(), `"key":"uploads/`)
}

func TestUploadWithDeleteURLRemovesPrevious(t *testing.T) {
	env, blobs := imageEnv(t)
	old := blobs.URL(storage.BlobRef{Bucket: "laptops", Key: "brands/1-old.png"})

	w := env.do(t, multipartUpload(t, "image/webp", 10, map[string]string{"folder": "brands", "deleteUrl": old}), auth.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"brands/1-old.png"}, blobs.deletes)
}

func TestUploadRequiresFile(t *testing.T) {
	env, _ := imageEnv(t)
	w := env.do(t, multipartUpload(t, "", 0, map[string]string{"folder": "brands"}), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No image file provided"}`, w.Body.String())
}

func TestDeleteImage(t *testing.T) {
	env, blobs := imageEnv(t)

	w := env.do(t, jsonReq(http.MethodDelete, "/api/admin/upload-image", `{"imageUrl":"https://evil.example.com/x.png"}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, jsonReq(http.MethodDelete, "/api/admin/upload-image", `{}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	blobs.failDel = true
	url := blobs.URL(storage.BlobRef{Bucket: "laptops", Key: "brands/2-x.png"})
	w = env.do(t, jsonReq(http.MethodDelete, "/api/admin/upload-image", `{"imageUrl":"`+url+`"}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code, "storage failures are swallowed")
}

type fakeChecker struct {
	result *services.CheckResult
	kind   validation.Kind
}

func (f *fakeChecker) Check(_ context.Context, kind validation.Kind, _, _ string) (*services.CheckResult, error) {
	f.kind = kind
	return f.result, nil
}

func TestCheckSlugStatuses(t *testing.T) {
	tests := []struct {
		name   string
		result services.CheckResult
		status int
	}{
		{"available", services.CheckResult{IsValid: true, IsUnique: true}, http.StatusOK},
		{"invalid", services.CheckResult{}, http.StatusBadRequest},
		{"taken", services.CheckResult{IsValid: true, ConflictingName: "Hub"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			checker := &fakeChecker{result: &tt.result}
			env.router.POST("/api/admin/check-slug", env.admin(NewSlugController(checker).Check))

			w := env.do(t, jsonReq(http.MethodPost, "/api/admin/check-slug", `{"slug":"usb-c-hub","entityType":"accessory"}`), auth.RoleAdmin)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, validation.KindAccessory, checker.kind)
		})
	}

	env := newTestEnv(t)
	env.router.POST("/api/admin/check-slug", env.admin(NewSlugController(&fakeChecker{}).Check))
	w := env.do(t, jsonReq(http.MethodPost, "/api/admin/check-slug", `{"slug":"x","entityType":"laptop"}`), auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid entity type"}`, w.Body.String())
}
