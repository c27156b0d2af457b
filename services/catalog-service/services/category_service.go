package services

import (
	"context"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryRequest struct {
	CategoryName        string `json:"categoryName"`
	CategoryDescription string `json:"categoryDescription"`
	CategoryImage       string `json:"categoryImage"`
}

func (r CategoryRequest) values() validation.Values {
	return validation.Values{
		"categoryName":        r.CategoryName,
		"categoryDescription": r.CategoryDescription,
		"categoryImage":       r.CategoryImage,
	}
}

type CategoryService struct {
	store  Store[models.Category]
	ids    *IdentifierService
	images Images
	refs   []Inbound
	now    Clock
}

// NewCategoryService builds the service. refs lists the fields that may point at a
// category; a referenced category cannot be deleted.
func NewCategoryService(store Store[models.Category], ids *IdentifierService, images Images, refs ...Inbound) *CategoryService {
	return &CategoryService{store: store, ids: ids, images: images, refs: refs, now: time.Now}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindCategory, err)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	if err := checkRules(validation.CategoryRules, req.values()); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.CategoryName)
	if err := s.ids.EnsureUnique(ctx, validation.KindCategory, name, nil); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	category := &models.Category{
		ID:                  primitive.NewObjectID(),
		CategoryName:        name,
		CategoryDescription: strings.TrimSpace(req.CategoryDescription),
		CategoryImage:       strings.TrimSpace(req.CategoryImage),
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Insert(ctx, category); err != nil {
		return nil, storeErr(validation.KindCategory, err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, req CategoryRequest) (*models.Category, error) {
	if err := checkRules(validation.CategoryRules, req.values()); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindCategory, err)
	}
	name := strings.TrimSpace(req.CategoryName)
	if err := s.ids.EnsureUnique(ctx, validation.KindCategory, name, &id); err != nil {
		return nil, err
	}

	updated := *existing
	updated.CategoryName = name
	updated.CategoryDescription = strings.TrimSpace(req.CategoryDescription)
	updated.CategoryImage = strings.TrimSpace(req.CategoryImage)
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, id, &updated); err != nil {
		return nil, storeErr(validation.KindCategory, err)
	}

	s.images.Replace(ctx, existing.CategoryImage, updated.CategoryImage)
	return &updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeErr(validation.KindCategory, err)
	}
	if err := ensureUnreferenced(ctx, validation.KindCategory, id, s.refs); err != nil {
		return err
	}
	s.images.DeleteAll(ctx, existing.CategoryImage)
	return storeErr(validation.KindCategory, s.store.Delete(ctx, id))
}
