package services

import (
	"context"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BrandRequest struct {
	BrandName        string `json:"brandName"`
	BrandDescription string `json:"brandDescription"`
	BrandImage       string `json:"brandImage"`
}

func (r BrandRequest) values() validation.Values {
	return validation.Values{
		"brandName":        r.BrandName,
		"brandDescription": r.BrandDescription,
		"brandImage":       r.BrandImage,
	}
}

type BrandService struct {
	store  Store[models.Brand]
	ids    *IdentifierService
	images Images
	refs   []Inbound
	now    Clock
}

// NewBrandService builds the service. refs lists the fields that may point at a
// brand; a referenced brand cannot be deleted.
func NewBrandService(store Store[models.Brand], ids *IdentifierService, images Images, refs ...Inbound) *BrandService {
	return &BrandService{store: store, ids: ids, images: images, refs: refs, now: time.Now}
}

func (s *BrandService) List(ctx context.Context) ([]models.Brand, error) {
	return s.store.List(ctx)
}

func (s *BrandService) Get(ctx context.Context, id primitive.ObjectID) (*models.Brand, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindBrand, err)
	}
	return b, nil
}

func (s *BrandService) Create(ctx context.Context, req BrandRequest) (*models.Brand, error) {
	if err := checkRules(validation.BrandRules, req.values()); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.BrandName)
	if err := s.ids.EnsureUnique(ctx, validation.KindBrand, name, nil); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	brand := &models.Brand{
		ID:               primitive.NewObjectID(),
		BrandName:        name,
		BrandDescription: strings.TrimSpace(req.BrandDescription),
		BrandImage:       strings.TrimSpace(req.BrandImage),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Insert(ctx, brand); err != nil {
		return nil, storeErr(validation.KindBrand, err)
	}
	return brand, nil
}

// Update replaces the mutable fields. The previous image is removed once
// the new document is stored.
func (s *BrandService) Update(ctx context.Context, id primitive.ObjectID, req BrandRequest) (*models.Brand, error) {
	if err := checkRules(validation.BrandRules, req.values()); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindBrand, err)
	}
	name := strings.TrimSpace(req.BrandName)
	if err := s.ids.EnsureUnique(ctx, validation.KindBrand, name, &id); err != nil {
		return nil, err
	}

	updated := *existing
	updated.BrandName = name
	updated.BrandDescription = strings.TrimSpace(req.BrandDescription)
	updated.BrandImage = strings.TrimSpace(req.BrandImage)
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, id, &updated); err != nil {
		return nil, storeErr(validation.KindBrand, err)
	}

	s.images.Replace(ctx, existing.BrandImage, updated.BrandImage)
	return &updated, nil
}

func (s *BrandService) Delete(ctx context.Context, id primitive.ObjectID) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeErr(validation.KindBrand, err)
	}
	if err := ensureUnreferenced(ctx, validation.KindBrand, id, s.refs); err != nil {
		return err
	}
	s.images.DeleteAll(ctx, existing.BrandImage)
	return storeErr(validation.KindBrand, s.store.Delete(ctx, id))
}
