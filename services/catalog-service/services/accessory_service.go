package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccessoryRequest struct {
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	OfferPrice   *float64 `json:"offerPrice"`
	OldPrice     *float64 `json:"oldPrice"`
	MainImage    string   `json:"mainImage"`
	SubImages    []string `json:"subImages"`
	IsNewArrival bool     `json:"isNewArrival"`
}

func (r AccessoryRequest) values() validation.Values {
	return validation.Values{
		"slug":        r.Slug,
		"name":        r.Name,
		"brand":       r.Brand,
		"category":    r.Category,
		"description": r.Description,
		"offerPrice":  r.OfferPrice,
		"oldPrice":    r.OldPrice,
		"mainImage":   r.MainImage,
		"subImages":   r.SubImages,
	}
}

type AccessoryService struct {
	store      Store[models.Accessory]
	brands     Store[models.Brand]
	categories Store[models.Category]
	ids        *IdentifierService
	images     Images
	now        Clock
}

func NewAccessoryService(
	store Store[models.Accessory],
	brands Store[models.Brand],
	categories Store[models.Category],
	ids *IdentifierService,
	images Images,
) *AccessoryService {
	return &AccessoryService{
		store:      store,
		brands:     brands,
		categories: categories,
		ids:        ids,
		images:     images,
		now:        time.Now,
	}
}

func (s *AccessoryService) List(ctx context.Context) ([]models.AccessoryView, error) {
	accessories, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, accessories)
}

func (s *AccessoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.AccessoryView, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindAccessory, err)
	}
	return s.view(ctx, a)
}

func (s *AccessoryService) Create(ctx context.Context, req AccessoryRequest) (*models.AccessoryView, error) {
	accessory, err := s.build(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	accessory.ID = primitive.NewObjectID()
	accessory.IsActive = true
	accessory.CreatedAt, accessory.UpdatedAt = now, now

	if err := s.store.Insert(ctx, accessory); err != nil {
		return nil, storeErr(validation.KindAccessory, err)
	}
	return s.view(ctx, accessory)
}

// Update replaces the accessory, keeping isActive, then deletes the images
// it no longer references in either image field.
func (s *AccessoryService) Update(ctx context.Context, id primitive.ObjectID, req AccessoryRequest) (*models.AccessoryView, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindAccessory, err)
	}
	accessory, err := s.build(ctx, req, &id)
	if err != nil {
		return nil, err
	}
	accessory.ID = id
	accessory.IsActive = existing.IsActive
	accessory.CreatedAt = existing.CreatedAt
	accessory.UpdatedAt = s.now().UTC()

	if err := s.store.Replace(ctx, id, accessory); err != nil {
		return nil, storeErr(validation.KindAccessory, err)
	}

	s.images.Reconcile(ctx, existing.Images(), accessory.Images())
	return s.view(ctx, accessory)
}

func (s *AccessoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeErr(validation.KindAccessory, err)
	}
	s.images.DeleteAll(ctx, existing.Images()...)
	return storeErr(validation.KindAccessory, s.store.Delete(ctx, id))
}

func (s *AccessoryService) build(ctx context.Context, req AccessoryRequest, self *primitive.ObjectID) (*models.Accessory, error) {
	if err := checkRules(validation.AccessoryRules, req.values()); err != nil {
		return nil, err
	}

	brandID := optionalRef(req.Brand)
	if err := requireRef(ctx, s.brands, brandID, "Brand"); err != nil {
		return nil, err
	}
	categoryID := optionalRef(req.Category)
	if err := requireRef(ctx, s.categories, categoryID, "Category"); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(req.Slug)
	if err := s.ids.EnsureUnique(ctx, validation.KindAccessory, slug, self); err != nil {
		return nil, err
	}

	return &models.Accessory{
		Slug:         slug,
		Name:         strings.TrimSpace(req.Name),
		Brand:        brandID,
		Category:     categoryID,
		Description:  strings.TrimSpace(req.Description),
		OfferPrice:   *req.OfferPrice,
		OldPrice:     req.OldPrice,
		MainImage:    strings.TrimSpace(req.MainImage),
		SubImages:    trimAll(req.SubImages),
		IsNewArrival: req.IsNewArrival,
	}, nil
}

func (s *AccessoryService) view(ctx context.Context, a *models.Accessory) (*models.AccessoryView, error) {
	views, err := s.populate(ctx, []models.Accessory{*a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *AccessoryService) populate(ctx context.Context, accessories []models.Accessory) ([]models.AccessoryView, error) {
	var brandIDs, categoryIDs []primitive.ObjectID
	seenB := map[primitive.ObjectID]struct{}{}
	seenC := map[primitive.ObjectID]struct{}{}
	for i := range accessories {
		brandIDs = addID(brandIDs, seenB, accessories[i].Brand)
		categoryIDs = addID(categoryIDs, seenC, accessories[i].Category)
	}

	brandNames, err := s.brands.Names(ctx, "brandName", brandIDs)
	if err != nil {
		return nil, fmt.Errorf("populate brands: %w", err)
	}
	categoryNames, err := s.categories.Names(ctx, "categoryName", categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("populate categories: %w", err)
	}

	views := make([]models.AccessoryView, 0, len(accessories))
	for _, a := range accessories {
		views = append(views, models.AccessoryView{
			Accessory: a,
			Brand:     refName(brandNames, a.Brand),
			Category:  refName(categoryNames, a.Category),
		})
	}
	return views, nil
}
