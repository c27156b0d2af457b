package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterPolicy decides how an item's filterValues relate to its component's
// filterLabels.
type FilterPolicy string

const (
	// FilterStrict requires exactly one non-empty value per component label.
	FilterStrict FilterPolicy = "strict"
	// FilterFreeform only requires a non-empty list.
	FilterFreeform FilterPolicy = "freeform"
)

func ParseFilterPolicy(s string) (FilterPolicy, error) {
	switch FilterPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterStrict:
		return FilterStrict, nil
	case FilterFreeform:
		return FilterFreeform, nil
	}
	return "", fmt.Errorf("unknown component filter policy %q", s)
}

// Check applies the policy. The list is already known to be non-empty with
// complete pairs.
func (p FilterPolicy) Check(labels []string, values []models.LabelValue) error {
	if p != FilterStrict {
		return nil
	}
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = false
	}
	for _, v := range values {
		seen, ok := want[v.Label]
		if !ok {
			return apperrors.BadRequest(fmt.Sprintf("Unknown filter label %q for this component", v.Label))
		}
		if seen {
			return apperrors.BadRequest(fmt.Sprintf("Duplicate filter label %q", v.Label))
		}
		want[v.Label] = true
	}
	for _, l := range labels {
		if !want[l] {
			return apperrors.BadRequest(fmt.Sprintf("Missing value for filter label %q", l))
		}
	}
	return nil
}

type ComponentItemRequest struct {
	Slug           string              `json:"slug"`
	Component      string              `json:"component"`
	Brand          string              `json:"brand"`
	FilterValues   []models.LabelValue `json:"filterValues"`
	Model          string              `json:"model"`
	UnitPrice      *float64            `json:"unitPrice"`
	Availability   string              `json:"availability"`
	Description    string              `json:"description"`
	Specifications []models.LabelValue `json:"specifications"`
	MainImage      string              `json:"mainImage"`
	SubImages      []string            `json:"subImages"`
	IsNewArrival   bool                `json:"isNewArrival"`
}

func (r ComponentItemRequest) values() validation.Values {
	return validation.Values{
		"slug":           r.Slug,
		"component":      r.Component,
		"brand":          r.Brand,
		"filterValues":   r.FilterValues,
		"model":          r.Model,
		"unitPrice":      r.UnitPrice,
		"availability":   r.Availability,
		"description":    r.Description,
		"specifications": r.Specifications,
		"mainImage":      r.MainImage,
		"subImages":      r.SubImages,
	}
}

type ComponentItemService struct {
	store      Store[models.ComponentItem]
	components Store[models.Component]
	brands     Store[models.Brand]
	ids        *IdentifierService
	images     Images
	policy     FilterPolicy
	now        Clock
}

func NewComponentItemService(
	store Store[models.ComponentItem],
	components Store[models.Component],
	brands Store[models.Brand],
	ids *IdentifierService,
	images Images,
	policy FilterPolicy,
) *ComponentItemService {
	return &ComponentItemService{
		store:      store,
		components: components,
		brands:     brands,
		ids:        ids,
		images:     images,
		policy:     policy,
		now:        time.Now,
	}
}

func (s *ComponentItemService) List(ctx context.Context) ([]models.ComponentItemView, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, items)
}

func (s *ComponentItemService) Get(ctx context.Context, id primitive.ObjectID) (*models.ComponentItemView, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindComponentItem, err)
	}
	return s.view(ctx, item)
}

func (s *ComponentItemService) Create(ctx context.Context, req ComponentItemRequest) (*models.ComponentItemView, error) {
	item, err := s.build(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	item.ID = primitive.NewObjectID()
	item.CreatedAt, item.UpdatedAt = now, now

	if err := s.store.Insert(ctx, item); err != nil {
		return nil, storeErr(validation.KindComponentItem, err)
	}
	return s.view(ctx, item)
}

// Update replaces the item, then removes the images no field references
// any more. A URL moved between mainImage and subImages is kept.
func (s *ComponentItemService) Update(ctx context.Context, id primitive.ObjectID, req ComponentItemRequest) (*models.ComponentItemView, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindComponentItem, err)
	}
	item, err := s.build(ctx, req, &id)
	if err != nil {
		return nil, err
	}
	item.ID = id
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now().UTC()

	if err := s.store.Replace(ctx, id, item); err != nil {
		return nil, storeErr(validation.KindComponentItem, err)
	}

	s.images.Reconcile(ctx, existing.Images(), item.Images())
	return s.view(ctx, item)
}

// Delete removes every image of the item, then the item.
func (s *ComponentItemService) Delete(ctx context.Context, id primitive.ObjectID) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeErr(validation.KindComponentItem, err)
	}
	s.images.DeleteAll(ctx, existing.Images()...)
	return storeErr(validation.KindComponentItem, s.store.Delete(ctx, id))
}

// build validates req and resolves its references. self is the item being
// edited, excluded from the uniqueness check.
func (s *ComponentItemService) build(ctx context.Context, req ComponentItemRequest, self *primitive.ObjectID) (*models.ComponentItem, error) {
	if err := checkRules(validation.ComponentItemRules, req.values()); err != nil {
		return nil, err
	}

	componentID := optionalRef(req.Component)
	component, err := s.components.FindByID(ctx, *componentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.BadRequest("Component not found")
	}
	if err != nil {
		return nil, fmt.Errorf("component lookup: %w", err)
	}

	brandID := optionalRef(req.Brand)
	if err := requireRef(ctx, s.brands, brandID, "Brand"); err != nil {
		return nil, err
	}

	filterValues := trimPairs(req.FilterValues)
	if err := s.policy.Check(component.FilterLabels, filterValues); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(req.Slug)
	if err := s.ids.EnsureUnique(ctx, validation.KindComponentItem, slug, self); err != nil {
		return nil, err
	}

	return &models.ComponentItem{
		Slug:           slug,
		Component:      component.ID,
		Brand:          brandID,
		FilterValues:   filterValues,
		Model:          strings.TrimSpace(req.Model),
		UnitPrice:      *req.UnitPrice,
		Availability:   req.Availability,
		Description:    strings.TrimSpace(req.Description),
		Specifications: trimPairs(req.Specifications),
		MainImage:      strings.TrimSpace(req.MainImage),
		SubImages:      trimAll(req.SubImages),
		IsNewArrival:   req.IsNewArrival,
	}, nil
}

func (s *ComponentItemService) view(ctx context.Context, item *models.ComponentItem) (*models.ComponentItemView, error) {
	views, err := s.populate(ctx, []models.ComponentItem{*item})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// populate resolves component and brand names with one query per collection.
func (s *ComponentItemService) populate(ctx context.Context, items []models.ComponentItem) ([]models.ComponentItemView, error) {
	var componentIDs, brandIDs []primitive.ObjectID
	seenC := map[primitive.ObjectID]struct{}{}
	seenB := map[primitive.ObjectID]struct{}{}
	for i := range items {
		componentIDs = addID(componentIDs, seenC, &items[i].Component)
		brandIDs = addID(brandIDs, seenB, items[i].Brand)
	}

	componentNames, err := s.components.Names(ctx, "componentName", componentIDs)
	if err != nil {
		return nil, fmt.Errorf("populate components: %w", err)
	}
	brandNames, err := s.brands.Names(ctx, "brandName", brandIDs)
	if err != nil {
		return nil, fmt.Errorf("populate brands: %w", err)
	}

	views := make([]models.ComponentItemView, 0, len(items))
	for _, item := range items {
		componentID := item.Component
		views = append(views, models.ComponentItemView{
			ComponentItem: item,
			Component:     refName(componentNames, &componentID),
			Brand:         refName(brandNames, item.Brand),
		})
	}
	return views, nil
}
