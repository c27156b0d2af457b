package services

import (
	"context"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComponentRequest struct {
	ComponentName string   `json:"componentName"`
	FilterLabels  []string `json:"filterLabels"`
}

func (r ComponentRequest) values() validation.Values {
	return validation.Values{
		"componentName": r.ComponentName,
		"filterLabels":  r.FilterLabels,
	}
}

// ComponentService manages component families. Components carry no images.
type ComponentService struct {
	store Store[models.Component]
	ids   *IdentifierService
	refs  []Inbound
	now   Clock
}

// NewComponentService builds the service. A component that component items
// still reference through refs cannot be deleted.
func NewComponentService(store Store[models.Component], ids *IdentifierService, refs ...Inbound) *ComponentService {
	return &ComponentService{store: store, ids: ids, refs: refs, now: time.Now}
}

func (s *ComponentService) List(ctx context.Context) ([]models.Component, error) {
	return s.store.List(ctx)
}

func (s *ComponentService) Get(ctx context.Context, id primitive.ObjectID) (*models.Component, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindComponent, err)
	}
	return c, nil
}

func (s *ComponentService) Create(ctx context.Context, req ComponentRequest) (*models.Component, error) {
	if err := checkRules(validation.ComponentRules, req.values()); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.ComponentName)
	if err := s.ids.EnsureUnique(ctx, validation.KindComponent, name, nil); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	component := &models.Component{
		ID:            primitive.NewObjectID(),
		ComponentName: name,
		FilterLabels:  trimAll(req.FilterLabels),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, component); err != nil {
		return nil, storeErr(validation.KindComponent, err)
	}
	return component, nil
}

func (s *ComponentService) Update(ctx context.Context, id primitive.ObjectID, req ComponentRequest) (*models.Component, error) {
	if err := checkRules(validation.ComponentRules, req.values()); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(validation.KindComponent, err)
	}
	name := strings.TrimSpace(req.ComponentName)
	if err := s.ids.EnsureUnique(ctx, validation.KindComponent, name, &id); err != nil {
		return nil, err
	}

	updated := *existing
	updated.ComponentName = name
	updated.FilterLabels = trimAll(req.FilterLabels)
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, id, &updated); err != nil {
		return nil, storeErr(validation.KindComponent, err)
	}
	return &updated, nil
}

func (s *ComponentService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return storeErr(validation.KindComponent, err)
	}
	if err := ensureUnreferenced(ctx, validation.KindComponent, id, s.refs); err != nil {
		return err
	}
	return storeErr(validation.KindComponent, s.store.Delete(ctx, id))
}
