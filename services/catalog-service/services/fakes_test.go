package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory Store that also enforces a unique identifier,
// standing in for the mongo unique index.
type memStore[T any] struct {
	mu    sync.Mutex
	docs  []T
	id    func(*T) primitive.ObjectID
	ident func(*T) string
	name  func(*T) string
	ref   func(*T, string) *primitive.ObjectID
	ci    bool

	lookups   int
	skipCheck bool
}

func (m *memStore[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, 0, len(m.docs))
	for i := len(m.docs) - 1; i >= 0; i-- {
		out = append(out, m.docs[i])
	}
	return out, nil
}

func (m *memStore[T]) CountRefs(_ context.Context, field string, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.docs {
		if r := m.ref(&m.docs[i], field); r != nil && *r == id {
			n++
		}
	}
	return n, nil
}

func (m *memStore[T]) find(id primitive.ObjectID) int {
	for i := range m.docs {
		if m.id(&m.docs[i]) == id {
			return i
		}
	}
	return -1
}

func (m *memStore[T]) FindByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	doc := m.docs[i]
	return &doc, nil
}

func (m *memStore[T]) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(id) >= 0, nil
}

func (m *memStore[T]) same(a, b string) bool {
	if m.ci {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func (m *memStore[T]) taken(value string, exclude primitive.ObjectID) bool {
	for i := range m.docs {
		if m.id(&m.docs[i]) != exclude && m.same(m.ident(&m.docs[i]), value) {
			return true
		}
	}
	return false
}

func (m *memStore[T]) Insert(_ context.Context, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(m.ident(doc), primitive.NilObjectID) {
		return repository.ErrDuplicate
	}
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memStore[T]) Replace(_ context.Context, id primitive.ObjectID, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	if m.taken(m.ident(doc), id) {
		return repository.ErrDuplicate
	}
	m.docs[i] = *doc
	return nil
}

func (m *memStore[T]) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return nil
}

func (m *memStore[T]) Names(_ context.Context, _ string, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]string{}
	for _, id := range ids {
		if i := m.find(id); i >= 0 {
			out[id] = m.name(&m.docs[i])
		}
	}
	return out, nil
}

// Conflict mirrors repository.Collection.Conflict. skipCheck simulates a
// concurrent writer that slips past the pre-check.
func (m *memStore[T]) Conflict(_ context.Context, _, value, _ string, caseInsensitive bool, exclude *primitive.ObjectID) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.skipCheck {
		return "", false, nil
	}
	for i := range m.docs {
		if exclude != nil && m.id(&m.docs[i]) == *exclude {
			continue
		}
		v := m.ident(&m.docs[i])
		if (caseInsensitive && strings.EqualFold(v, value)) || (!caseInsensitive && v == value) {
			return m.name(&m.docs[i]), true, nil
		}
	}
	return "", false, nil
}

type blobStore struct {
	storage.PublicURLLocator

	mu       sync.Mutex
	deleted  []string
	failKeys map[string]bool
}

func newBlobStore() *blobStore {
	return &blobStore{
		PublicURLLocator: storage.NewS3Locator("laptops", "us-east-1", "http://localhost:4566", ""),
		failKeys:         map[string]bool{},
	}
}

func (b *blobStore) Bucket() string { return b.PublicURLLocator.Bucket }

func (b *blobStore) Put(_ context.Context, _ storage.BlobRef, body io.Reader, _ int64, _ string) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

func (b *blobStore) Delete(_ context.Context, ref storage.BlobRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failKeys[ref.Key] {
		return errors.New("access denied")
	}
	b.deleted = append(b.deleted, ref.Key)
	return nil
}

func (b *blobStore) List(context.Context, string, func(storage.ObjectInfo) error) error { return nil }

func (b *blobStore) url(key string) string {
	return b.URL(storage.BlobRef{Bucket: "laptops", Key: key})
}

func (b *blobStore) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

type fixture struct {
	blobs      *blobStore
	brands     *memStore[models.Brand]
	categories *memStore[models.Category]
	components *memStore[models.Component]
	items      *memStore[models.ComponentItem]
	accs       *memStore[models.Accessory]
	ids        *IdentifierService

	brandSvc     *BrandService
	categorySvc  *CategoryService
	componentSvc *ComponentService
	itemSvc      *ComponentItemService
	accSvc       *AccessoryService
}

func newFixture(policy FilterPolicy) *fixture {
	f := &fixture{blobs: newBlobStore()}
	f.brands = &memStore[models.Brand]{
		id:    func(b *models.Brand) primitive.ObjectID { return b.ID },
		ident: func(b *models.Brand) string { return b.BrandName },
		name:  func(b *models.Brand) string { return b.BrandName },
		ci:    true,
	}
	f.categories = &memStore[models.Category]{
		id:    func(c *models.Category) primitive.ObjectID { return c.ID },
		ident: func(c *models.Category) string { return c.CategoryName },
		name:  func(c *models.Category) string { return c.CategoryName },
		ci:    true,
	}
	f.components = &memStore[models.Component]{
		id:    func(c *models.Component) primitive.ObjectID { return c.ID },
		ident: func(c *models.Component) string { return c.ComponentName },
		name:  func(c *models.Component) string { return c.ComponentName },
		ci:    true,
	}
	f.items = &memStore[models.ComponentItem]{
		id:    func(i *models.ComponentItem) primitive.ObjectID { return i.ID },
		ident: func(i *models.ComponentItem) string { return i.Slug },
		name:  func(i *models.ComponentItem) string { return i.Model },
		ref: func(i *models.ComponentItem, field string) *primitive.ObjectID {
			switch field {
			case "component":
				return &i.Component
			case "brand":
				return i.Brand
			}
			return nil
		},
	}
	f.accs = &memStore[models.Accessory]{
		id:    func(a *models.Accessory) primitive.ObjectID { return a.ID },
		ident: func(a *models.Accessory) string { return a.Slug },
		name:  func(a *models.Accessory) string { return a.Name },
		ref: func(a *models.Accessory, field string) *primitive.ObjectID {
			switch field {
			case "brand":
				return a.Brand
			case "category":
				return a.Category
			}
			return nil
		},
	}

	f.ids = NewIdentifierService(map[validation.Kind]IdentifierField{
		validation.KindBrand:         {Finder: f.brands, Field: "brandName", Display: "brandName"},
		validation.KindCategory:      {Finder: f.categories, Field: "categoryName", Display: "categoryName"},
		validation.KindComponent:     {Finder: f.components, Field: "componentName", Display: "componentName"},
		validation.KindComponentItem: {Finder: f.items, Field: "slug", Display: "model"},
		validation.KindAccessory:     {Finder: f.accs, Field: "slug", Display: "name"},
	})

	images := storage.NewImageManager(f.blobs)
	f.brandSvc = NewBrandService(f.brands, f.ids, images,
		Inbound{From: f.items, Field: "brand", Title: "component items"},
		Inbound{From: f.accs, Field: "brand", Title: "accessories"},
	)
	f.categorySvc = NewCategoryService(f.categories, f.ids, images,
		Inbound{From: f.accs, Field: "category", Title: "accessories"},
	)
	f.componentSvc = NewComponentService(f.components, f.ids,
		Inbound{From: f.items, Field: "component", Title: "component items"},
	)
	f.itemSvc = NewComponentItemService(f.items, f.components, f.brands, f.ids, images, policy)
	f.accSvc = NewAccessoryService(f.accs, f.brands, f.categories, f.ids, images)
	return f
}
