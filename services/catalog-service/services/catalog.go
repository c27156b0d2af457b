package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence a catalog service needs. *repository.Collection
// implements it.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Insert(ctx context.Context, doc *T) error
	Replace(ctx context.Context, id primitive.ObjectID, doc *T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Names(ctx context.Context, nameField string, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// Images is the cleanup side of the image lifecycle. Every method is best
// effort and never fails the caller.
type Images interface {
	DeleteAll(ctx context.Context, urls ...string) int
	Replace(ctx context.Context, oldURL, newURL string)
	Reconcile(ctx context.Context, oldURLs, newURLs []string) []string
}

type Clock func() time.Time

// Referrer counts the documents whose field points at id.
type Referrer interface {
	CountRefs(ctx context.Context, field string, id primitive.ObjectID) (int64, error)
}

// Inbound names a field in another collection that references this kind.
// Title is the plural used in the conflict message.
type Inbound struct {
	From  Referrer
	Field string
	Title string
}

// ensureUnreferenced refuses a delete that would leave other documents
// pointing at a missing one.
func ensureUnreferenced(ctx context.Context, kind validation.Kind, id primitive.ObjectID, refs []Inbound) error {
	for _, r := range refs {
		n, err := r.From.CountRefs(ctx, r.Field, id)
		if err != nil {
			return fmt.Errorf("%s references from %s: %w", kind, r.Title, err)
		}
		if n > 0 {
			return apperrors.Conflict(fmt.Sprintf("%s is still used by %d %s", kind.Title(), n, r.Title))
		}
	}
	return nil
}

func checkRules(t validation.Table, v validation.Values) error {
	if fe := t.Check(v); fe != nil {
		return apperrors.New(http.StatusBadRequest, fe.Message, fe)
	}
	return nil
}

// storeErr maps repository sentinels to client-facing errors for kind.
func storeErr(kind validation.Kind, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(kind.Title() + " not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.New(http.StatusConflict, conflictMessage(kind), err)
	}
	return fmt.Errorf("%s store: %w", kind, err)
}

func conflictMessage(kind validation.Kind) string {
	if kind.SlugStyle() {
		return fmt.Sprintf("%s with this slug already exists", kind.Title())
	}
	return fmt.Sprintf("%s with this name already exists", kind.Title())
}

// optionalRef parses an id the rule table already accepted. Blank means none.
func optionalRef(s string) *primitive.ObjectID {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &id
}

func requireRef[T any](ctx context.Context, store Store[T], id *primitive.ObjectID, title string) error {
	if id == nil {
		return nil
	}
	ok, err := store.Exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("%s lookup: %w", strings.ToLower(title), err)
	}
	if !ok {
		return apperrors.BadRequest(title + " not found")
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func trimPairs(in []models.LabelValue) []models.LabelValue {
	out := make([]models.LabelValue, 0, len(in))
	for _, p := range in {
		out = append(out, models.LabelValue{Label: strings.TrimSpace(p.Label), Value: strings.TrimSpace(p.Value)})
	}
	return out
}

func refName(names map[primitive.ObjectID]string, id *primitive.ObjectID) *models.RefName {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &models.RefName{ID: *id, Name: name}
}

func addID(ids []primitive.ObjectID, seen map[primitive.ObjectID]struct{}, id *primitive.ObjectID) []primitive.ObjectID {
	if id == nil {
		return ids
	}
	if _, ok := seen[*id]; ok {
		return ids
	}
	seen[*id] = struct{}{}
	return append(ids, *id)
}
