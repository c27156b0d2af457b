package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConflictFinder finds another document holding an identifier.
type ConflictFinder interface {
	Conflict(ctx context.Context, field, value, displayField string, caseInsensitive bool, exclude *primitive.ObjectID) (string, bool, error)
}

// IdentifierField says where a kind keeps its identifier and display name.
type IdentifierField struct {
	Finder  ConflictFinder
	Field   string
	Display string
}

// CheckResult is the check-slug response body.
type CheckResult struct {
	IsValid         bool   `json:"isValid"`
	IsUnique        bool   `json:"isUnique"`
	Message         string `json:"message"`
	Entity          string `json:"entity"`
	ConflictingName string `json:"conflictingName,omitempty"`
}

// IdentifierService validates and de-duplicates names and slugs.
type IdentifierService struct {
	fields map[validation.Kind]IdentifierField
}

func NewIdentifierService(fields map[validation.Kind]IdentifierField) *IdentifierService {
	return &IdentifierService{fields: fields}
}

// Check validates the format of raw for kind and, when it is well formed,
// looks for another document using it. A malformed excludeID is ignored.
func (s *IdentifierService) Check(ctx context.Context, kind validation.Kind, raw, excludeID string) (*CheckResult, error) {
	res := &CheckResult{Entity: string(kind)}

	value, msg := validation.IdentifierFormat(kind, raw)
	if msg != "" {
		res.Message = msg
		return res, nil
	}
	res.IsValid = true

	var exclude *primitive.ObjectID
	if id, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		exclude = &id
	}

	name, taken, err := s.lookup(ctx, kind, value, exclude)
	if err != nil {
		return nil, err
	}
	if taken {
		res.Message = conflictMessage(kind)
		res.ConflictingName = name
		return res, nil
	}

	res.IsUnique = true
	if kind.SlugStyle() {
		res.Message = "Slug is available"
	} else {
		res.Message = fmt.Sprintf("%s name is available", kind.Title())
	}
	return res, nil
}

// EnsureUnique is the write-time check. It returns a 409 error when value
// is held by a document other than exclude.
func (s *IdentifierService) EnsureUnique(ctx context.Context, kind validation.Kind, value string, exclude *primitive.ObjectID) error {
	_, taken, err := s.lookup(ctx, kind, value, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.New(http.StatusConflict, conflictMessage(kind), nil)
	}
	return nil
}

func (s *IdentifierService) lookup(ctx context.Context, kind validation.Kind, value string, exclude *primitive.ObjectID) (string, bool, error) {
	f, ok := s.fields[kind]
	if !ok {
		return "", false, fmt.Errorf("no identifier lookup registered for %s", kind)
	}
	return f.Finder.Conflict(ctx, f.Field, value, f.Display, !kind.SlugStyle(), exclude)
}
