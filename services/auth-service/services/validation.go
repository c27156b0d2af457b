package services

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
)

var (
	ErrContactNumberRequired = apperrors.BadRequest("At least one contact number is required")
	ErrAddressRequired       = apperrors.BadRequest("At least one address is required")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct validates req and reports the first failure as a 400.
func checkStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return apperrors.New(http.StatusBadRequest, "Invalid request", err)
	}
	return apperrors.New(http.StatusBadRequest, fieldMessage(fields[0]), err)
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s allows at most %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// fieldLabel turns "RegisterRequest.addresses[0].postalCode" into
// "Addresses #1 postalCode".
func fieldLabel(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		path = namespace
	}
	parts := strings.Split(path, ".")
	for i, p := range parts {
		if open := strings.IndexByte(p, '['); open > 0 && strings.HasSuffix(p, "]") {
			var n int
			fmt.Sscanf(p[open+1:len(p)-1], "%d", &n)
			p = fmt.Sprintf("%s #%d", p[:open], n+1)
		}
		parts[i] = p
	}
	label := strings.Join(parts, " ")
	return strings.ToUpper(label[:1]) + label[1:]
}

// checkContactDetails enforces the contact rule for the account as it will
// be stored.
func checkContactDetails(u *models.User) error {
	if !u.RequiresContactDetails() {
		return nil
	}
	if len(u.ContactNumbers) == 0 {
		return ErrContactNumberRequired
	}
	if len(u.Addresses) == 0 {
		return ErrAddressRequired
	}
	return nil
}

func trimContacts(numbers []string) []string {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, strings.TrimSpace(n))
	}
	return out
}
