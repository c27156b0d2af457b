package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
)

var validate = validator.New()

// FieldError is the first rule a request broke.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string { return e.Message }

// Rule describes one request field. Checks run in a fixed order: required,
// length, format, range. Length bounds count runes of the trimmed value for
// strings and items for lists.
type Rule struct {
	Field string
	Label string

	Required bool
	MinLen   int
	MaxLen   int

	// Pattern and Tag are format checks. Tag is a go-playground validator
	// tag applied to the value (for example "http_url").
	Pattern    *regexp.Regexp
	PatternMsg string
	Tag        string
	TagMsg     string

	Min   *float64
	OneOf []string

	// Items applies Pattern/Tag to every element of a []string and rejects
	// blank elements.
	Items bool
}

// Table is an ordered rule set for one entity kind.
type Table []Rule

// Values carries the request fields keyed by Rule.Field. Supported value
// types are string, float64, *float64, []string and []models.LabelValue.
type Values map[string]interface{}

// Check walks the table in order and reports the first failure.
func (t Table) Check(values Values) *FieldError {
	for _, r := range t {
		if msg := r.check(values[r.Field]); msg != "" {
			return &FieldError{Field: r.Field, Message: msg}
		}
	}
	return nil
}

func (r Rule) check(v interface{}) string {
	switch val := v.(type) {
	case string:
		return r.checkString(strings.TrimSpace(val))
	case float64:
		return r.checkNumber(&val)
	case *float64:
		return r.checkNumber(val)
	case []string:
		return r.checkList(val)
	case []models.LabelValue:
		return r.checkPairs(val)
	case nil:
		if r.Required {
			return r.Label + " is required"
		}
		return ""
	default:
		return fmt.Sprintf("%s has an unsupported type", r.Label)
	}
}

func (r Rule) checkString(s string) string {
	if s == "" {
		if r.Required {
			return r.Label + " is required"
		}
		return ""
	}
	if msg := r.checkLength(utf8.RuneCountInString(s), "characters"); msg != "" {
		return msg
	}
	if msg := r.checkFormat(s); msg != "" {
		return msg
	}
	if len(r.OneOf) > 0 {
		for _, allowed := range r.OneOf {
			if s == allowed {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", r.Label, strings.Join(r.OneOf, ", "))
	}
	return ""
}

func (r Rule) checkNumber(n *float64) string {
	if n == nil {
		if r.Required {
			return r.Label + " is required"
		}
		return ""
	}
	if r.Min != nil && *n < *r.Min {
		if *r.Min == 0 {
			return r.Label + " must be a non-negative number"
		}
		return fmt.Sprintf("%s must be at least %g", r.Label, *r.Min)
	}
	return ""
}

func (r Rule) checkList(items []string) string {
	if len(items) == 0 {
		if r.Required {
			return fmt.Sprintf("At least one %s is required", strings.ToLower(r.Label))
		}
		return ""
	}
	if msg := r.checkLength(len(items), "items"); msg != "" {
		return msg
	}
	if !r.Items {
		return ""
	}
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return fmt.Sprintf("%s #%d cannot be empty", r.Label, i+1)
		}
		if msg := r.checkFormat(item); msg != "" {
			return fmt.Sprintf("%s #%d: %s", r.Label, i+1, msg)
		}
	}
	return ""
}

func (r Rule) checkPairs(pairs []models.LabelValue) string {
	if len(pairs) == 0 {
		if r.Required {
			return fmt.Sprintf("At least one %s is required", strings.ToLower(r.Label))
		}
		return ""
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.Label) == "" || strings.TrimSpace(p.Value) == "" {
			return fmt.Sprintf("%s #%d needs both a label and a value", r.Label, i+1)
		}
	}
	return ""
}

func (r Rule) checkLength(n int, unit string) string {
	switch {
	case r.MinLen > 0 && r.MaxLen > 0 && (n < r.MinLen || n > r.MaxLen):
		return fmt.Sprintf("%s must be between %d and %d %s", r.Label, r.MinLen, r.MaxLen, unit)
	case r.MinLen > 0 && n < r.MinLen:
		return fmt.Sprintf("%s must be at least %d %s", r.Label, r.MinLen, unit)
	case r.MaxLen > 0 && n > r.MaxLen:
		return fmt.Sprintf("%s must be at most %d %s", r.Label, r.MaxLen, unit)
	}
	return ""
}

func (r Rule) checkFormat(s string) string {
	if r.Pattern != nil && !r.Pattern.MatchString(s) {
		if r.PatternMsg != "" {
			return r.PatternMsg
		}
		return r.Label + " has an invalid format"
	}
	if r.Tag != "" && validate.Var(s, r.Tag) != nil {
		if r.TagMsg != "" {
			return r.TagMsg
		}
		return r.Label + " has an invalid format"
	}
	return ""
}

// Float is a helper for Rule.Min literals.
func Float(f float64) *float64 { return &f }
