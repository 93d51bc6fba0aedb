package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"reelforge/internal/services"
)

var validate = validator.New()

// Validate normalizes and checks a script at the ingress boundary. Failures
// carry services.ErrValidation.
func Validate(s *Script) error {
	if s == nil {
		return services.Wrap(services.ErrValidation, "ingress", "validate script", "script is empty", nil)
	}
	s.Normalize()
	if err := validate.Struct(s); err != nil {
		return services.Wrap(services.ErrValidation, "ingress", "validate script", describe(err), nil)
	}
	if msg := duplicateSegment(s.Scenes); msg != "" {
		return services.Wrap(services.ErrValidation, "ingress", "validate script", msg, nil)
	}
	return nil
}

// duplicateSegment reports the first repeated positive segment id. Zero means
// the id was omitted and may repeat.
func duplicateSegment(scenes []Scene) string {
	seen := make(map[int]int, len(scenes))
	for i, sc := range scenes {
		if sc.SegmentID <= 0 {
			continue
		}
		if first, ok := seen[sc.SegmentID]; ok {
			return fmt.Sprintf("Scenes[%d].SegmentID %d repeats Scenes[%d]", i, sc.SegmentID, first)
		}
		seen[sc.SegmentID] = i
	}
	return ""
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Script.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds limit %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
