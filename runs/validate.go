package runs

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// runTimePattern is the HH:MM shape the submit form enforces
var runTimePattern = regexp.MustCompile(`^[0-9]{2}:[0-5][0-9]$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("runtime", func(fl validator.FieldLevel) bool {
		return runTimePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateDraft checks a create/update body before it leaves the process.
// Team size is deliberately not checked; the backend accepts any length.
func (c *Client) validateDraft(op string, draft any) error {
	err := c.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Op: op, Kind: ValidationFailure, Err: err}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &Error{Op: op, Kind: ValidationFailure, Message: strings.Join(msgs, "; "), Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "runtime":
		return fmt.Sprintf("%s must be formatted HH:MM", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
