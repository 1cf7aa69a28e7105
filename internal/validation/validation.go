// Package validation holds the shared request validator. Rules are read from the `binding`
// tag so the same structs validate in gin handlers and in services.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
)

// TagLibraryStatus validates a library entry status.
const TagLibraryStatus = "librarystatus"

var (
	validate = New()
	ginOnce  sync.Once
)

// New returns a validator reading `binding` tags with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

// Register adds the custom rules to v.
func Register(v *validator.Validate) {
	_ = v.RegisterValidation(TagLibraryStatus, func(fl validator.FieldLevel) bool {
		return model.ValidStatus(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
}

// RegisterGin adds the custom rules to gin's default binding validator. Safe to call repeatedly.
func RegisterGin() {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Struct validates s and returns a Validation error describing the first failures.
func Struct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return FromError(err)
	}
	return nil
}

// FromError converts validator and binding errors into a Validation error.
func FromError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.Validation, "invalid request body", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.New(apperror.Validation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case TagLibraryStatus:
		return field + " must be one of pending, playing, completed, dropped"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
