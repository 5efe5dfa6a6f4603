package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that knows the lead enums and reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		return models.LeadSource(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("call_status", func(fl validator.FieldLevel) bool {
		return models.CallStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return models.LeadStatus(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct converts the first failing rule into a ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return domain.NewValidationError(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "min":
		if fe.Kind() == reflect.String {
			return domain.NewValidationError(fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		}
	case "max":
		if fe.Kind() == reflect.String {
			return domain.NewValidationError(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		}
	case "lead_source":
		return domain.NewValidationError(fmt.Sprintf("source must be one of: %s", joinSources()))
	}
	return domain.NewValidationError(fmt.Sprintf("%s is invalid", fe.Field()))
}

func joinSources() string {
	names := make([]string, len(models.LeadSources))
	for i, s := range models.LeadSources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
