package repository

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateEntity runs struct validation and converts failures to a CodeValidation error
// whose "fields" meta lists the offending json field names.
func validateEntity(kind string, entity any) error {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.Wrap(err, appErr.CodeInternal, "validation failed")
	}
	fields := make([]string, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fe.Field()+" must satisfy "+fe.Tag()+" "+fe.Param())
		}
	}
	return appErr.New(appErr.CodeValidation, kind+": "+strings.Join(msgs, "; ")).WithMeta("fields", fields)
}
