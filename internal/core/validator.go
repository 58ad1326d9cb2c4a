package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"vitalink/internal/types"
)

// Validator wraps go-playground/validator so that handlers can validate
// request structs against their `validate` tags and receive AppErrors with
// the service's validation error codes.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator. Field names in error messages are
// taken from the struct's json tags so that devices see the wire names they
// actually sent.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates v against its `validate` tags. It returns nil on
// success, or a *types.AppError describing the first group of failures:
// "required" violations map to validation_missing_required_field, everything
// else to validation_invalid_json (the contract has no richer semantic
// checks).
func (val *Validator) ValidateStruct(v interface{}) error {
	err := val.validate.Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"validation invoked on a non-struct value",
			err,
		)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}

	if len(missing) > 0 {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			"missing required field: "+strings.Join(missing, ", "),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeValidationInvalidJSON,
		"invalid value for field: "+fieldErrs[0].Field(),
		err,
	)
}
