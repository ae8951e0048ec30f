package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mygardenbook/gardenbook/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns validator output into a common.ErrValidation error
// naming the first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return common.Validationf("%s is required", field)
		case "max":
			return common.Validationf("%s must be at most %s characters", field, fe.Param())
		case "email":
			return common.Validationf("%s must be a valid email", field)
		case "oneof":
			return common.Validationf("%s must be one of: %s", field, fe.Param())
		default:
			return common.Validationf("%s failed %s", field, fe.Tag())
		}
	}
	return common.Validationf("%v", err)
}
