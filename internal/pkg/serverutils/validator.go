package serverutils

import (
	"fmt"
	"strings"

	"exam-grading-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks a DTO against its validate tags and converts
// failures into a single validation error listing every bad field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.Wrap(apperror.CodeValidation, "invalid request", err)
	}

	messages := make([]string, len(validationErrors))
	for i, fe := range validationErrors {
		messages[i] = fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
	}
	return apperror.New(apperror.CodeValidation, strings.Join(messages, "; "))
}
