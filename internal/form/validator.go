package form

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
)

// ValidationError lists the field violations of a form. It matches
// gerr.ErrInvalidRequest with errors.Is.
type ValidationError struct {
	Violations []string `json:"violations"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, " ")
}

func (e *ValidationError) Is(target error) bool {
	return target == gerr.ErrInvalidRequest
}

// Analog validation.ValidateStruct ozzo validation but collects every
// violation into a ValidationError.
func ValidateStruct(structField interface{}, rules ...*validation.FieldRules) error {
	var violations []string

	for _, rule := range rules {
		err := validation.ValidateStruct(structField, rule)
		if err == nil {
			continue
		}
		var ve validation.Errors
		if !errors.As(err, &ve) {
			return err
		}
		keys := make([]string, 0, len(ve))
		for k := range ve {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			violations = append(violations, formatErrMsg(k+": "+ve[k].Error()))
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func formatErrMsg(s string) string {
	return ucfirst(strings.Trim(s, " .")) + "."
}

func ucfirst(str string) string {
	for i, v := range str {
		return string(unicode.ToUpper(v)) + str[i+1:]
	}
	return ""
}
