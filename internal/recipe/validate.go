package recipe

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/foodgram/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator はJSONタグ名でフィールドを報告するバリデータを返す。
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateInput は入力を検証し、違反があればVALIDATION_ERRORを返す。
func validateInput(in *Input) error {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate recipe input: %w", err)
	}

	messages := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		messages[i] = translateFieldError(fe)
	}
	return model.NewValidationError(strings.Join(messages, "; "))
}

// translateFieldError はFieldErrorを「フィールド: 条件」形式の文字列にする。
func translateFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// fieldPath は先頭の構造体名を除いたフィールドの名前空間を返す（例: ingredients[0].amount）。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
