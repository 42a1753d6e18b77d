package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError 验证错误详情
type ValidationError struct {
	Field   string `json:"field"`   // 字段名（json 名）
	Message string `json:"message"` // 错误消息
	Tag     string `json:"tag"`     // 验证标签（如：required, email_shape）
	Value   string `json:"value"`   // 实际值（脱敏后）
}

// MessageTable 按 "field.tag" 查找文案，找不到时按 tag 查找
type MessageTable map[string]string

func (t MessageTable) lookup(field, tag string) (string, bool) {
	if msg, ok := t[field+"."+tag]; ok {
		return msg, true
	}
	msg, ok := t[tag]
	return msg, ok
}

// TranslateValidationErrors 翻译所有验证错误
func TranslateValidationErrors(err error, messages MessageTable) []ValidationError {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []ValidationError{
			{
				Field:   "request",
				Message: err.Error(),
				Tag:     "unknown",
			},
		}
	}

	result := make([]ValidationError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		result = append(result, ValidationError{
			Field:   fieldErr.Field(),
			Message: translateFieldError(fieldErr, messages),
			Tag:     fieldErr.Tag(),
			Value:   sanitizeValue(fieldErr.Field(), fieldErr.Value()),
		})
	}

	return result
}

func translateFieldError(fieldErr validator.FieldError, messages MessageTable) string {
	if msg, ok := messages.lookup(fieldErr.Field(), fieldErr.Tag()); ok {
		return msg
	}
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}

// sanitizeValue 脱敏敏感值（避免在错误中泄露密码、验证码）
func sanitizeValue(field string, value interface{}) string {
	if value == nil {
		return ""
	}
	switch field {
	case "password", "otp", "otpCode":
		return "***"
	}

	strValue := fmt.Sprintf("%v", value)
	if len(strValue) > 50 {
		return strValue[:50] + "..."
	}
	return strValue
}
