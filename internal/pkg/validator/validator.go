package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// local@domain.tld，不允许空白和多余的 @
	emailShapePattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phone10Pattern    = regexp.MustCompile(`^\d{10}$`)
	digitsPattern     = regexp.MustCompile(`^\d+$`)
)

// Validator 包装 go-playground validator，注册登录表单相关规则
type Validator struct {
	validate *validator.Validate
}

// New 创建验证器
// 字段名使用 json tag，便于直接作为错误 map 的 key
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "email_shape", validateEmailShape)
	mustRegister(v, "phone10", validatePhone10)
	mustRegister(v, "digits", validateDigits)

	return &Validator{validate: v}
}

// Struct 验证结构体，返回 validator.ValidationErrors 或 nil
func (v *Validator) Struct(i interface{}) error {
	return v.validate.Struct(i)
}

// Var 验证单个值
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validator: register " + tag + ": " + err.Error())
	}
}

// validateEmailShape 邮箱形如 local@domain.tld
func validateEmailShape(fl validator.FieldLevel) bool {
	return emailShapePattern.MatchString(fl.Field().String())
}

// validatePhone10 恰好 10 位数字
func validatePhone10(fl validator.FieldLevel) bool {
	return phone10Pattern.MatchString(fl.Field().String())
}

func validateDigits(fl validator.FieldLevel) bool {
	return digitsPattern.MatchString(fl.Field().String())
}
