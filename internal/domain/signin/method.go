package signin

import (
	"fmt"
	"strings"
)

// LoginMethod 选择生效的凭据组与校验规则
type LoginMethod string

const (
	MethodPassword LoginMethod = "password"
	MethodOTP      LoginMethod = "otp"
)

// DefaultMethod 表单初始的登录方式
const DefaultMethod = MethodPassword

// Valid 是否为已知方式
func (m LoginMethod) Valid() bool {
	return m == MethodPassword || m == MethodOTP
}

func (m LoginMethod) String() string {
	return string(m)
}

// ParseLoginMethod 解析 "password" / "otp"（不区分大小写）
func ParseLoginMethod(s string) (LoginMethod, error) {
	m := LoginMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown login method %q", s)
	}
	return m, nil
}

// Field 表单字段，也是 ValidationErrors 的 key
type Field string

const (
	FieldEmail       Field = "email"
	FieldPassword    Field = "password"
	FieldCountryCode Field = "countryCode"
	FieldPhoneNumber Field = "phoneNumber"
	FieldOTP         Field = "otp"
)

// Method 字段所属的登录方式
func (f Field) Method() LoginMethod {
	switch f {
	case FieldEmail, FieldPassword:
		return MethodPassword
	default:
		return MethodOTP
	}
}

// FieldsOf 返回某种登录方式拥有的字段
func FieldsOf(m LoginMethod) []Field {
	if m == MethodOTP {
		return []Field{FieldCountryCode, FieldPhoneNumber, FieldOTP}
	}
	return []Field{FieldEmail, FieldPassword}
}
