package signin

// OTPLength 验证码位数
const OTPLength = 6

// PasswordCredentials 邮箱 + 密码登录的字段组
type PasswordCredentials struct {
	Email    string `json:"email" validate:"required,email_shape"`
	Password string `json:"password" validate:"required"`
}

// OtpCredentials 手机验证码登录的字段组
// OtpCode 只在验证码发送后才有意义，由提交流程单独校验
type OtpCredentials struct {
	CountryCode string `json:"countryCode" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone10"`
	OtpCode     string `json:"otp" validate:"-"`
}

// Phone 区号与号码直接拼接，例如 "+1" + "5551234567"
func (c OtpCredentials) Phone() string {
	return c.CountryCode + c.PhoneNumber
}

// Credentials 表单持有两组字段；切换方式不会清空另一组的输入
type Credentials struct {
	Password PasswordCredentials `json:"password"`
	Otp      OtpCredentials      `json:"otp"`
}

// Submission 按登录方式区分的提交内容，只有两个实现
type Submission interface {
	Method() LoginMethod
	isSubmission()
}

// PasswordLogin 邮箱密码提交
type PasswordLogin struct {
	Email    string
	Password string
}

func (PasswordLogin) Method() LoginMethod { return MethodPassword }
func (PasswordLogin) isSubmission()       {}

// OtpLogin 手机验证码提交
type OtpLogin struct {
	CountryCode string
	PhoneNumber string
	Code        string
}

func (OtpLogin) Method() LoginMethod { return MethodOTP }
func (OtpLogin) isSubmission()       {}

// Phone 完整手机号
func (l OtpLogin) Phone() string {
	return l.CountryCode + l.PhoneNumber
}

// Submission 取出当前方式对应的字段组
func (c Credentials) Submission(m LoginMethod) Submission {
	if m == MethodOTP {
		return OtpLogin{
			CountryCode: c.Otp.CountryCode,
			PhoneNumber: c.Otp.PhoneNumber,
			Code:        c.Otp.OtpCode,
		}
	}
	return PasswordLogin{
		Email:    c.Password.Email,
		Password: c.Password.Password,
	}
}
