package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatcrm/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, language.Chinese, ParseAcceptLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, language.English, ParseAcceptLanguage("en-US"))
	assert.Equal(t, DefaultLanguage, ParseAcceptLanguage(""))
	assert.Equal(t, DefaultLanguage, ParseAcceptLanguage(";;;"))
}

func TestParseLanguageCode(t *testing.T) {
	assert.Equal(t, language.Chinese, ParseLanguageCode("ZH"))
	assert.Equal(t, language.English, ParseLanguageCode("en-GB"))
	assert.Equal(t, DefaultLanguage, ParseLanguageCode("not a tag!"))
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, "OTP must be 6 digits", Translate(language.English, MsgOTPLength))
	assert.Equal(t, "验证码必须是 6 位数字", Translate(language.Chinese, MsgOTPLength))

	ctx := WithLanguage(context.Background(), language.Chinese)
	assert.Equal(t, "请输入邮箱", T(ctx, MsgEmailRequired))
	assert.Equal(t, MsgEmailRequired, T(context.Background(), MsgEmailRequired))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "凭据无效", GetErrorMessage(xerrors.CodeInvalidCredentials, language.Chinese))
	assert.Equal(t, "Invalid credentials", GetErrorMessage(xerrors.CodeInvalidCredentials, language.English))
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?lang=zh", nil)
	req.Header.Set("Accept-Language", "en")
	c := e.NewContext(req, httptest.NewRecorder())

	var got language.Tag
	h := Middleware()(func(c echo.Context) error {
		got = GetLanguage(c.Request().Context())
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, language.Chinese, got)
}

func TestMiddleware_CookieBeforeAcceptLanguage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US")
	req.AddCookie(&http.Cookie{Name: CookieLanguage, Value: "zh-CN"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got language.Tag
	h := Middleware()(func(c echo.Context) error {
		got = GetLanguage(c.Request().Context())
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, language.Chinese, got)
	assert.Equal(t, "zh", rec.Header().Get("Content-Language"))
}
