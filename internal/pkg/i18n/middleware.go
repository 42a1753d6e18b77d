package i18n

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
)

// CookieLanguage 前端保存语言偏好的 cookie
const CookieLanguage = "lang"

// Middleware 确定请求语言并写入 context，同时回写 Content-Language。
// 优先级: ?lang= > lang cookie > Accept-Language > 默认语言
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := requestLanguage(c)

			req := c.Request()
			c.SetRequest(req.WithContext(WithLanguage(req.Context(), lang)))
			c.Response().Header().Set("Content-Language", lang.String())
			return next(c)
		}
	}
}

func requestLanguage(c echo.Context) language.Tag {
	if code := c.QueryParam("lang"); code != "" {
		return ParseLanguageCode(code)
	}
	if cookie, err := c.Cookie(CookieLanguage); err == nil && cookie.Value != "" {
		return ParseLanguageCode(cookie.Value)
	}
	return ParseAcceptLanguage(c.Request().Header.Get("Accept-Language"))
}
