// File: internal/pkg/i18n/i18n.go
package i18n

import (
	"context"
	"strings"

	"chatcrm/internal/pkg/ctxkey"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	// DefaultLanguage 默认语言为英文
	DefaultLanguage = language.English
	// SupportedLanguages 支持的语言列表，顺序与 matcher 下标一致
	SupportedLanguages = []language.Tag{
		language.English,
		language.Chinese,
	}
	matcher = language.NewMatcher(SupportedLanguages)

	// 英文文案即 key，只需为中文注册翻译
	messages = catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
)

// WithLanguage 在 context 中设置语言偏好
func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, ctxkey.Language, lang)
}

// GetLanguage 从 context 中获取语言偏好
func GetLanguage(ctx context.Context) language.Tag {
	if ctx == nil {
		return DefaultLanguage
	}
	if lang, ok := ctx.Value(ctxkey.Language).(language.Tag); ok {
		return lang
	}
	return DefaultLanguage
}

// ParseAcceptLanguage 解析 Accept-Language 头部
// 例如: "zh-CN,zh;q=0.9,en;q=0.8"
func ParseAcceptLanguage(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// ParseLanguageCode 从语言代码解析 Tag
// 支持: "zh", "zh-CN", "en", "en-US" 等
func ParseLanguageCode(code string) language.Tag {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLanguage
	}

	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// Printer 返回指定语言的打印器
func Printer(lang language.Tag) *message.Printer {
	return message.NewPrinter(lang, message.Catalog(messages))
}

// T 翻译函数 - 从 context 中获取语言并翻译
func T(ctx context.Context, key string, args ...interface{}) string {
	return Translate(GetLanguage(ctx), key, args...)
}

// Translate 直接翻译（不依赖 context）
func Translate(lang language.Tag, key string, args ...interface{}) string {
	return Printer(lang).Sprintf(key, args...)
}

func register(lang language.Tag, translations map[string]string) {
	for key, msg := range translations {
		if err := messages.SetString(lang, key, msg); err != nil {
			panic("i18n: register " + key + ": " + err.Error())
		}
	}
}
