// Package i18n resolves the display language for a request and selects the
// matching side of bilingual content. The resolved preference is sticky per
// client IP: it persists across requests that omit the Accept-Language
// header and is overridden by any request that carries one.
package i18n

import "context"

// Language codes the API serves. Anything else falls back to English.
const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

// Localized holds the two parallel translations of a text field.
type Localized struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

// Pick returns the Arabic text iff code is exactly "ar"; English is the
// universal fallback, including for unrecognized codes.
func (l Localized) Pick(code string) string {
	if code == LangArabic {
		return l.AR
	}
	return l.EN
}

type langContextKey struct{}

// ContextWithLang stores the resolved language code in context.
func ContextWithLang(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, langContextKey{}, code)
}

// LangFromContext extracts the resolved language code, English when absent.
func LangFromContext(ctx context.Context) string {
	if code, ok := ctx.Value(langContextKey{}).(string); ok && code != "" {
		return code
	}
	return LangEnglish
}
