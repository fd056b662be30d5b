package onboarding

import (
	"context"
	"strings"
)

// TranslationService translates notice codes and labels for the viewer locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue picks the best entry for locale. Keys match
// case-insensitively and `es-mx` falls back to `es`, then `default`.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if value != "" && strings.EqualFold(key, candidate) {
				return value
			}
		}
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

// localizeNotice rewrites the notice message when a translation exists for
// "onboarding.notice.<code>".
func localizeNotice(ctx context.Context, svc TranslationService, locale string, notice Notice) Notice {
	if svc == nil || notice.Code == "" {
		return notice
	}
	translated, err := svc.Translate(ctx, "onboarding.notice."+notice.Code, locale, map[string]any{
		"message": notice.Message,
	})
	if err == nil && translated != "" {
		notice.Message = translated
	}
	return notice
}
