package i18n

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// ErrNotSeen indicates no stored preference exists for the IP.
var ErrNotSeen = errors.New("i18n: ip not seen")

// PreferenceStore persists the per-IP language preference. The Postgres
// implementation never expires rows; growth is an accepted operational
// concern, and an evicting store can be swapped in behind this interface.
type PreferenceStore interface {
	Get(ctx context.Context, ip string) (string, error)
	Upsert(ctx context.Context, ip, code string) error
}

// Negotiator resolves the active display language for a request.
type Negotiator struct {
	store PreferenceStore
}

// NewNegotiator constructs a Negotiator over the given store.
func NewNegotiator(store PreferenceStore) *Negotiator {
	return &Negotiator{store: store}
}

// Resolve combines the Accept-Language header with the stored per-IP
// preference. A present header always wins and is persisted when it changes
// the stored code; an absent header falls back to the stored code, or to
// English for a never-seen IP. At most one write per call.
func (n *Negotiator) Resolve(ctx context.Context, ip, header string) (string, error) {
	code := codeFromHeader(header)

	stored, err := n.store.Get(ctx, ip)
	switch {
	case errors.Is(err, ErrNotSeen):
		if err := n.store.Upsert(ctx, ip, code); err != nil {
			return "", err
		}
		return code, nil
	case err != nil:
		return "", err
	}

	if header != "" && code != stored {
		if err := n.store.Upsert(ctx, ip, code); err != nil {
			return "", err
		}
		return code, nil
	}
	return stored, nil
}

// codeFromHeader reduces an Accept-Language value to a two-letter code.
// Well-formed tags go through the language matcher ("ar-SA" -> "ar");
// anything else is truncated to its first two characters, matching the
// stored column width.
func codeFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return LangEnglish
	}
	if tags, _, err := language.ParseAcceptLanguage(header); err == nil && len(tags) > 0 {
		base, confidence := tags[0].Base()
		if confidence != language.No {
			return base.String()
		}
	}
	if len(header) > 2 {
		header = header[:2]
	}
	return strings.ToLower(header)
}
