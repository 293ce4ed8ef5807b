package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	prefs  map[string]string
	writes int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{prefs: make(map[string]string)}
}

func (m *memoryStore) Get(ctx context.Context, ip string) (string, error) {
	code, ok := m.prefs[ip]
	if !ok {
		return "", ErrNotSeen
	}
	return code, nil
}

func (m *memoryStore) Upsert(ctx context.Context, ip, code string) error {
	m.prefs[ip] = code
	m.writes++
	return nil
}

func TestResolveDefaultsToEnglishForNewIP(t *testing.T) {
	store := newMemoryStore()
	n := NewNegotiator(store)

	code, err := n.Resolve(context.Background(), "10.0.0.1", "")
	require.NoError(t, err)
	assert.Equal(t, "en", code)
	assert.Equal(t, 1, store.writes, "exactly one row created")
	assert.Equal(t, "en", store.prefs["10.0.0.1"])
}

func TestResolveIdempotentUnderRepeatedHeader(t *testing.T) {
	store := newMemoryStore()
	n := NewNegotiator(store)

	code, err := n.Resolve(context.Background(), "10.0.0.2", "ar")
	require.NoError(t, err)
	require.Equal(t, "ar", code)
	require.Equal(t, 1, store.writes)

	code, err = n.Resolve(context.Background(), "10.0.0.2", "ar")
	require.NoError(t, err)
	assert.Equal(t, "ar", code)
	assert.Equal(t, 1, store.writes, "second identical call must not write")
}

func TestResolveTruncatesRegionalTagAndSticks(t *testing.T) {
	store := newMemoryStore()
	store.prefs["10.0.0.3"] = "en"
	n := NewNegotiator(store)

	code, err := n.Resolve(context.Background(), "10.0.0.3", "ar-SA")
	require.NoError(t, err)
	assert.Equal(t, "ar", code)
	assert.Equal(t, "ar", store.prefs["10.0.0.3"])

	// A headerless follow-up returns the stored preference, not the default.
	code, err = n.Resolve(context.Background(), "10.0.0.3", "")
	require.NoError(t, err)
	assert.Equal(t, "ar", code)
}

func TestResolveUnrecognizedCodeFallsBackInPick(t *testing.T) {
	store := newMemoryStore()
	n := NewNegotiator(store)

	code, err := n.Resolve(context.Background(), "10.0.0.4", "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "fr", code)

	text := Localized{AR: "مرحبا", EN: "hello"}
	assert.Equal(t, "hello", text.Pick(code), "English is the universal fallback")
	assert.Equal(t, "مرحبا", text.Pick(LangArabic))
}

func TestResolveWeightedAcceptLanguageList(t *testing.T) {
	store := newMemoryStore()
	n := NewNegotiator(store)

	code, err := n.Resolve(context.Background(), "10.0.0.5", "ar-EG,ar;q=0.9,en;q=0.5")
	require.NoError(t, err)
	assert.Equal(t, "ar", code)
}

func TestLangFromContextDefault(t *testing.T) {
	assert.Equal(t, "en", LangFromContext(context.Background()))

	ctx := ContextWithLang(context.Background(), "ar")
	assert.Equal(t, "ar", LangFromContext(ctx))
}
