package middleware_test

import (
	"context"
	"testing"

	"github.com/claimdesk/intake/pkg/adapters/memory"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	under := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)email", "(?i)phone"})
	require.NoError(t, err)
	store := mw(under)
	ctx := context.Background()

	cp := &domain.Checkpoint{
		Key: testKey,
		Draft: domain.ClaimDraft{
			domain.SectionInsured: map[string]any{
				"firstName": "Jane",
				"email":     "jane@example.com",
				"mailingAddress": map[string]any{
					"street": "1 Main St",
				},
			},
			domain.SectionPersonnel: []any{
				map[string]any{"name": "Bob", "role": "adjuster", "phoneNumber": "555-0100"},
			},
		},
	}
	require.NoError(t, store.Save(ctx, cp))

	insured := cp.Draft[domain.SectionInsured].(map[string]any)
	assert.Equal(t, "jane@example.com", insured["email"], "in-memory draft must not be modified")

	stored, err := under.Load(ctx, testKey)
	require.NoError(t, err)

	storedInsured := stored.Draft[domain.SectionInsured].(map[string]any)
	assert.Equal(t, "Jane", storedInsured["firstName"])
	assert.Equal(t, middleware.Mask, storedInsured["email"])
	assert.Equal(t, "1 Main St", storedInsured["mailingAddress"].(map[string]any)["street"])

	member := stored.Draft[domain.SectionPersonnel].([]any)[0].(map[string]any)
	assert.Equal(t, middleware.Mask, member["phoneNumber"])
	assert.Equal(t, "Bob", member["name"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	under := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"email"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(under, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Checkpoint{
		Key:   testKey,
		Draft: domain.ClaimDraft{domain.SectionInsured: map[string]any{"email": "x@y.z"}},
	}))

	loaded, err := store.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Draft[domain.SectionInsured].(map[string]any)["email"])
}
