package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idvmgt/internal/idv/models"
	"idvmgt/pkg/platform/sentinel"
)

func claim(id, user, provider, uri string) *models.Claim {
	return &models.Claim{
		UUID:       id,
		UserID:     user,
		ProviderID: provider,
		ClaimURI:   uri,
		Metadata:   map[string]any{"source": "evidence", "checkId": id},
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := New()

	require.NoError(t, st.Add(ctx, 1, []*models.Claim{
		claim("c1", "alice", "onfido", "http://wso2.org/claims/givenname"),
		claim("c2", "alice", "onfido", "http://wso2.org/claims/lastname"),
		claim("c3", "alice", "veriff", "http://wso2.org/claims/givenname"),
		claim("c4", "bob", "onfido", "http://wso2.org/claims/givenname"),
	}))

	t.Run("tenant isolation", func(t *testing.T) {
		got, err := st.List(ctx, 2, "alice", "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list filters by provider", func(t *testing.T) {
		got, err := st.List(ctx, 1, "alice", "onfido")
		require.NoError(t, err)
		assert.Len(t, got, 2)
		all, err := st.List(ctx, 1, "alice", "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("get is scoped to the user", func(t *testing.T) {
		_, err := st.Get(ctx, 1, "bob", "c1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		got, err := st.Get(ctx, 1, "alice", "c1")
		require.NoError(t, err)
		assert.NotZero(t, got.ID)
	})

	t.Run("exists by natural key", func(t *testing.T) {
		ok, err := st.Exists(ctx, 1, models.ClaimKey{UserID: "alice", ProviderID: "veriff", ClaimURI: "http://wso2.org/claims/givenname"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("update touches only verification state", func(t *testing.T) {
		require.NoError(t, st.Update(ctx, 1, &models.Claim{
			UUID: "c1", UserID: "alice", ClaimURI: "ignored", IsVerified: true,
			Metadata: map[string]any{"status": "clear"},
		}))
		got, err := st.Get(ctx, 1, "alice", "c1")
		require.NoError(t, err)
		assert.True(t, got.IsVerified)
		assert.Equal(t, "http://wso2.org/claims/givenname", got.ClaimURI)
		assert.Equal(t, map[string]any{"status": "clear"}, got.Metadata)

		err = st.Update(ctx, 1, &models.Claim{UUID: "missing", UserID: "alice"})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("by metadata", func(t *testing.T) {
		got, err := st.ListByMetadata(ctx, 1, "status", "clear", "onfido")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].UUID)
	})

	t.Run("returned claims are copies", func(t *testing.T) {
		got, err := st.Get(ctx, 1, "alice", "c2")
		require.NoError(t, err)
		got.Metadata["source"] = "tampered"
		again, err := st.Get(ctx, 1, "alice", "c2")
		require.NoError(t, err)
		assert.Equal(t, "evidence", again.Metadata["source"])
	})

	t.Run("replace drops claims missing from the new set", func(t *testing.T) {
		require.NoError(t, st.Replace(ctx, 1, "alice", []*models.Claim{
			claim("c5", "alice", "onfido", "http://wso2.org/claims/dob"),
		}))
		got, err := st.List(ctx, 1, "alice", "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c5", got[0].UUID)

		bob, err := st.List(ctx, 1, "bob", "")
		require.NoError(t, err)
		assert.Len(t, bob, 1)
	})

	t.Run("delete by uri", func(t *testing.T) {
		require.NoError(t, st.DeleteByURI(ctx, 1, "bob", "", "http://wso2.org/claims/givenname"))
		ok, err := st.ExistsByID(ctx, 1, "c4")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete by user", func(t *testing.T) {
		require.NoError(t, st.DeleteByUser(ctx, 1, "alice"))
		got, err := st.List(ctx, 1, "alice", "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
