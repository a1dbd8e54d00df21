package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-go/internal/testutil"
)

func TestNew_Development(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)
	require.NotNil(t, sm)

	assert.Equal(t, 24*time.Hour, sm.Lifetime)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.False(t, sm.Cookie.Secure, "dev cookies are served over plain HTTP")
}

func TestNew_Production(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, false)
	assert.True(t, sm.Cookie.Secure)
}

func TestSessionRoundTrip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)

	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)

	sm.Put(ctx, "user_id", int64(42))
	token, _, err := sm.Commit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// A fresh load with the token sees the stored value
	ctx2, err := sm.Load(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sm.GetInt64(ctx2, "user_id"))
}
