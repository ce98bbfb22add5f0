package auth

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewLocalIssuer("secret", time.Hour)
	user := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: models.RoleAdmin}

	token, expires, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	id, err := issuer.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.True(t, id.IsAdmin())
}

func TestLocalIssuer_RejectsBadTokens(t *testing.T) {
	issuer := NewLocalIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(&models.User{ID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewLocalIssuer("other", time.Hour).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewLocalIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(&models.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = issuer.Verify(context.Background(), old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UserID: "u-1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", id.UserID)
}
