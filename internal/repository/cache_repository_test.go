package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

func TestCacheRepositoryWithoutRedis(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out []string
	require.ErrorIs(t, repo.Get(ctx, "lapanclass:holidays:2026-08", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "lapanclass:holidays:2026-08", []string{"HUT RI"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "lapanclass:holidays:2026-08"))
	assert.ErrorIs(t, repo.Ping(ctx), errCacheDisabled)
	assert.NoError(t, repo.Close())
}
