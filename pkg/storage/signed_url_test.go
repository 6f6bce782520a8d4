package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("proof", "stu-1/S_1760832000000.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	scope, key, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "proof", scope)
	require.Equal(t, "stu-1/S_1760832000000.jpg", key)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("proof", "stu-1/I_1.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	_, key, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "stu-1/I_1.pdf", key)
}

func TestSignedURLSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("proof", "stu-1/S_1.jpg")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidDownloadToken)

	_, _, _, err = signer.Parse(token+"x", true)
	require.ErrorIs(t, err, ErrInvalidDownloadToken)

	_, _, _, err = signer.Parse("not-a-token", false)
	require.Error(t, err)
}
