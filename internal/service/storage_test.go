package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "verification/u1/doc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf"))

	rc, err := s.Open(ctx, "verification/u1/doc.pdf")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))

	// keys are never overwritten
	assert.Error(t, s.Save(ctx, "verification/u1/doc.pdf", strings.NewReader("x"), 1, "text/plain"))

	require.NoError(t, s.Delete(ctx, "verification/u1/doc.pdf"))
	_, err = s.Open(ctx, "verification/u1/doc.pdf")
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := s.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
