package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(ctx, "abc")))
}

func TestUserID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, int64(0), GetUserID(ctx))
	assert.Equal(t, int64(42), GetUserID(WithUserID(ctx, 42)))
}
