package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWithFrom(t *testing.T) {
	ctx := With(context.Background(), "abc")
	assert.Equal(t, "abc", From(ctx))
	assert.Equal(t, "", From(context.Background()))
}

func TestEnsure(t *testing.T) {
	ctx := Ensure(context.Background())
	_, err := uuid.Parse(From(ctx))
	assert.NoError(t, err)

	kept := Ensure(With(context.Background(), "keep"))
	assert.Equal(t, "keep", From(kept))
}
