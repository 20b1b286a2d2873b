package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewSchemaError("products", "price", "unsupported column type", cause)

		assert.Contains(t, err.Error(), "relq: schema error")
		assert.Contains(t, err.Error(), "table products")
		assert.Contains(t, err.Error(), "column price")
		assert.Contains(t, err.Error(), "unsupported column type")
		assert.Contains(t, err.Error(), "underlying error")
	})

	t.Run("Error message with table only", func(t *testing.T) {
		err := &SchemaError{Table: "products"}
		assert.Equal(t, "relq: schema error on table products", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewSchemaError("products", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidSchema", func(t *testing.T) {
		err := NewSchemaError("products", "", "", nil)
		assert.True(t, errors.Is(err, ErrInvalidSchema))
		assert.False(t, errors.Is(err, ErrGenerationFailed))
	})

	t.Run("IsSchemaError helper", func(t *testing.T) {
		assert.True(t, IsSchemaError(NewSchemaError("products", "id", "test", nil)))
		assert.False(t, IsSchemaError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewGenerationError("write", "product.go", "", cause)

	assert.Equal(t, "relq: generation error in phase write (file: product.go): disk full", err.Error())
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsGenerationError(err))
	assert.False(t, IsGenerationError(NewSchemaError("", "", "", nil)))
}
