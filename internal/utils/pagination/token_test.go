package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeOffsetToken(t *testing.T) {
	for _, offset := range []int{0, 1, 50, 123456} {
		token := EncodeOffsetToken(offset)
		assert.NotEmpty(t, token, "Token should not be empty")

		decoded, err := DecodeOffsetToken(token)
		assert.NoError(t, err, "Decoding should not return an error")
		assert.Equal(t, offset, decoded, "Offset should match after decode")
	}
}

func TestDecodeOffsetTokenError(t *testing.T) {
	_, err := DecodeOffsetToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	_, err = DecodeOffsetToken(EncodeMultiFieldToken("cursor", "10"))
	assert.Error(t, err, "Should reject a token with the wrong prefix")

	_, err = DecodeOffsetToken(EncodeMultiFieldToken(tokenPrefix, "-3"))
	assert.Error(t, err, "Should reject a negative offset")
}

func TestMultiFieldToken(t *testing.T) {
	fields := []string{"a", "b", "c"}
	parts, err := DecodeMultiFieldToken(EncodeMultiFieldToken(fields...))
	require.NoError(t, err)
	assert.Equal(t, fields, parts)
}

func TestResolve(t *testing.T) {
	w, err := Resolve(0, 0, "", 50, 500)
	require.NoError(t, err)
	assert.Equal(t, Window{Limit: 50, Offset: 0}, w)

	w, err = Resolve(10000, 20, "", 50, 500)
	require.NoError(t, err)
	assert.Equal(t, Window{Limit: 500, Offset: 20}, w)

	w, err = Resolve(10, 0, EncodeOffsetToken(30), 50, 500)
	require.NoError(t, err)
	assert.Equal(t, 30, w.Offset, "token wins over offset")

	_, err = Resolve(10, -1, "", 50, 500)
	assert.Error(t, err)
}

func TestWindowNext(t *testing.T) {
	w := Window{Limit: 10, Offset: 20}

	next, token := w.Next(10, 45)
	require.NotNil(t, next)
	assert.Equal(t, 30, *next)
	decoded, err := DecodeOffsetToken(token)
	require.NoError(t, err)
	assert.Equal(t, 30, decoded)

	next, token = w.Next(5, 25)
	assert.Nil(t, next)
	assert.Empty(t, token)

	next, _ = w.Next(0, 100)
	assert.Nil(t, next)
}
