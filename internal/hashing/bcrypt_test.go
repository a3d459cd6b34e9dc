package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndCompare(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)

	h, err := b.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", h)

	assert.True(t, b.Compare(h, "s3cret!"))
	assert.False(t, b.Compare(h, "wrong"))
	assert.False(t, b.Compare("not-a-hash", "s3cret!"))
}

func TestBcrypt_Cost(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: bcrypt.DefaultCost},
		{in: bcrypt.MaxCost + 1, want: bcrypt.DefaultCost},
		{in: bcrypt.MinCost, want: bcrypt.MinCost},
		{in: 12, want: 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewBcrypt(tt.in).cost)
	}

	h, err := NewBcrypt(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestBcrypt_RejectsLongPasswords(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
