package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsDuplicates(t *testing.T) {
	s := NewStore()

	_, err := s.Add("u1", 5)
	require.NoError(t, err)

	_, err = s.Add("u1", 5)
	assert.ErrorIs(t, err, ErrAlreadyInWishlist)

	_, err = s.Add("u2", 5)
	require.NoError(t, err, "same product for another user is fine")
}

func TestRemoveAndList(t *testing.T) {
	s := NewStore()
	_, _ = s.Add("u1", 9)
	_, _ = s.Add("u1", 2)

	list := s.ListByUser("u1")
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ProductID)

	require.NoError(t, s.Remove("u1", 2))
	assert.ErrorIs(t, s.Remove("u1", 2), ErrNotInWishlist)
	assert.Len(t, s.ListByUser("u1"), 1)
}
