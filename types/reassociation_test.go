package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassociationFromGroupSizes(t *testing.T) {
	r := ReassociationFromGroupSizes(1, 2, 3)
	assert.Equal(t, Reassociation{{0}, {1, 2}, {3, 4, 5}}, r)
	assert.Equal(t, 6, r.NumHigherRankAxes())
	assert.Equal(t, "[[0], [1, 2], [3, 4, 5]]", r.ToMLIR())
	assert.Empty(t, ReassociationFromGroupSizes())
}

func TestReassociationValidate(t *testing.T) {
	require.NoError(t, Reassociation{{0, 1}, {2}}.Validate(3))
	require.NoError(t, Reassociation{}.Validate(0))

	// Wrong higher rank.
	require.Error(t, Reassociation{{0, 1}, {2}}.Validate(4))
	// Not contiguous.
	require.Error(t, Reassociation{{0, 2}, {1}}.Validate(3))
	// Duplicate axis.
	require.Error(t, Reassociation{{0, 1}, {1, 2}}.Validate(3))
	// Empty group.
	err := Reassociation{{0, 1}, {}}.Validate(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestReassociationCloneAndEqual(t *testing.T) {
	r := Reassociation{{0}, {1, 2}}
	r2 := r.Clone()
	require.True(t, r.Equal(r2))
	r2[1][0] = 7
	assert.Equal(t, 1, r[1][0], "Clone must be deep")
	assert.False(t, r.Equal(r2))
	assert.False(t, r.Equal(Reassociation{{0}}))
}
