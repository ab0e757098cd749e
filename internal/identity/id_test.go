package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Uniqueness(t *testing.T) {
	ids := make(map[ID]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := New()
		require.NoError(t, err)
		assert.False(t, ids[id], "id should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestCompare_OrdersHighHalfFirst(t *testing.T) {
	var a, b ID
	a[0] = 0x01 // high half dominates
	b[15] = 0xff

	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.True(t, b.Less(a))
	assert.Equal(t, b, Min(a, b))
}

func TestCompare_BigEndianWithinHalf(t *testing.T) {
	var a, b ID
	a[7] = 0x02
	b[7] = 0x10

	assert.True(t, a.Less(b))
	assert.Equal(t, uint64(0x02), a.Hi())
	assert.Equal(t, uint64(0x10), b.Hi())
	assert.Equal(t, uint64(0), a.Lo())
}

func TestCompare_Equal(t *testing.T) {
	id := MustNew()
	assert.Equal(t, 0, id.Compare(id))
}

func TestNewTimeOrdered_ApproximatesCreationOrder(t *testing.T) {
	prev := MustTimeOrdered()
	for i := 0; i < 100; i++ {
		next := MustTimeOrdered()
		// v7 ids embed a millisecond timestamp in the high bits, so ids
		// generated later never order before ids generated earlier.
		assert.LessOrEqual(t, prev.Hi()>>16, next.Hi()>>16)
		prev = next
	}
}

func TestParse_RoundTrip(t *testing.T) {
	id := MustNew()

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("not-an-id")
	assert.Error(t, err)
}

func TestTextMarshal_RoundTrip(t *testing.T) {
	id := MustTimeOrdered()

	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
}

func TestIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, MustNew().IsZero())
}
