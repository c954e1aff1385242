package purgequeue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distfs/purgequeue/intent"
)

func TestInFlightMapSmallestSurvivesOutOfOrderRemoval(t *testing.T) {
	m := newInFlightMap()
	it := intent.Intent{Action: intent.PurgeFile, Snapc: intent.NullSnapContext}

	m.insert(100, it, 1)
	m.insert(200, it, 1)
	m.insert(300, it, 1)

	require.True(t, m.isSmallest(100))
	require.False(t, m.isSmallest(200))

	m.remove(200)
	require.True(t, m.isSmallest(100))
	require.Equal(t, 2, m.len())

	m.remove(300)
	require.True(t, m.isSmallest(100))

	m.remove(100)
	require.True(t, m.isEmpty())
}

func TestInFlightMapGetMissing(t *testing.T) {
	m := newInFlightMap()
	_, ok := m.get(42)
	require.False(t, ok)
}
