package clustermap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticRankMap(t *testing.T) {
	m := StaticRankMap{Ranks: 3, Pools: []int64{1, 2}}
	require.Equal(t, 3, m.MaxActiveRanks())
	require.Equal(t, []int64{1, 2}, m.DataPools())
}

func TestStaticObjectStoreMap(t *testing.T) {
	m := StaticObjectStoreMap{1: 64, 2: 128}

	count, ok := m.PGNum(1)
	require.True(t, ok)
	require.Equal(t, uint64(64), count)

	_, ok = m.PGNum(99)
	require.False(t, ok)
}
