// Package clustermap defines the two cluster-topology inputs the
// dynamic limit controller (§4.6) consumes: the rank map (which data
// pools exist, and how many ranks share the purge workload) and the
// object-store map (how many placement groups back each pool).
package clustermap

// RankMap supplies the inputs to the op-ceiling formula that come from
// the metadata cluster's own membership, independent of the object
// store.
type RankMap interface {
	// MaxActiveRanks is the number of ranks the op ceiling is divided
	// across, so that the cluster-wide ceiling is apportioned fairly
	// per purge queue instance.
	MaxActiveRanks() int

	// DataPools lists every data pool id purge intents may reference.
	DataPools() []int64
}

// ObjectStoreMap supplies placement-group counts per pool. It can lag
// RankMap — a pool the rank map already knows about may not have
// appeared in the object-store map yet — and callers must tolerate
// that (§4.6).
type ObjectStoreMap interface {
	// PGNum returns the placement-group count for poolID, and false if
	// the object-store map doesn't (yet) know about that pool.
	PGNum(poolID int64) (count uint64, ok bool)
}

// StaticRankMap is a RankMap literal, useful for tests and for daemons
// that reload topology by constructing a fresh value rather than
// mutating one in place.
type StaticRankMap struct {
	Ranks int
	Pools []int64
}

// MaxActiveRanks implements RankMap.
func (m StaticRankMap) MaxActiveRanks() int { return m.Ranks }

// DataPools implements RankMap.
func (m StaticRankMap) DataPools() []int64 { return m.Pools }

// StaticObjectStoreMap is an ObjectStoreMap literal backed by a plain
// map, useful for tests.
type StaticObjectStoreMap map[int64]uint64

// PGNum implements ObjectStoreMap.
func (m StaticObjectStoreMap) PGNum(poolID int64) (uint64, bool) {
	count, ok := m[poolID]
	return count, ok
}
