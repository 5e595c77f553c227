package model

import (
	"fmt"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// ReachabilityData is the set of data required to answer reachability
// queries for some block: its position in the reachability tree (parent,
// ordered children, and the index interval encoding the subtree relation)
// plus the future covering set.
//
// The tree provides the ability to query *tree* reachability in O(1):
// the index interval of every block contains the intervals of all blocks
// in its subtree, so the query B ∈ subtree(A) simply becomes
// A.Interval ⊇ B.Interval.
//
// The main challenge of maintaining such intervals is that the tree is
// ever-growing, so pre-allocated intervals may not suffice. This is where
// the reindexing algorithm in processes/reachabilitymanager comes into
// place. We use the reasonable assumption that the initial root interval
// [0, 2^64-2) should always suffice for any practical use-case, so
// reindexing should always succeed unless more than 2^64 blocks are added
// to the DAG.
type ReachabilityData interface {
	Children() []*externalapi.DomainHash
	Parent() *externalapi.DomainHash
	Interval() *ReachabilityInterval
	FutureCoveringSet() FutureCoveringTreeNodeSet
	CloneMutable() MutableReachabilityData
	Equal(other ReachabilityData) bool
}

// MutableReachabilityData is a writable version of ReachabilityData,
// used by the reachability manager while staging changes.
type MutableReachabilityData interface {
	ReachabilityData

	AddChild(child *externalapi.DomainHash)
	SetParent(parent *externalapi.DomainHash)
	SetInterval(interval *ReachabilityInterval)
	SetFutureCoveringSet(set FutureCoveringTreeNodeSet)
}

// ReachabilityInterval represents a half-open index interval [Start, End)
// to be used within the tree reachability algorithm. See ReachabilityData
// for further details.
type ReachabilityInterval struct {
	Start uint64
	End   uint64
}

func (ri *ReachabilityInterval) String() string {
	return fmt.Sprintf("[%d,%d)", ri.Start, ri.End)
}

// FutureCoveringTreeNodeSet represents a collection of blocks in the future
// of a certain block. Once a block B is added to the DAG, every block A_i in
// B's mergeset must register B in its FutureCoveringTreeNodeSet. This allows
// to relatively quickly (O(log(|FutureCoveringTreeNodeSet|))) query whether
// B is a descendant (is in the "future") of any block that previously
// registered it.
//
// Note that FutureCoveringTreeNodeSet is meant to be queried only if B is
// not a reachability tree descendant of the block in question, as
// reachability tree queries are always O(1).
//
// The set is kept ordered by interval to allow binary searching.
type FutureCoveringTreeNodeSet []*externalapi.DomainHash

// Clone returns a clone of FutureCoveringTreeNodeSet
func (fctns FutureCoveringTreeNodeSet) Clone() FutureCoveringTreeNodeSet {
	return externalapi.CloneHashes(fctns)
}
