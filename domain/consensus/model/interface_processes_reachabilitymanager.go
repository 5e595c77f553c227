package model

import "github.com/tos-network/tosdag/domain/consensus/model/externalapi"

// ReachabilityManager maintains a structure that allows to answer
// reachability queries in sub-linear time
type ReachabilityManager interface {
	// AddBlock inserts the given block into the reachability tree using its
	// staged GHOSTDAG data: the selected parent becomes the tree parent and
	// every mergeset member records the block in its future covering set.
	// The genesis block (nil selected parent) becomes the tree root and the
	// initial reindex root.
	AddBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error

	// IsReachabilityTreeAncestorOf returns whether blockHashA is an ancestor
	// of blockHashB in the reachability tree. A block is an ancestor of
	// itself.
	IsReachabilityTreeAncestorOf(stagingArea *StagingArea, blockHashA *externalapi.DomainHash, blockHashB *externalapi.DomainHash) (bool, error)

	// IsDAGAncestorOf returns whether blockHashA is in the past of
	// blockHashB in the block DAG.
	IsDAGAncestorOf(stagingArea *StagingArea, blockHashA *externalapi.DomainHash, blockHashB *externalapi.DomainHash) (bool, error)
}
