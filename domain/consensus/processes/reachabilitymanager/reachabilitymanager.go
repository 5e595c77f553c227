package reachabilitymanager

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/reachabilitydata"
)

// reachabilityManager maintains a structure that allows to answer
// reachability queries in sub-linear time
type reachabilityManager struct {
	databaseContext       model.DBReader
	ghostdagDataStore     model.GHOSTDAGDataStore
	reachabilityDataStore model.ReachabilityDataStore
	reindexWindow         uint64
	reindexSlack          uint64
}

// New instantiates a new reachabilityManager
func New(
	databaseContext model.DBReader,
	ghostdagDataStore model.GHOSTDAGDataStore,
	reachabilityDataStore model.ReachabilityDataStore,
) model.ReachabilityManager {
	return &reachabilityManager{
		databaseContext:       databaseContext,
		ghostdagDataStore:     ghostdagDataStore,
		reachabilityDataStore: reachabilityDataStore,
		reindexWindow:         defaultReindexWindow,
		reindexSlack:          defaultReindexSlack,
	}
}

// AddBlock adds the block with the given blockHash into the reachability tree.
func (rt *reachabilityManager) AddBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	ghostdagData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	// The genesis block is the tree root: it gets the full interval
	// and becomes the initial reindex root.
	if ghostdagData.SelectedParent() == nil {
		rt.stageData(stagingArea, blockHash, newReachabilityTreeData())
		rt.stageReindexRoot(stagingArea, blockHash)
		return nil
	}

	// Allocate a new reachability tree node
	rt.stageData(stagingArea, blockHash, reachabilitydata.EmptyReachabilityData())

	reindexRoot, err := rt.reindexRoot(stagingArea)
	if err != nil {
		return err
	}

	// Insert the node into the selected parent's reachability tree
	err = rt.addChild(stagingArea, ghostdagData.SelectedParent(), blockHash, reindexRoot)
	if err != nil {
		return err
	}

	// Add the block to the futureCoveringSets of all the blocks
	// in the mergeset
	for _, current := range ghostdagData.MergeSet() {
		err = rt.insertToFutureCoveringSet(stagingArea, current, blockHash)
		if err != nil {
			return err
		}
	}

	// Advance the reindex root along the selected parent chain when the
	// new block is deep enough past it.
	return rt.updateReindexRoot(stagingArea, blockHash)
}

// IsDAGAncestorOf returns true if blockHashA is an ancestor of
// blockHashB in the block DAG. A block is an ancestor of itself.
func (rt *reachabilityManager) IsDAGAncestorOf(stagingArea *model.StagingArea,
	blockHashA, blockHashB *externalapi.DomainHash) (bool, error) {

	// First, check if blockHashA is a reachability tree ancestor of
	// blockHashB. This covers the selected-parent chain case in O(1).
	isReachabilityTreeAncestorOf, err := rt.IsReachabilityTreeAncestorOf(stagingArea, blockHashA, blockHashB)
	if err != nil {
		return false, err
	}
	if isReachabilityTreeAncestorOf {
		return true, nil
	}

	// Otherwise, use the future covering set of blockHashA
	return rt.futureCoveringSetHasAncestorOf(stagingArea, blockHashA, blockHashB)
}
