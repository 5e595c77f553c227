package ghostdagmanager

import (
	"sort"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/hashset"
)

// mergeSetWithoutSelectedParent collects the mergeset of a block: every
// block reachable from the block's parents that is not in the past of the
// selected parent. The selected parent itself is not a mergeset member.
// The result is returned in the deterministic mergeset order.
func (gm *ghostdagManager) mergeSetWithoutSelectedParent(stagingArea *model.StagingArea,
	selectedParent *externalapi.DomainHash, blockParents []*externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	mergeSetMap := make(map[externalapi.DomainHash]struct{}, gm.k)
	mergeSetSlice := make([]*externalapi.DomainHash, 0, gm.k)
	selectedParentPast := hashset.New()
	queue := []*externalapi.DomainHash{}

	// Queueing all parents (other than the selected parent itself) for
	// processing.
	for _, parent := range blockParents {
		if parent.Equal(selectedParent) {
			continue
		}
		mergeSetMap[*parent] = struct{}{}
		mergeSetSlice = append(mergeSetSlice, parent)
		queue = append(queue, parent)
	}

	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		currentParents, err := gm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, err
		}

		// For each parent of the current block we check whether it is in
		// the past of the selected parent. If not, we add it to the
		// resulting anticone-set and queue it for further processing.
		for _, parent := range currentParents {
			if _, ok := mergeSetMap[*parent]; ok {
				continue
			}
			if selectedParentPast.Contains(parent) {
				continue
			}

			isAncestorOfSelectedParent, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, parent, selectedParent)
			if err != nil {
				return nil, err
			}
			if isAncestorOfSelectedParent {
				selectedParentPast.Add(parent)
				continue
			}

			mergeSetMap[*parent] = struct{}{}
			mergeSetSlice = append(mergeSetSlice, parent)
			queue = append(queue, parent)
		}
	}

	err := gm.sortMergeSet(stagingArea, mergeSetSlice)
	if err != nil {
		return nil, err
	}

	return mergeSetSlice, nil
}

// sortMergeSet sorts the given mergeset in place in the deterministic
// mergeset order: descending blue work, ties broken by ascending hash.
// Blue candidates are examined in this order, so it is consensus-critical.
func (gm *ghostdagManager) sortMergeSet(stagingArea *model.StagingArea,
	mergeSetSlice []*externalapi.DomainHash) error {

	mergeSetDatas := make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData, len(mergeSetSlice))
	for _, blockHash := range mergeSetSlice {
		blockData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return err
		}
		mergeSetDatas[*blockHash] = blockData
	}

	sort.Slice(mergeSetSlice, func(i, j int) bool {
		blockHashA, blockHashB := mergeSetSlice[i], mergeSetSlice[j]
		switch mergeSetDatas[*blockHashA].BlueWork().Cmp(mergeSetDatas[*blockHashB].BlueWork()) {
		case 1:
			return true
		case -1:
			return false
		default:
			return blockHashA.Less(blockHashB)
		}
	})
	return nil
}
