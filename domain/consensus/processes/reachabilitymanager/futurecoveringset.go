package reachabilitymanager

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// insertToFutureCoveringSet inserts the given block into the future covering set
// of `blockHash`. The future covering set is maintained as a sorted, size-efficient
// subset of the block's future, allowing for fast DAG ancestry queries via binary
// search. See futureCoveringSetHasAncestorOf for the query side.
//
// Notes:
//   - Intervals of nodes in the future covering set are disjoint, since the set
//     never keeps two nodes where one is a tree ancestor of the other.
//   - The future covering set is kept ordered by interval, so a binary search can
//     locate the only candidate that may cover a queried node.
func (rt *reachabilityManager) insertToFutureCoveringSet(stagingArea *model.StagingArea,
	blockHash, futureBlockHash *externalapi.DomainHash) error {

	futureCoveringSet, err := rt.futureCoveringSet(stagingArea, blockHash)
	if err != nil {
		return err
	}

	ancestorIndex, ok, err := rt.findAncestorIndexOfNode(stagingArea, futureCoveringSet, futureBlockHash)
	if err != nil {
		return err
	}

	if !ok {
		// futureBlockHash is ordered before the entire set, so it cannot be
		// covered by, nor cover, any existing member. Insert at the start.
		newSet := append(model.FutureCoveringTreeNodeSet{futureBlockHash}, futureCoveringSet...)
		return rt.stageFutureCoveringSet(stagingArea, blockHash, newSet)
	}

	candidate := futureCoveringSet[ancestorIndex]
	candidateIsAncestorOfFutureBlock, err := rt.IsReachabilityTreeAncestorOf(stagingArea, candidate, futureBlockHash)
	if err != nil {
		return err
	}
	if candidateIsAncestorOfFutureBlock {
		// candidate is an ancestor of futureBlockHash, meaning futureBlockHash
		// is already covered. No need to insert
		return nil
	}

	futureBlockIsAncestorOfCandidate, err := rt.IsReachabilityTreeAncestorOf(stagingArea, futureBlockHash, candidate)
	if err != nil {
		return err
	}
	if futureBlockIsAncestorOfCandidate {
		// futureBlockHash is an ancestor of candidate, meaning its interval
		// contains candidate's interval. Replace candidate with futureBlockHash
		newSet := futureCoveringSet.Clone()
		newSet[ancestorIndex] = futureBlockHash
		return rt.stageFutureCoveringSet(stagingArea, blockHash, newSet)
	}

	// Insert futureBlockHash in the correct index to maintain
	// the future covering set as a sorted set
	newSet := make(model.FutureCoveringTreeNodeSet, len(futureCoveringSet)+1)
	copy(newSet, futureCoveringSet[:ancestorIndex+1])
	newSet[ancestorIndex+1] = futureBlockHash
	copy(newSet[ancestorIndex+2:], futureCoveringSet[ancestorIndex+1:])
	return rt.stageFutureCoveringSet(stagingArea, blockHash, newSet)
}

// futureCoveringSetHasAncestorOf resolves whether the given block is in the
// subtree of any node in the future covering set of `blockHash`.
func (rt *reachabilityManager) futureCoveringSetHasAncestorOf(stagingArea *model.StagingArea,
	blockHash, futureBlockHash *externalapi.DomainHash) (bool, error) {

	futureCoveringSet, err := rt.futureCoveringSet(stagingArea, blockHash)
	if err != nil {
		return false, err
	}

	ancestorIndex, ok, err := rt.findAncestorIndexOfNode(stagingArea, futureCoveringSet, futureBlockHash)
	if err != nil {
		return false, err
	}

	if !ok {
		// No candidate segment means the set cannot cover futureBlockHash
		return false, nil
	}

	candidate := futureCoveringSet[ancestorIndex]
	return rt.IsReachabilityTreeAncestorOf(stagingArea, candidate, futureBlockHash)
}

// findAncestorOfNode finds the reachability tree ancestor of `node`
// among the nodes in `list`.
func (rt *reachabilityManager) findAncestorOfNode(stagingArea *model.StagingArea,
	list []*externalapi.DomainHash, node *externalapi.DomainHash) (*externalapi.DomainHash, bool, error) {

	ancestorIndex, ok, err := rt.findAncestorIndexOfNode(stagingArea, list, node)
	if err != nil {
		return nil, false, err
	}

	if !ok {
		return nil, false, nil
	}

	return list[ancestorIndex], true, nil
}

// findAncestorIndexOfNode finds the index of the reachability tree ancestor
// of `node` among the nodes in `list`. It does so by finding the index of the
// block with the maximum start that is below the given block.
func (rt *reachabilityManager) findAncestorIndexOfNode(stagingArea *model.StagingArea,
	list []*externalapi.DomainHash, node *externalapi.DomainHash) (int, bool, error) {

	blockInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return 0, false, err
	}

	end := blockInterval.End

	low := 0
	high := len(list)
	for low < high {
		middle := (low + high) / 2
		middleInterval, err := rt.interval(stagingArea, list[middle])
		if err != nil {
			return 0, false, err
		}

		if end <= middleInterval.Start {
			high = middle
		} else {
			low = middle + 1
		}
	}

	if low == 0 {
		return 0, false, nil
	}
	return low - 1, true, nil
}
