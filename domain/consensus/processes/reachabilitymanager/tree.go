package reachabilitymanager

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/ruleerrors"
	"github.com/tos-network/tosdag/domain/consensus/utils/reachabilitydata"
)

var (
	// defaultReindexWindow is the default target window size for reachability
	// reindexes. Note that this is not a constant for testing purposes.
	defaultReindexWindow uint64 = 200

	// defaultReindexSlack is default the slack interval given to reachability
	// tree nodes not in the selected parent chain. Note that this is not
	// a constant for testing purposes.
	defaultReindexSlack uint64 = 1 << 12

	// slackReachabilityIntervalForReclaiming is the slack interval to
	// reclaim during reachability reindexes earlier than the reindex root.
	// See reclaimIntervalBeforeChosenChild for further details. Note that
	// this is not a constant for testing purposes.
	slackReachabilityIntervalForReclaiming uint64 = 1
)

// exponentialFractions returns a fraction of each size in sizes
// as follows:
//   fraction[i] = 2^size[i] / sum_j(2^size[j])
// In the code below the above equation is divided by 2^max(size)
// to avoid exploding numbers. Note that in 1 / 2^(max(size)-size[i])
// we divide 1 by potentially a very large number, which will
// result in loss of float precision. This is not a problem - all
// numbers close to 0 bear effectively the same weight.
func exponentialFractions(sizes []uint64) []float64 {
	maxSize := uint64(0)
	for _, size := range sizes {
		if size > maxSize {
			maxSize = size
		}
	}
	fractions := make([]float64, len(sizes))
	for i, size := range sizes {
		fractions[i] = 1 / math.Pow(2, float64(maxSize-size))
	}
	fractionsSum := float64(0)
	for _, fraction := range fractions {
		fractionsSum += fraction
	}
	for i, fraction := range fractions {
		fractions[i] = fraction / fractionsSum
	}
	return fractions
}

// newReachabilityTreeData returns the initial data of the tree root: the
// entire half-open interval [0, 2^64-2). The last unit is withheld so the
// root's interval strictly contains the intervals of all its descendants.
func newReachabilityTreeData() model.ReachabilityData {
	interval := newReachabilityInterval(0, math.MaxUint64-1)
	data := reachabilitydata.EmptyReachabilityData()
	data.SetInterval(interval)

	return data
}

func (rt *reachabilityManager) intervalRangeForChildAllocation(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	interval, err := rt.interval(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	// We subtract 1 from the end of the range to prevent the node from allocating
	// the entire interval to its child, so its interval would *strictly* contain
	// the interval of its child.
	return newReachabilityInterval(interval.Start, interval.End-1), nil
}

func (rt *reachabilityManager) remainingIntervalBefore(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	childRange, err := rt.intervalRangeForChildAllocation(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	children, err := rt.children(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	if len(children) == 0 {
		return childRange, nil
	}

	firstChildInterval, err := rt.interval(stagingArea, children[0])
	if err != nil {
		return nil, err
	}

	return newReachabilityInterval(childRange.Start, firstChildInterval.Start), nil
}

func (rt *reachabilityManager) remainingIntervalAfter(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	childRange, err := rt.intervalRangeForChildAllocation(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	children, err := rt.children(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	if len(children) == 0 {
		return childRange, nil
	}

	lastChildInterval, err := rt.interval(stagingArea, children[len(children)-1])
	if err != nil {
		return nil, err
	}

	return newReachabilityInterval(lastChildInterval.End, childRange.End), nil
}

func (rt *reachabilityManager) hasSlackIntervalBefore(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	interval, err := rt.remainingIntervalBefore(stagingArea, blockHash)
	if err != nil {
		return false, err
	}

	return intervalSize(interval) > 0, nil
}

func (rt *reachabilityManager) hasSlackIntervalAfter(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	interval, err := rt.remainingIntervalAfter(stagingArea, blockHash)
	if err != nil {
		return false, err
	}

	return intervalSize(interval) > 0, nil
}

// addChild adds child to this tree node. If this node has no
// remaining interval to allocate, a reindexing is triggered.
func (rt *reachabilityManager) addChild(stagingArea *model.StagingArea,
	node, child, reindexRoot *externalapi.DomainHash) error {

	remaining, err := rt.remainingIntervalAfter(stagingArea, node)
	if err != nil {
		return err
	}

	// Set the parent-child relationship
	err = rt.stageAddChild(stagingArea, node, child)
	if err != nil {
		return err
	}

	err = rt.stageParent(stagingArea, child, node)
	if err != nil {
		return err
	}

	// Temporarily set the child's interval to be empty, at
	// the start of node's remaining interval. This is done
	// so that child-of-node checks (e.g.
	// findAncestorOfThisAmongChildrenOfOther) will not fail for node.
	err = rt.stageInterval(stagingArea, child, newReachabilityInterval(remaining.Start, remaining.Start))
	if err != nil {
		return err
	}

	// Handle node not being a descendant of the reindex root.
	// Note that we check node here instead of child because
	// at this point we don't yet know child's interval.
	isReindexRootAncestorOfNode, err := rt.IsReachabilityTreeAncestorOf(stagingArea, reindexRoot, node)
	if err != nil {
		return err
	}

	if !isReindexRootAncestorOfNode {
		reindexStartTime := time.Now()
		err := rt.reindexIntervalsEarlierThanReindexRoot(stagingArea, node, reindexRoot)
		if err != nil {
			return err
		}
		reindexTimeElapsed := time.Since(reindexStartTime)
		log.Debugf("Reachability reindex triggered for "+
			"block %s. This block is not a child of the current "+
			"reindex root %s. Took %dms.",
			node, reindexRoot, reindexTimeElapsed.Milliseconds())
		return nil
	}

	// No allocation space left -- reindex
	if intervalSize(remaining) == 0 {
		reindexStartTime := time.Now()
		err := rt.reindexIntervals(stagingArea, node)
		if err != nil {
			return err
		}
		reindexTimeElapsed := time.Since(reindexStartTime)
		log.Debugf("Reachability reindex triggered for "+
			"block %s. Took %dms.",
			node, reindexTimeElapsed.Milliseconds())
		return nil
	}

	// Allocate from the remaining space
	allocated, _, err := intervalSplitInHalf(remaining)
	if err != nil {
		return err
	}

	return rt.stageInterval(stagingArea, child, allocated)
}

// reindexIntervals traverses the reachability subtree that's
// defined by this node and reallocates reachability interval space
// such that another reindexing is unlikely to occur shortly
// thereafter. It does this by traversing down the reachability
// tree until it finds a node with a subtree size that's greater than
// its interval size. See propagateInterval for further details.
func (rt *reachabilityManager) reindexIntervals(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) error {

	current := blockHash

	// Initial interval and subtree sizes
	currentInterval, err := rt.interval(stagingArea, current)
	if err != nil {
		return err
	}

	size := intervalSize(currentInterval)
	subTreeSizeMap := make(map[externalapi.DomainHash]uint64)
	err = rt.countSubtrees(stagingArea, current, subTreeSizeMap)
	if err != nil {
		return err
	}

	currentSubtreeSize := subTreeSizeMap[*current]

	// Find the first ancestor that has sufficient interval space
	for size < currentSubtreeSize {
		currentParent, err := rt.parent(stagingArea, current)
		if err != nil {
			return err
		}

		if currentParent == nil {
			// If we ended up here it means that there are more
			// than 2^64 blocks, which shouldn't ever happen.
			return errors.Wrapf(ruleerrors.ErrReindexCapacityExceeded,
				"missing tree parent during reindexing")
		}
		current = currentParent
		currentInterval, err := rt.interval(stagingArea, current)
		if err != nil {
			return err
		}

		size = intervalSize(currentInterval)
		err = rt.countSubtrees(stagingArea, current, subTreeSizeMap)
		if err != nil {
			return err
		}

		currentSubtreeSize = subTreeSizeMap[*current]
	}

	// Propagate the interval to the subtree
	return rt.propagateInterval(stagingArea, current, subTreeSizeMap)
}

// countSubtrees counts the size of each subtree under this node,
// and populates the provided subTreeSizeMap with the results.
// It is equivalent to the following recursive implementation:
//
// func (rt *reachabilityManager) countSubtrees(node *hash) uint64 {
//     subtreeSize := uint64(0)
//     for _, child := range node.children {
//         subtreeSize += child.countSubtrees()
//     }
//     return subtreeSize + 1
// }
//
// However, we are expecting (linearly) deep trees, and so a
// recursive stack-based approach is inefficient and will hit
// recursion limits. Instead, the same logic was implemented
// using a (queue-based) BFS method. At a high level, the
// algorithm uses BFS for reaching all leaves and pushes
// intermediate updates from leaves via parent chains until all
// size information is gathered at the root of the operation
// (i.e. at node).
func (rt *reachabilityManager) countSubtrees(stagingArea *model.StagingArea,
	node *externalapi.DomainHash, subTreeSizeMap map[externalapi.DomainHash]uint64) error {

	queue := []*externalapi.DomainHash{node}
	calculatedChildrenCount := make(map[externalapi.DomainHash]uint64)
	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]
		currentChildren, err := rt.children(stagingArea, current)
		if err != nil {
			return err
		}

		if len(currentChildren) == 0 {
			// We reached a leaf
			subTreeSizeMap[*current] = 1
		} else if _, ok := subTreeSizeMap[*current]; !ok {
			// We haven't yet calculated the subtree size of
			// the current node. Add all its children to the
			// queue
			queue = append(queue, currentChildren...)
			continue
		}

		// We reached a leaf or a pre-calculated subtree.
		// Push information up
		for !current.Equal(node) {
			current, err = rt.parent(stagingArea, current)
			if err != nil {
				return err
			}

			// If the current is now nil, it means that the previous
			// `current` was the genesis block -- the only block that
			// does not have parents
			if current == nil {
				break
			}

			calculatedChildrenCount[*current]++

			currentChildren, err := rt.children(stagingArea, current)
			if err != nil {
				return err
			}

			if calculatedChildrenCount[*current] != uint64(len(currentChildren)) {
				// Not all subtrees of the current node are ready
				break
			}
			// All children of `current` have calculated their subtree size.
			// Sum them all together and add 1 to get the sub tree size of
			// `current`.
			childSubtreeSizeSum := uint64(0)
			for _, child := range currentChildren {
				childSubtreeSizeSum += subTreeSizeMap[*child]
			}
			subTreeSizeMap[*current] = childSubtreeSizeSum + 1
		}
	}

	return nil
}

// propagateInterval propagates the new interval using a BFS traversal.
// Subtree intervals are recursively allocated according to subtree sizes and
// the allocation rule in intervalSplitWithExponentialBias.
func (rt *reachabilityManager) propagateInterval(stagingArea *model.StagingArea,
	node *externalapi.DomainHash, subTreeSizeMap map[externalapi.DomainHash]uint64) error {

	queue := []*externalapi.DomainHash{node}
	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		currentChildren, err := rt.children(stagingArea, current)
		if err != nil {
			return err
		}

		if len(currentChildren) > 0 {
			sizes := make([]uint64, len(currentChildren))
			for i, child := range currentChildren {
				sizes[i] = subTreeSizeMap[*child]
			}

			interval, err := rt.intervalRangeForChildAllocation(stagingArea, current)
			if err != nil {
				return err
			}

			intervals, err := intervalSplitWithExponentialBias(interval, sizes)
			if err != nil {
				return err
			}
			for i, child := range currentChildren {
				childInterval := intervals[i]
				err = rt.stageInterval(stagingArea, child, childInterval)
				if err != nil {
					return err
				}
				queue = append(queue, child)
			}
		}
	}
	return nil
}

func (rt *reachabilityManager) reindexIntervalsEarlierThanReindexRoot(stagingArea *model.StagingArea,
	node, reindexRoot *externalapi.DomainHash) error {

	// Find the common ancestor for both node and the reindex root
	commonAncestor, err := rt.findCommonAncestorWithReindexRoot(stagingArea, node, reindexRoot)
	if err != nil {
		return err
	}

	// The chosen child is:
	// a. A reachability tree child of `commonAncestor`
	// b. A reachability tree ancestor of `reindexRoot`
	commonAncestorChosenChild, err := rt.findAncestorOfThisAmongChildrenOfOther(stagingArea, reindexRoot, commonAncestor)
	if err != nil {
		return err
	}

	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return err
	}

	commonAncestorChosenChildInterval, err := rt.interval(stagingArea, commonAncestorChosenChild)
	if err != nil {
		return err
	}

	if nodeInterval.End <= commonAncestorChosenChildInterval.Start {
		// node is in the subtree before the chosen child
		return rt.reclaimIntervalBeforeChosenChild(stagingArea, node, commonAncestor,
			commonAncestorChosenChild, reindexRoot)
	}

	// node is either:
	// * in the subtree after the chosen child
	// * the common ancestor
	// In both cases we reclaim from the "after" subtree. In the
	// latter case this is arbitrary
	return rt.reclaimIntervalAfterChosenChild(stagingArea, node, commonAncestor,
		commonAncestorChosenChild, reindexRoot)
}

func (rt *reachabilityManager) reclaimIntervalBeforeChosenChild(stagingArea *model.StagingArea,
	node, commonAncestor, commonAncestorChosenChild, reindexRoot *externalapi.DomainHash) error {

	current := commonAncestorChosenChild

	commonAncestorChosenChildHasSlackIntervalBefore, err := rt.hasSlackIntervalBefore(stagingArea, commonAncestorChosenChild)
	if err != nil {
		return err
	}

	if !commonAncestorChosenChildHasSlackIntervalBefore {
		// The common ancestor ran out of slack before its chosen child.
		// Climb up the reachability tree toward the reindex root until
		// we find a node that has enough slack.
		for {
			currentHasSlackIntervalBefore, err := rt.hasSlackIntervalBefore(stagingArea, current)
			if err != nil {
				return err
			}

			if currentHasSlackIntervalBefore || current.Equal(reindexRoot) {
				break
			}

			current, err = rt.findAncestorOfThisAmongChildrenOfOther(stagingArea, reindexRoot, current)
			if err != nil {
				return err
			}
		}

		if current.Equal(reindexRoot) {
			// "Deallocate" an interval of slackReachabilityIntervalForReclaiming
			// from this node. This is the interval that we'll use for the new
			// node.
			originalInterval, err := rt.interval(stagingArea, current)
			if err != nil {
				return err
			}

			err = rt.stageInterval(stagingArea, current, newReachabilityInterval(
				originalInterval.Start+slackReachabilityIntervalForReclaiming,
				originalInterval.End,
			))
			if err != nil {
				return err
			}

			err = rt.countSubtreesAndPropagateInterval(stagingArea, current)
			if err != nil {
				return err
			}

			err = rt.stageInterval(stagingArea, current, originalInterval)
			if err != nil {
				return err
			}
		}
	}

	// Go down the reachability tree towards the common ancestor.
	// On every hop we reindex the reachability subtree before the
	// current node with an interval that is smaller by
	// slackReachabilityIntervalForReclaiming. This is to make room
	// for the new node.
	for !current.Equal(commonAncestor) {
		currentInterval, err := rt.interval(stagingArea, current)
		if err != nil {
			return err
		}

		err = rt.stageInterval(stagingArea, current, newReachabilityInterval(
			currentInterval.Start+slackReachabilityIntervalForReclaiming,
			currentInterval.End,
		))
		if err != nil {
			return err
		}

		currentParent, err := rt.parent(stagingArea, current)
		if err != nil {
			return err
		}

		err = rt.reindexIntervalsBeforeNode(stagingArea, currentParent, current)
		if err != nil {
			return err
		}
		current = currentParent
	}

	return nil
}

// reindexIntervalsBeforeNode applies a tight interval to the reachability
// subtree before `node`. Note that `node` itself is unaffected.
func (rt *reachabilityManager) reindexIntervalsBeforeNode(stagingArea *model.StagingArea,
	parent, node *externalapi.DomainHash) error {

	childrenBeforeNode, _, err := rt.splitChildrenAroundChild(stagingArea, parent, node)
	if err != nil {
		return err
	}

	childrenBeforeNodeSizes, childrenBeforeNodeSubtreeSizeMaps, childrenBeforeNodeSizesSum, err :=
		rt.calcReachabilityTreeNodeSizes(stagingArea, childrenBeforeNode)
	if err != nil {
		return err
	}

	// Apply a tight interval
	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return err
	}

	newIntervalEnd := nodeInterval.Start
	newInterval := newReachabilityInterval(newIntervalEnd-childrenBeforeNodeSizesSum, newIntervalEnd)
	intervals, err := intervalSplitExact(newInterval, childrenBeforeNodeSizes)
	if err != nil {
		return err
	}
	return rt.propagateIntervals(stagingArea, childrenBeforeNode, intervals, childrenBeforeNodeSubtreeSizeMaps)
}

func (rt *reachabilityManager) reclaimIntervalAfterChosenChild(stagingArea *model.StagingArea,
	node, commonAncestor, commonAncestorChosenChild, reindexRoot *externalapi.DomainHash) error {

	current := commonAncestorChosenChild
	commonAncestorChosenChildHasSlackIntervalAfter, err := rt.hasSlackIntervalAfter(stagingArea, commonAncestorChosenChild)
	if err != nil {
		return err
	}

	if !commonAncestorChosenChildHasSlackIntervalAfter {
		// The common ancestor ran out of slack after its chosen child.
		// Climb up the reachability tree toward the reindex root until
		// we find a node that has enough slack.
		for {
			currentHasSlackIntervalAfter, err := rt.hasSlackIntervalAfter(stagingArea, current)
			if err != nil {
				return err
			}

			if currentHasSlackIntervalAfter || current.Equal(reindexRoot) {
				break
			}

			current, err = rt.findAncestorOfThisAmongChildrenOfOther(stagingArea, reindexRoot, current)
			if err != nil {
				return err
			}
		}

		if current.Equal(reindexRoot) {
			// "Deallocate" an interval of slackReachabilityIntervalForReclaiming
			// from this node. This is the interval that we'll use for the new
			// node.
			originalInterval, err := rt.interval(stagingArea, current)
			if err != nil {
				return err
			}

			err = rt.stageInterval(stagingArea, current, newReachabilityInterval(
				originalInterval.Start,
				originalInterval.End-slackReachabilityIntervalForReclaiming,
			))
			if err != nil {
				return err
			}

			err = rt.countSubtreesAndPropagateInterval(stagingArea, current)
			if err != nil {
				return err
			}

			err = rt.stageInterval(stagingArea, current, originalInterval)
			if err != nil {
				return err
			}
		}
	}

	// Go down the reachability tree towards the common ancestor.
	// On every hop we reindex the reachability subtree after the
	// current node with an interval that is smaller by
	// slackReachabilityIntervalForReclaiming. This is to make room
	// for the new node.
	for !current.Equal(commonAncestor) {
		currentInterval, err := rt.interval(stagingArea, current)
		if err != nil {
			return err
		}

		err = rt.stageInterval(stagingArea, current, newReachabilityInterval(
			currentInterval.Start,
			currentInterval.End-slackReachabilityIntervalForReclaiming,
		))
		if err != nil {
			return err
		}

		currentParent, err := rt.parent(stagingArea, current)
		if err != nil {
			return err
		}

		err = rt.reindexIntervalsAfterNode(stagingArea, currentParent, current)
		if err != nil {
			return err
		}
		current = currentParent
	}

	return nil
}

// reindexIntervalsAfterNode applies a tight interval to the reachability
// subtree after `node`. Note that `node` itself is unaffected.
func (rt *reachabilityManager) reindexIntervalsAfterNode(stagingArea *model.StagingArea,
	parent, node *externalapi.DomainHash) error {

	_, childrenAfterNode, err := rt.splitChildrenAroundChild(stagingArea, parent, node)
	if err != nil {
		return err
	}

	childrenAfterNodeSizes, childrenAfterNodeSubtreeSizeMaps, childrenAfterNodeSizesSum, err :=
		rt.calcReachabilityTreeNodeSizes(stagingArea, childrenAfterNode)
	if err != nil {
		return err
	}

	// Apply a tight interval
	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return err
	}

	newIntervalStart := nodeInterval.End
	newInterval := newReachabilityInterval(newIntervalStart, newIntervalStart+childrenAfterNodeSizesSum)
	intervals, err := intervalSplitExact(newInterval, childrenAfterNodeSizes)
	if err != nil {
		return err
	}
	return rt.propagateIntervals(stagingArea, childrenAfterNode, intervals, childrenAfterNodeSubtreeSizeMaps)
}

// IsReachabilityTreeAncestorOf checks if this node is a reachability tree ancestor
// of the other node. Note that we use the graph theory convention
// here which defines that node is also an ancestor of itself.
func (rt *reachabilityManager) IsReachabilityTreeAncestorOf(stagingArea *model.StagingArea,
	node, other *externalapi.DomainHash) (bool, error) {

	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return false, err
	}

	otherInterval, err := rt.interval(stagingArea, other)
	if err != nil {
		return false, err
	}

	return intervalContains(nodeInterval, otherInterval), nil
}

// findCommonAncestorWithReindexRoot finds the most recent reachability
// tree ancestor common to both node and the given reindex root. Note
// that we assume that almost always the chain between the reindex root
// and the common ancestor is longer than the chain between node and the
// common ancestor.
func (rt *reachabilityManager) findCommonAncestorWithReindexRoot(stagingArea *model.StagingArea,
	node, reindexRoot *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	currentThis := node
	for {
		isAncestorOf, err := rt.IsReachabilityTreeAncestorOf(stagingArea, currentThis, reindexRoot)
		if err != nil {
			return nil, err
		}

		if isAncestorOf {
			return currentThis, nil
		}

		currentThis, err = rt.parent(stagingArea, currentThis)
		if err != nil {
			return nil, err
		}
	}
}

// String returns a string representation of a reachability tree node
// and its children.
func (rt *reachabilityManager) String(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) (string, error) {

	queue := []*externalapi.DomainHash{node}
	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return "", err
	}

	lines := []string{nodeInterval.String()}
	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]
		currentChildren, err := rt.children(stagingArea, current)
		if err != nil {
			return "", err
		}

		if len(currentChildren) == 0 {
			continue
		}

		line := ""
		for _, child := range currentChildren {
			childInterval, err := rt.interval(stagingArea, child)
			if err != nil {
				return "", err
			}

			line += childInterval.String()
			queue = append(queue, child)
		}
		lines = append([]string{line}, lines...)
	}
	return strings.Join(lines, "\n"), nil
}

// updateReindexRoot advances the reindex root along the selected parent
// chain whenever the new tree node is deep enough past the current root.
func (rt *reachabilityManager) updateReindexRoot(stagingArea *model.StagingArea,
	newTreeNode *externalapi.DomainHash) error {

	nextReindexRoot, err := rt.reindexRoot(stagingArea)
	if err != nil {
		return err
	}

	for {
		candidateReindexRoot, found, err := rt.maybeMoveReindexRoot(stagingArea, nextReindexRoot, newTreeNode)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		nextReindexRoot = candidateReindexRoot
	}

	rt.stageReindexRoot(stagingArea, nextReindexRoot)
	return nil
}

func (rt *reachabilityManager) maybeMoveReindexRoot(stagingArea *model.StagingArea,
	reindexRoot, newTreeNode *externalapi.DomainHash) (
	newReindexRoot *externalapi.DomainHash, found bool, err error) {

	isAncestorOf, err := rt.IsReachabilityTreeAncestorOf(stagingArea, reindexRoot, newTreeNode)
	if err != nil {
		return nil, false, err
	}
	if !isAncestorOf {
		commonAncestor, err := rt.findCommonAncestorWithReindexRoot(stagingArea, newTreeNode, reindexRoot)
		if err != nil {
			return nil, false, err
		}

		return commonAncestor, true, nil
	}

	reindexRootChosenChild, err := rt.findAncestorOfThisAmongChildrenOfOther(stagingArea, newTreeNode, reindexRoot)
	if err != nil {
		return nil, false, err
	}

	newTreeNodeGHOSTDAGData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, newTreeNode)
	if err != nil {
		return nil, false, err
	}

	reindexRootChosenChildGHOSTDAGData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, reindexRootChosenChild)
	if err != nil {
		return nil, false, err
	}

	if newTreeNodeGHOSTDAGData.BlueScore()-reindexRootChosenChildGHOSTDAGData.BlueScore() < rt.reindexWindow {
		return nil, false, nil
	}

	err = rt.concentrateIntervalAroundReindexRootChosenChild(stagingArea, reindexRoot, reindexRootChosenChild)
	if err != nil {
		return nil, false, err
	}

	return reindexRootChosenChild, true, nil
}

// findAncestorOfThisAmongChildrenOfOther finds the reachability tree child
// of `other` that is an ancestor of `this`.
func (rt *reachabilityManager) findAncestorOfThisAmongChildrenOfOther(stagingArea *model.StagingArea,
	this, other *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	otherChildren, err := rt.children(stagingArea, other)
	if err != nil {
		return nil, err
	}

	ancestor, ok, err := rt.findAncestorOfNode(stagingArea, otherChildren, this)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("node is not an ancestor of this")
	}

	return ancestor, nil
}

func (rt *reachabilityManager) concentrateIntervalAroundReindexRootChosenChild(stagingArea *model.StagingArea,
	reindexRoot, reindexRootChosenChild *externalapi.DomainHash) error {

	reindexRootChildNodesBeforeChosen, reindexRootChildNodesAfterChosen, err :=
		rt.splitChildrenAroundChild(stagingArea, reindexRoot, reindexRootChosenChild)
	if err != nil {
		return err
	}

	reindexRootChildNodesBeforeChosenSizesSum, err :=
		rt.tightenIntervalsBeforeReindexRootChosenChild(stagingArea, reindexRoot, reindexRootChildNodesBeforeChosen)
	if err != nil {
		return err
	}

	reindexRootChildNodesAfterChosenSizesSum, err :=
		rt.tightenIntervalsAfterReindexRootChosenChild(stagingArea, reindexRoot, reindexRootChildNodesAfterChosen)
	if err != nil {
		return err
	}

	return rt.expandIntervalInReindexRootChosenChild(stagingArea, reindexRoot, reindexRootChosenChild,
		reindexRootChildNodesBeforeChosenSizesSum, reindexRootChildNodesAfterChosenSizesSum)
}

// splitChildrenAroundChild splits the children of `node` into two slices:
// the nodes that are before `child` and the nodes that are after.
func (rt *reachabilityManager) splitChildrenAroundChild(stagingArea *model.StagingArea,
	node, child *externalapi.DomainHash) (
	nodesBeforeChild, nodesAfterChild []*externalapi.DomainHash, err error) {

	nodeChildren, err := rt.children(stagingArea, node)
	if err != nil {
		return nil, nil, err
	}

	for i, candidateChild := range nodeChildren {
		if candidateChild.Equal(child) {
			return nodeChildren[:i], nodeChildren[i+1:], nil
		}
	}
	return nil, nil, errors.Errorf("child not a child of node")
}

func (rt *reachabilityManager) tightenIntervalsBeforeReindexRootChosenChild(stagingArea *model.StagingArea,
	reindexRoot *externalapi.DomainHash,
	reindexRootChildNodesBeforeChosen []*externalapi.DomainHash) (
	reindexRootChildNodesBeforeChosenSizesSum uint64, err error) {

	reindexRootChildNodesBeforeChosenSizes, reindexRootChildNodesBeforeChosenSubtreeSizeMaps,
		reindexRootChildNodesBeforeChosenSizesSum, err :=
		rt.calcReachabilityTreeNodeSizes(stagingArea, reindexRootChildNodesBeforeChosen)
	if err != nil {
		return 0, err
	}

	reindexRootInterval, err := rt.interval(stagingArea, reindexRoot)
	if err != nil {
		return 0, err
	}

	intervalBeforeReindexRootStart := newReachabilityInterval(
		reindexRootInterval.Start+rt.reindexSlack,
		reindexRootInterval.Start+rt.reindexSlack+reindexRootChildNodesBeforeChosenSizesSum,
	)

	err = rt.propagateChildIntervals(stagingArea, intervalBeforeReindexRootStart, reindexRootChildNodesBeforeChosen,
		reindexRootChildNodesBeforeChosenSizes, reindexRootChildNodesBeforeChosenSubtreeSizeMaps)
	if err != nil {
		return 0, err
	}
	return reindexRootChildNodesBeforeChosenSizesSum, nil
}

func (rt *reachabilityManager) tightenIntervalsAfterReindexRootChosenChild(stagingArea *model.StagingArea,
	reindexRoot *externalapi.DomainHash,
	reindexRootChildNodesAfterChosen []*externalapi.DomainHash) (
	reindexRootChildNodesAfterChosenSizesSum uint64, err error) {

	reindexRootChildNodesAfterChosenSizes, reindexRootChildNodesAfterChosenSubtreeSizeMaps,
		reindexRootChildNodesAfterChosenSizesSum, err :=
		rt.calcReachabilityTreeNodeSizes(stagingArea, reindexRootChildNodesAfterChosen)
	if err != nil {
		return 0, err
	}

	reindexRootInterval, err := rt.interval(stagingArea, reindexRoot)
	if err != nil {
		return 0, err
	}

	intervalAfterReindexRootEnd := newReachabilityInterval(
		reindexRootInterval.End-1-rt.reindexSlack-reindexRootChildNodesAfterChosenSizesSum,
		reindexRootInterval.End-1-rt.reindexSlack,
	)

	err = rt.propagateChildIntervals(stagingArea, intervalAfterReindexRootEnd, reindexRootChildNodesAfterChosen,
		reindexRootChildNodesAfterChosenSizes, reindexRootChildNodesAfterChosenSubtreeSizeMaps)
	if err != nil {
		return 0, err
	}
	return reindexRootChildNodesAfterChosenSizesSum, nil
}

func (rt *reachabilityManager) expandIntervalInReindexRootChosenChild(stagingArea *model.StagingArea,
	reindexRoot, reindexRootChosenChild *externalapi.DomainHash,
	reindexRootChildNodesBeforeChosenSizesSum uint64,
	reindexRootChildNodesAfterChosenSizesSum uint64) error {

	reindexRootInterval, err := rt.interval(stagingArea, reindexRoot)
	if err != nil {
		return err
	}

	newReindexRootChildInterval := newReachabilityInterval(
		reindexRootInterval.Start+reindexRootChildNodesBeforeChosenSizesSum+rt.reindexSlack,
		reindexRootInterval.End-1-reindexRootChildNodesAfterChosenSizesSum-rt.reindexSlack,
	)

	reindexRootChosenChildInterval, err := rt.interval(stagingArea, reindexRootChosenChild)
	if err != nil {
		return err
	}

	if !intervalContains(newReindexRootChildInterval, reindexRootChosenChildInterval) {
		// New interval doesn't contain the previous one, propagation is required

		// We assign slack on both sides as an optimization. Were we to
		// assign a tight interval, the next time the reindex root moves we
		// would need to propagate intervals again. That is to say, when we
		// DO allocate slack, next time
		// expandIntervalInReindexRootChosenChild is called (next time the
		// reindex root moves), newReindexRootChildInterval is likely to
		// contain reindexRootChosenChild.Interval.
		err := rt.stageInterval(stagingArea, reindexRootChosenChild, newReachabilityInterval(
			newReindexRootChildInterval.Start+rt.reindexSlack,
			newReindexRootChildInterval.End-rt.reindexSlack,
		))
		if err != nil {
			return err
		}

		err = rt.countSubtreesAndPropagateInterval(stagingArea, reindexRootChosenChild)
		if err != nil {
			return err
		}
	}

	return rt.stageInterval(stagingArea, reindexRootChosenChild, newReindexRootChildInterval)
}

func (rt *reachabilityManager) countSubtreesAndPropagateInterval(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) error {

	subtreeSizeMap := make(map[externalapi.DomainHash]uint64)
	err := rt.countSubtrees(stagingArea, node, subtreeSizeMap)
	if err != nil {
		return err
	}

	return rt.propagateInterval(stagingArea, node, subtreeSizeMap)
}

func (rt *reachabilityManager) calcReachabilityTreeNodeSizes(stagingArea *model.StagingArea,
	treeNodes []*externalapi.DomainHash) (
	sizes []uint64, subtreeSizeMaps []map[externalapi.DomainHash]uint64, sum uint64, err error) {

	sizes = make([]uint64, len(treeNodes))
	subtreeSizeMaps = make([]map[externalapi.DomainHash]uint64, len(treeNodes))
	sum = 0
	for i, node := range treeNodes {
		subtreeSizeMap := make(map[externalapi.DomainHash]uint64)
		err := rt.countSubtrees(stagingArea, node, subtreeSizeMap)
		if err != nil {
			return nil, nil, 0, err
		}

		subtreeSize := subtreeSizeMap[*node]
		sizes[i] = subtreeSize
		subtreeSizeMaps[i] = subtreeSizeMap
		sum += subtreeSize
	}
	return sizes, subtreeSizeMaps, sum, nil
}

func (rt *reachabilityManager) propagateIntervals(stagingArea *model.StagingArea,
	treeNodes []*externalapi.DomainHash, intervals []*model.ReachabilityInterval,
	subtreeSizeMaps []map[externalapi.DomainHash]uint64) error {

	for i, node := range treeNodes {
		err := rt.stageInterval(stagingArea, node, intervals[i])
		if err != nil {
			return err
		}

		err = rt.propagateInterval(stagingArea, node, subtreeSizeMaps[i])
		if err != nil {
			return err
		}
	}

	return nil
}

func (rt *reachabilityManager) propagateChildIntervals(stagingArea *model.StagingArea,
	interval *model.ReachabilityInterval, childNodes []*externalapi.DomainHash,
	sizes []uint64, subtreeSizeMaps []map[externalapi.DomainHash]uint64) error {

	childIntervalSizes, err := intervalSplitExact(interval, sizes)
	if err != nil {
		return err
	}

	return rt.propagateIntervals(stagingArea, childNodes, childIntervalSizes, subtreeSizeMaps)
}
