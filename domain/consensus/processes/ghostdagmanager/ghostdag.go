package ghostdagmanager

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/ruleerrors"
	"github.com/tos-network/tosdag/util/difficulty"
)

type blockGHOSTDAGData struct {
	blueScore          uint64
	blueWork           *big.Int
	selectedParent     *externalapi.DomainHash
	mergeSetBlues      []*externalapi.DomainHash
	mergeSetReds       []*externalapi.DomainHash
	bluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType
}

func (bg *blockGHOSTDAGData) toExternal(mergeSetNonDAA []*externalapi.DomainHash) *externalapi.BlockGHOSTDAGData {
	return externalapi.NewBlockGHOSTDAGData(bg.blueScore, bg.blueWork, bg.selectedParent,
		bg.mergeSetBlues, bg.mergeSetReds, bg.bluesAnticoneSizes, mergeSetNonDAA)
}

// GHOSTDAG runs the GHOSTDAG protocol and calculates the block BlockGHOSTDAGData by the given parents.
// The function calculates mergeset blues by iterating over the blocks in
// the anticone of the new block selected parent (which is the parent with the
// highest blue work) and adds any block to the blue set if by adding
// it these conditions will not be violated:
//
// 1) |anticone-of-candidate-block ∩ blue-set-of-newBlock| ≤ K
//
// 2) For every blue block in blue-set-of-newBlock:
//    |(anticone-of-blue-block ∩ blue-set-newBlock) ∪ {candidate-block}| ≤ K.
//    We validate this condition by maintaining a map bluesAnticoneSizes for
//    each block which holds all the blue anticone sizes that were affected by
//    the new added blue blocks.
//
// This function MUST be called in the PoW-topological order (parents before children)
func (gm *ghostdagManager) GHOSTDAG(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	blockParents, err := gm.dagTopologyManager.Parents(stagingArea, blockHash)
	if err != nil {
		return err
	}

	// The genesis block has no parents: it starts the blue set with
	// zero score and zero accumulated work.
	if len(blockParents) == 0 {
		genesisData := externalapi.NewBlockGHOSTDAGData(0, big.NewInt(0), nil,
			[]*externalapi.DomainHash{}, []*externalapi.DomainHash{},
			map[externalapi.DomainHash]externalapi.KType{}, []*externalapi.DomainHash{})
		gm.ghostdagDataStore.Stage(stagingArea, blockHash, genesisData)
		return nil
	}

	for _, parent := range blockParents {
		hasData, err := gm.ghostdagDataStore.Has(gm.databaseContext, stagingArea, parent)
		if err != nil {
			return err
		}
		if !hasData {
			return errors.Wrapf(ruleerrors.ErrMissingAncestorData,
				"block %s has no consensus data for parent %s", blockHash, parent)
		}
	}

	selectedParent, err := gm.ChooseSelectedParent(stagingArea, blockParents...)
	if err != nil {
		return err
	}

	newBlockData := &blockGHOSTDAGData{
		selectedParent:     selectedParent,
		mergeSetBlues:      make([]*externalapi.DomainHash, 0, gm.k),
		mergeSetReds:       make([]*externalapi.DomainHash, 0),
		bluesAnticoneSizes: map[externalapi.DomainHash]externalapi.KType{*selectedParent: 0},
	}

	mergeSetWithoutSelectedParent, err := gm.mergeSetWithoutSelectedParent(stagingArea, selectedParent, blockParents)
	if err != nil {
		return err
	}

	for _, blueCandidate := range mergeSetWithoutSelectedParent {
		isBlue, candidateAnticoneSize, candidateBluesAnticoneSizes, err :=
			gm.checkBlueCandidate(stagingArea, newBlockData, blueCandidate)
		if err != nil {
			return err
		}

		if isBlue {
			// No k-cluster violation found, we can now set the candidate block as blue
			newBlockData.mergeSetBlues = append(newBlockData.mergeSetBlues, blueCandidate)
			newBlockData.bluesAnticoneSizes[*blueCandidate] = candidateAnticoneSize
			for blue, blueAnticoneSize := range candidateBluesAnticoneSizes {
				newBlockData.bluesAnticoneSizes[blue] = blueAnticoneSize + 1
			}
		} else {
			newBlockData.mergeSetReds = append(newBlockData.mergeSetReds, blueCandidate)
		}
	}

	selectedParentData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return err
	}

	// The new block extends the blue set of its selected parent with itself
	// and its blue mergeset
	addedBlueScore := uint64(len(newBlockData.mergeSetBlues)) + 1
	if selectedParentData.BlueScore() > math.MaxUint64-addedBlueScore {
		return errors.Wrapf(ruleerrors.ErrBlueScoreOverflow,
			"blue score of block %s overflows uint64", blockHash)
	}
	newBlockData.blueScore = selectedParentData.BlueScore() + addedBlueScore

	blueWork, err := gm.calculateBlueWork(stagingArea, selectedParent, selectedParentData, newBlockData.mergeSetBlues)
	if err != nil {
		return err
	}
	if blueWork.BitLen() > 256 {
		return errors.Wrapf(ruleerrors.ErrBlueWorkOverflow,
			"blue work of block %s exceeds 256 bits", blockHash)
	}
	newBlockData.blueWork = blueWork

	mergeSetNonDAA, err := gm.mergeSetNonDAA(stagingArea, newBlockData)
	if err != nil {
		return err
	}

	gm.ghostdagDataStore.Stage(stagingArea, blockHash, newBlockData.toExternal(mergeSetNonDAA))
	return nil
}

// calculateBlueWork sums the work of the selected parent's blue past with the
// work of the selected parent itself and of every blue mergeset member.
func (gm *ghostdagManager) calculateBlueWork(stagingArea *model.StagingArea,
	selectedParent *externalapi.DomainHash, selectedParentData *externalapi.BlockGHOSTDAGData,
	mergeSetBlues []*externalapi.DomainHash) (*big.Int, error) {

	blueWork := new(big.Int).Set(selectedParentData.BlueWork())

	selectedParentHeader, err := gm.headerStore.BlockHeader(gm.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	blueWork.Add(blueWork, difficulty.CalcWork(selectedParentHeader.Bits()))

	for _, blue := range mergeSetBlues {
		header, err := gm.headerStore.BlockHeader(gm.databaseContext, stagingArea, blue)
		if err != nil {
			return nil, err
		}
		blueWork.Add(blueWork, difficulty.CalcWork(header.Bits()))
	}

	return blueWork, nil
}

// mergeSetNonDAA collects the mergeset members that were merged too deep
// to contribute timing information to difficulty adjustment. A member is
// excluded when its blue score trails the new block's by at least the
// difficulty adjustment window size.
func (gm *ghostdagManager) mergeSetNonDAA(stagingArea *model.StagingArea,
	newBlockData *blockGHOSTDAGData) ([]*externalapi.DomainHash, error) {

	mergeSetNonDAA := make([]*externalapi.DomainHash, 0)
	for _, mergeSetBlock := range append(newBlockData.mergeSetBlues, newBlockData.mergeSetReds...) {
		mergeSetBlockData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, mergeSetBlock)
		if err != nil {
			return nil, err
		}

		if mergeSetBlockData.BlueScore()+gm.difficultyAdjustmentWindowSize <= newBlockData.blueScore {
			mergeSetNonDAA = append(mergeSetNonDAA, mergeSetBlock)
		}
	}
	return mergeSetNonDAA, nil
}

type chainBlockData struct {
	// hash is nil for the block under construction
	hash      *externalapi.DomainHash
	blockData *blockGHOSTDAGData
}

func (gm *ghostdagManager) checkBlueCandidate(stagingArea *model.StagingArea, newBlockData *blockGHOSTDAGData,
	blueCandidate *externalapi.DomainHash) (isBlue bool, candidateAnticoneSize externalapi.KType,
	candidateBluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType, err error) {

	// The maximum length of node.blues can be K
	if externalapi.KType(len(newBlockData.mergeSetBlues)) == gm.k {
		return false, 0, nil, nil
	}

	candidateBluesAnticoneSizes = make(map[externalapi.DomainHash]externalapi.KType, gm.k)

	// Iterate over the selected parent chain of the new block until we
	// find a chain block in the past of blueCandidate
	chainBlock := chainBlockData{blockData: newBlockData}
	for {
		isBlue, isRed, err := gm.checkBlueCandidateWithChainBlock(stagingArea, newBlockData, chainBlock,
			blueCandidate, candidateBluesAnticoneSizes, &candidateAnticoneSize)
		if err != nil {
			return false, 0, nil, err
		}

		if isBlue {
			break
		}
		if isRed {
			return false, 0, nil, nil
		}

		selectedParent := chainBlock.blockData.selectedParent
		selectedParentGHOSTDAGData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, selectedParent)
		if err != nil {
			return false, 0, nil, err
		}

		chainBlock = chainBlockData{
			hash: selectedParent,
			blockData: &blockGHOSTDAGData{
				blueScore:          selectedParentGHOSTDAGData.BlueScore(),
				blueWork:           selectedParentGHOSTDAGData.BlueWork(),
				selectedParent:     selectedParentGHOSTDAGData.SelectedParent(),
				mergeSetBlues:      selectedParentGHOSTDAGData.MergeSetBlues(),
				mergeSetReds:       selectedParentGHOSTDAGData.MergeSetReds(),
				bluesAnticoneSizes: selectedParentGHOSTDAGData.BluesAnticoneSizes(),
			},
		}
	}

	return true, candidateAnticoneSize, candidateBluesAnticoneSizes, nil
}

func (gm *ghostdagManager) checkBlueCandidateWithChainBlock(stagingArea *model.StagingArea,
	newBlockData *blockGHOSTDAGData, chainBlock chainBlockData, blueCandidate *externalapi.DomainHash,
	candidateBluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType,
	candidateAnticoneSize *externalapi.KType) (isBlue, isRed bool, err error) {

	// If blueCandidate is in the future of chainBlock, it means
	// that all remaining blues are in the past of chainBlock and thus
	// in the past of blueCandidate. In this case we know for sure that
	// the anticone of blueCandidate will not exceed K, and we can mark
	// it as blue.
	//
	// The new block is always in the future of blueCandidate, so there's
	// no point in checking it.
	if chainBlock.hash != nil {
		isAncestorOfBlueCandidate, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, chainBlock.hash, blueCandidate)
		if err != nil {
			return false, false, err
		}
		if isAncestorOfBlueCandidate {
			return true, false, nil
		}

		// The chain block itself is a blue block in the anticone of
		// blueCandidate
		isRed, err = gm.checkAnticoneBlue(stagingArea, newBlockData, chainBlock.hash,
			candidateBluesAnticoneSizes, candidateAnticoneSize)
		if err != nil {
			return false, false, err
		}
		if isRed {
			return false, true, nil
		}
	}

	for _, block := range chainBlock.blockData.mergeSetBlues {
		// Skip blocks that exist in the past of blueCandidate.
		isAncestorOfBlueCandidate, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, block, blueCandidate)
		if err != nil {
			return false, false, err
		}
		if isAncestorOfBlueCandidate {
			continue
		}

		isRed, err = gm.checkAnticoneBlue(stagingArea, newBlockData, block,
			candidateBluesAnticoneSizes, candidateAnticoneSize)
		if err != nil {
			return false, false, err
		}
		if isRed {
			return false, true, nil
		}
	}

	return false, false, nil
}

// checkAnticoneBlue accounts for a single blue block found in the anticone
// of the blue candidate. It grows the candidate's anticone and verifies
// that neither the candidate's anticone nor the blue block's anticone
// would exceed K with the candidate added.
func (gm *ghostdagManager) checkAnticoneBlue(stagingArea *model.StagingArea, newBlockData *blockGHOSTDAGData,
	block *externalapi.DomainHash, candidateBluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType,
	candidateAnticoneSize *externalapi.KType) (isRed bool, err error) {

	*candidateAnticoneSize++
	if *candidateAnticoneSize > gm.k {
		// k-cluster violation: the candidate's blue anticone exceeded k
		return true, nil
	}

	blockAnticoneSize, err := gm.blueAnticoneSize(stagingArea, block, newBlockData)
	if err != nil {
		return false, err
	}
	candidateBluesAnticoneSizes[*block] = blockAnticoneSize

	if blockAnticoneSize == gm.k {
		// k-cluster violation: a block in candidate's blue anticone already
		// has k blue blocks in its own anticone
		return true, nil
	}

	// This is a sanity check that validates that a blue
	// block's anticone is not already larger than K.
	if blockAnticoneSize > gm.k {
		return false, errors.Errorf("found blue anticone size larger than k")
	}

	return false, nil
}

// blueAnticoneSize returns the blue anticone size of 'block' from the
// worldview of 'context'. Expects 'block' to be in the blue set of
// 'context'.
func (gm *ghostdagManager) blueAnticoneSize(stagingArea *model.StagingArea,
	block *externalapi.DomainHash, context *blockGHOSTDAGData) (externalapi.KType, error) {

	if blueAnticoneSize, ok := context.bluesAnticoneSizes[*block]; ok {
		return blueAnticoneSize, nil
	}

	current := context.selectedParent
	for current != nil {
		currentData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, current)
		if err != nil {
			return 0, err
		}

		if blueAnticoneSize, ok := currentData.BluesAnticoneSizes()[*block]; ok {
			return blueAnticoneSize, nil
		}

		current = currentData.SelectedParent()
	}

	return 0, errors.Errorf("block %s is not in blue set of the given context", block)
}
