package difficultymanager

import (
	"math/big"
	"time"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/util/difficulty"
)

// difficultyManager provides a method to resolve the
// difficulty value of a block
type difficultyManager struct {
	databaseContext   model.DBReader
	ghostdagDataStore model.GHOSTDAGDataStore
	headerStore       model.BlockHeaderStore

	powMax                         *big.Int
	genesisBits                    uint32
	difficultyAdjustmentWindowSize uint64
	maxDifficultyAdjustmentFactor  uint64
	targetTimePerBlock             time.Duration
}

// New instantiates a new DifficultyManager
func New(
	databaseContext model.DBReader,
	ghostdagDataStore model.GHOSTDAGDataStore,
	headerStore model.BlockHeaderStore,
	powMax *big.Int,
	genesisBits uint32,
	difficultyAdjustmentWindowSize uint64,
	maxDifficultyAdjustmentFactor uint64,
	targetTimePerBlock time.Duration) model.DifficultyManager {

	return &difficultyManager{
		databaseContext:                databaseContext,
		ghostdagDataStore:              ghostdagDataStore,
		headerStore:                    headerStore,
		powMax:                         powMax,
		genesisBits:                    genesisBits,
		difficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,
		maxDifficultyAdjustmentFactor:  maxDifficultyAdjustmentFactor,
		targetTimePerBlock:             targetTimePerBlock,
	}
}

// RequiredDifficulty returns the difficulty bits required for a block
// pointing at the given tip.
//
// The adjustment takes a window of blue blocks gathered along the
// selected-parent chain from the tip, and scales the window's average
// target by the ratio between the observed window timespan and the
// expected one. The per-step adjustment is clamped to
// maxDifficultyAdjustmentFactor in both directions, and the result never
// exceeds powMax.
//
// Note: the window walk orders blocks by the selected-parent chain and
// uses blue score as the depth proxy. A dedicated DAA score is a known,
// deliberate simplification of this design.
func (dm *difficultyManager) RequiredDifficulty(stagingArea *model.StagingArea,
	tipHash *externalapi.DomainHash) (uint32, error) {

	// We need windowSize + 1 blocks to get windowSize timespans
	targetsWindow, windowIsFull, err := dm.blueBlockWindow(stagingArea, tipHash, dm.difficultyAdjustmentWindowSize+1)
	if err != nil {
		return 0, err
	}

	// Not enough blue history to adjust: keep the genesis difficulty.
	if !windowIsFull {
		return dm.genesisBits, nil
	}

	windowMinTimestamp, windowMaxTimeStamp := targetsWindow.minMaxTimestamps()

	// Remove the last block from the window so to calculate the average
	// target of dm.difficultyAdjustmentWindowSize blocks
	targetsWindow = targetsWindow[:dm.difficultyAdjustmentWindowSize]

	// Calculate new target difficulty as:
	// averageWindowTarget * (windowMaxTimestamp - windowMinTimestamp) / targetTimePerBlock / windowSize
	div := new(big.Int)
	newTarget := targetsWindow.averageTarget()
	newTarget.
		Mul(newTarget, div.SetInt64(windowMaxTimeStamp-windowMinTimestamp)).
		Div(newTarget, div.SetInt64(dm.targetTimePerBlock.Milliseconds())).
		Div(newTarget, div.SetUint64(dm.difficultyAdjustmentWindowSize))

	newTarget, err = dm.clampAdjustment(stagingArea, tipHash, newTarget)
	if err != nil {
		return 0, err
	}

	if newTarget.Cmp(dm.powMax) > 0 {
		return difficulty.BigToCompact(dm.powMax), nil
	}
	return difficulty.BigToCompact(newTarget), nil
}

// clampAdjustment bounds newTarget so that a single adjustment step never
// moves the target by more than maxDifficultyAdjustmentFactor relative to
// the tip's own target.
func (dm *difficultyManager) clampAdjustment(stagingArea *model.StagingArea,
	tipHash *externalapi.DomainHash, newTarget *big.Int) (*big.Int, error) {

	tipHeader, err := dm.headerStore.BlockHeader(dm.databaseContext, stagingArea, tipHash)
	if err != nil {
		return nil, err
	}

	tipTarget := difficulty.CompactToBig(tipHeader.Bits())
	factor := new(big.Int).SetUint64(dm.maxDifficultyAdjustmentFactor)

	maxNewTarget := new(big.Int).Mul(tipTarget, factor)
	if newTarget.Cmp(maxNewTarget) > 0 {
		return maxNewTarget, nil
	}

	minNewTarget := new(big.Int).Div(tipTarget, factor)
	if newTarget.Cmp(minNewTarget) < 0 {
		return minNewTarget, nil
	}

	return newTarget, nil
}
