package difficultymanager

import (
	"math/big"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/hashset"
	"github.com/tos-network/tosdag/util/difficulty"
)

type difficultyBlock struct {
	timeInMilliseconds int64
	bits               uint32
}

type blockWindow []difficultyBlock

// blueBlockWindow collects up to windowSize blue blocks by walking the
// selected-parent chain backwards from startingHash. Every visited chain
// block contributes itself and its blue mergeset, skipping members flagged
// as non-DAA. The second return value reports whether the window reached
// its full size before running into the genesis block.
func (dm *difficultyManager) blueBlockWindow(stagingArea *model.StagingArea,
	startingHash *externalapi.DomainHash, windowSize uint64) (blockWindow, bool, error) {

	window := make(blockWindow, 0, windowSize)

	addToWindow := func(blockHash *externalapi.DomainHash) error {
		header, err := dm.headerStore.BlockHeader(dm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return err
		}
		window = append(window, difficultyBlock{
			timeInMilliseconds: header.TimeInMilliseconds(),
			bits:               header.Bits(),
		})
		return nil
	}

	err := addToWindow(startingHash)
	if err != nil {
		return nil, false, err
	}

	current := startingHash
	for uint64(len(window)) < windowSize {
		currentGHOSTDAGData, err := dm.ghostdagDataStore.Get(dm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, false, err
		}

		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil {
			// Reached the genesis block before the window filled up
			return window, false, nil
		}

		err = addToWindow(selectedParent)
		if err != nil {
			return nil, false, err
		}

		nonDAA := hashset.NewFromSlice(currentGHOSTDAGData.MergeSetNonDAA()...)
		for _, blue := range currentGHOSTDAGData.MergeSetBlues() {
			if uint64(len(window)) == windowSize {
				break
			}
			if nonDAA.Contains(blue) {
				continue
			}
			err = addToWindow(blue)
			if err != nil {
				return nil, false, err
			}
		}

		current = selectedParent
	}

	return window, uint64(len(window)) == windowSize, nil
}

func (window blockWindow) minMaxTimestamps() (min, max int64) {
	min = window[0].timeInMilliseconds
	max = window[0].timeInMilliseconds
	for _, block := range window[1:] {
		if block.timeInMilliseconds < min {
			min = block.timeInMilliseconds
		}
		if block.timeInMilliseconds > max {
			max = block.timeInMilliseconds
		}
	}
	return min, max
}

func (window blockWindow) averageTarget() *big.Int {
	averageTarget := new(big.Int)
	for _, block := range window {
		target := difficulty.CompactToBig(block.bits)
		averageTarget.Add(averageTarget, target)
	}
	return averageTarget.Div(averageTarget, big.NewInt(int64(len(window))))
}
