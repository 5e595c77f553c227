package ghostdagmanager

import (
	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// ChooseSelectedParent returns the "best" block out of the given ones:
// the one with the greatest blue work, ties broken by the numerically
// smaller hash.
func (gm *ghostdagManager) ChooseSelectedParent(stagingArea *model.StagingArea,
	blockHashes ...*externalapi.DomainHash) (*externalapi.DomainHash, error) {

	if len(blockHashes) == 0 {
		return nil, errors.Errorf("expected at least one parent")
	}

	selectedParent := blockHashes[0]
	selectedParentGHOSTDAGData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}

	for _, blockHash := range blockHashes[1:] {
		blockGHOSTDAGData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return nil, err
		}

		if gm.Less(selectedParent, selectedParentGHOSTDAGData, blockHash, blockGHOSTDAGData) {
			selectedParent = blockHash
			selectedParentGHOSTDAGData = blockGHOSTDAGData
		}
	}

	return selectedParent, nil
}

// Less returns whether block A is "less" than block B in the
// selected-parent ordering: smaller blue work loses, and on equal blue
// work the numerically larger hash loses.
func (gm *ghostdagManager) Less(blockHashA *externalapi.DomainHash, ghostdagDataA *externalapi.BlockGHOSTDAGData,
	blockHashB *externalapi.DomainHash, ghostdagDataB *externalapi.BlockGHOSTDAGData) bool {

	switch ghostdagDataA.BlueWork().Cmp(ghostdagDataB.BlueWork()) {
	case -1:
		return true
	case 1:
		return false
	default:
		return blockHashB.Less(blockHashA)
	}
}
