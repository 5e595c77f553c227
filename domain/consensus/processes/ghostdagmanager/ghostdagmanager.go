package ghostdagmanager

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// ghostdagManager resolves and manages GHOSTDAG block data
type ghostdagManager struct {
	databaseContext    model.DBReader
	dagTopologyManager model.DAGTopologyManager
	ghostdagDataStore  model.GHOSTDAGDataStore
	headerStore        model.BlockHeaderStore

	k                              externalapi.KType
	difficultyAdjustmentWindowSize uint64
}

// New instantiates a new GHOSTDAGManager
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagDataStore model.GHOSTDAGDataStore,
	headerStore model.BlockHeaderStore,
	k externalapi.KType,
	difficultyAdjustmentWindowSize uint64) model.GHOSTDAGManager {

	return &ghostdagManager{
		databaseContext:                databaseContext,
		dagTopologyManager:             dagTopologyManager,
		ghostdagDataStore:              ghostdagDataStore,
		headerStore:                    headerStore,
		k:                              k,
		difficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,
	}
}
