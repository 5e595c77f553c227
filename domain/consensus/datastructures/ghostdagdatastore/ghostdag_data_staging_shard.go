package ghostdagdatastore

import (
	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/ruleerrors"
)

type ghostdagDataStagingShard struct {
	store *ghostdagDataStore
	toAdd map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData
}

func (gds *ghostdagDataStore) stagingShard(stagingArea *model.StagingArea) *ghostdagDataStagingShard {
	return stagingArea.GetOrCreateShard(gds.shardID, func() model.StagingShard {
		return &ghostdagDataStagingShard{
			store: gds,
			toAdd: make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData),
		}
	}).(*ghostdagDataStagingShard)
}

// Commit writes all staged data within the given transaction. GHOSTDAG
// data is write-once per block, so existence is verified for every
// staged hash before anything is written. A duplicate fails the whole
// transaction and neither entry of the shard is persisted.
func (gdss *ghostdagDataStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash := range gdss.toAdd {
		exists, err := dbTx.Has(gdss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		if exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateConsensusData,
				"GHOSTDAG data for block %s already exists", hash)
		}
	}

	// The cache is populated on read only: a shard never caches staged
	// data, since the transaction may still fail after this shard ran.
	for hash, blockGHOSTDAGData := range gdss.toAdd {
		blockGHOSTDAGDataBytes := binaryserialization.SerializeGHOSTDAGData(blockGHOSTDAGData)
		err := dbTx.Put(gdss.store.hashAsKey(&hash), blockGHOSTDAGDataBytes)
		if err != nil {
			return err
		}
	}

	return nil
}

func (gdss *ghostdagDataStagingShard) isStaged() bool {
	return len(gdss.toAdd) != 0
}
