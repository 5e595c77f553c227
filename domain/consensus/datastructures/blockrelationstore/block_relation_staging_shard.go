package blockrelationstore

import (
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

type blockRelationStagingShard struct {
	store *blockRelationStore
	toAdd map[externalapi.DomainHash]*model.BlockRelations
}

func (brs *blockRelationStore) stagingShard(stagingArea *model.StagingArea) *blockRelationStagingShard {
	return stagingArea.GetOrCreateShard(brs.shardID, func() model.StagingShard {
		return &blockRelationStagingShard{
			store: brs,
			toAdd: make(map[externalapi.DomainHash]*model.BlockRelations),
		}
	}).(*blockRelationStagingShard)
}

func (brss *blockRelationStagingShard) Commit(dbTx model.DBTransaction) error {
	// The cache is populated on read only. Relations of existing blocks
	// may be overwritten here, so their cache entries are invalidated
	// rather than updated: if the transaction fails after this shard ran,
	// reads fall through to the committed state.
	for hash, blockRelations := range brss.toAdd {
		blockRelationsBytes := binaryserialization.SerializeBlockRelations(blockRelations)
		err := dbTx.Put(brss.store.hashAsKey(&hash), blockRelationsBytes)
		if err != nil {
			return err
		}
		brss.store.cache.Remove(hash)
	}

	return nil
}

func (brss *blockRelationStagingShard) isStaged() bool {
	return len(brss.toAdd) != 0
}
