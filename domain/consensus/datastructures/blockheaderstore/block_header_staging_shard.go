package blockheaderstore

import (
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

type blockHeaderStagingShard struct {
	store *blockHeaderStore
	toAdd map[externalapi.DomainHash]externalapi.BlockHeader
}

func (bhs *blockHeaderStore) stagingShard(stagingArea *model.StagingArea) *blockHeaderStagingShard {
	return stagingArea.GetOrCreateShard(bhs.shardID, func() model.StagingShard {
		return &blockHeaderStagingShard{
			store: bhs,
			toAdd: make(map[externalapi.DomainHash]externalapi.BlockHeader),
		}
	}).(*blockHeaderStagingShard)
}

// Commit writes all staged headers within the given transaction. The
// cache is populated on read only, so a transaction failing after this
// shard ran leaves no trace of its headers.
func (bhss *blockHeaderStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, header := range bhss.toAdd {
		headerBytes := binaryserialization.SerializeHeader(header)
		err := dbTx.Put(bhss.store.hashAsKey(&hash), headerBytes)
		if err != nil {
			return err
		}
	}

	return nil
}

func (bhss *blockHeaderStagingShard) isStaged() bool {
	return len(bhss.toAdd) != 0
}
