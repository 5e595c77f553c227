package reachabilitydatastore

import (
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

type reachabilityDataStagingShard struct {
	store                   *reachabilityDataStore
	reachabilityData        map[externalapi.DomainHash]model.ReachabilityData
	reachabilityReindexRoot *externalapi.DomainHash
}

func (rds *reachabilityDataStore) stagingShard(stagingArea *model.StagingArea) *reachabilityDataStagingShard {
	return stagingArea.GetOrCreateShard(rds.shardID, func() model.StagingShard {
		return &reachabilityDataStagingShard{
			store:            rds,
			reachabilityData: make(map[externalapi.DomainHash]model.ReachabilityData),
		}
	}).(*reachabilityDataStagingShard)
}

// Commit writes all staged data within the given transaction. Caches
// are populated on read only. Reindexing overwrites data of existing
// blocks, so their cache entries are invalidated rather than updated:
// if the transaction fails after this shard ran, reads fall through to
// the committed state.
func (rdss *reachabilityDataStagingShard) Commit(dbTx model.DBTransaction) error {
	if rdss.reachabilityReindexRoot != nil {
		reindexRootBytes := binaryserialization.SerializeHash(rdss.reachabilityReindexRoot)
		err := dbTx.Put(rdss.store.reachabilityReindexRootKey, reindexRootBytes)
		if err != nil {
			return err
		}
		rdss.store.reachabilityReindexRootCache = nil
	}
	for hash, reachabilityData := range rdss.reachabilityData {
		reachabilityDataBytes := binaryserialization.SerializeReachabilityData(reachabilityData)
		err := dbTx.Put(rdss.store.reachabilityDataBlockHashAsKey(&hash), reachabilityDataBytes)
		if err != nil {
			return err
		}
		rdss.store.reachabilityDataCache.Remove(hash)
	}

	return nil
}

func (rdss *reachabilityDataStagingShard) isStaged() bool {
	return len(rdss.reachabilityData) != 0 || rdss.reachabilityReindexRoot != nil
}
