package reachabilitydatastore

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
)

var reachabilityDataBucketName = []byte("reachability-data")
var reachabilityReindexRootKeyName = []byte("reachability-reindex-root")

// reachabilityDataStore represents a store of ReachabilityData
type reachabilityDataStore struct {
	shardID                      model.StagingShardID
	reachabilityDataCache        *lru.Cache
	reachabilityReindexRootCache *externalapi.DomainHash
	reachabilityDataBucket       model.DBBucket
	reachabilityReindexRootKey   model.DBKey
}

// New instantiates a new ReachabilityDataStore
func New(cacheSize int) (model.ReachabilityDataStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &reachabilityDataStore{
		shardID:                    staging.GenerateShardingID(),
		reachabilityDataCache:      cache,
		reachabilityDataBucket:     database.MakeBucket(nil).Bucket(reachabilityDataBucketName),
		reachabilityReindexRootKey: database.MakeBucket(nil).Key(reachabilityReindexRootKeyName),
	}, nil
}

// StageReachabilityData stages the given reachabilityData for the given blockHash.
// Re-staging data for an existing block is legal: reindexing relabels
// intervals without changing the ancestry relation they encode.
func (rds *reachabilityDataStore) StageReachabilityData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, reachabilityData model.ReachabilityData) {

	stagingShard := rds.stagingShard(stagingArea)

	stagingShard.reachabilityData[*blockHash] = reachabilityData
}

// StageReachabilityReindexRoot stages the given reachabilityReindexRoot
func (rds *reachabilityDataStore) StageReachabilityReindexRoot(stagingArea *model.StagingArea,
	reachabilityReindexRoot *externalapi.DomainHash) {

	stagingShard := rds.stagingShard(stagingArea)

	stagingShard.reachabilityReindexRoot = reachabilityReindexRoot
}

func (rds *reachabilityDataStore) IsStaged(stagingArea *model.StagingArea) bool {
	return rds.stagingShard(stagingArea).isStaged()
}

// ReachabilityData returns the reachabilityData associated with the given blockHash
func (rds *reachabilityDataStore) ReachabilityData(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (model.ReachabilityData, error) {

	stagingShard := rds.stagingShard(stagingArea)

	if reachabilityData, ok := stagingShard.reachabilityData[*blockHash]; ok {
		return reachabilityData, nil
	}

	if reachabilityData, ok := rds.reachabilityDataCache.Get(*blockHash); ok {
		return reachabilityData.(model.ReachabilityData), nil
	}

	reachabilityDataBytes, err := dbContext.Get(rds.reachabilityDataBlockHashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	reachabilityData, err := binaryserialization.DeserializeReachabilityData(reachabilityDataBytes)
	if err != nil {
		return nil, err
	}
	rds.reachabilityDataCache.Add(*blockHash, reachabilityData)
	return reachabilityData, nil
}

// HasReachabilityData returns true if reachabilityData exists for the given blockHash
func (rds *reachabilityDataStore) HasReachabilityData(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := rds.stagingShard(stagingArea)

	if _, ok := stagingShard.reachabilityData[*blockHash]; ok {
		return true, nil
	}

	if rds.reachabilityDataCache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(rds.reachabilityDataBlockHashAsKey(blockHash))
}

// ReachabilityReindexRoot returns the current reachability reindex root
func (rds *reachabilityDataStore) ReachabilityReindexRoot(dbContext model.DBReader,
	stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {

	stagingShard := rds.stagingShard(stagingArea)

	if stagingShard.reachabilityReindexRoot != nil {
		return stagingShard.reachabilityReindexRoot, nil
	}

	if rds.reachabilityReindexRootCache != nil {
		return rds.reachabilityReindexRootCache, nil
	}

	reachabilityReindexRootBytes, err := dbContext.Get(rds.reachabilityReindexRootKey)
	if err != nil {
		return nil, err
	}

	reachabilityReindexRoot, err := binaryserialization.DeserializeHash(reachabilityReindexRootBytes)
	if err != nil {
		return nil, err
	}
	rds.reachabilityReindexRootCache = reachabilityReindexRoot
	return reachabilityReindexRoot, nil
}

func (rds *reachabilityDataStore) reachabilityDataBlockHashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return rds.reachabilityDataBucket.Key(hash.ByteSlice())
}
