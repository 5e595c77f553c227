package ghostdagdatastore

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
)

var bucketName = []byte("block-ghostdag-data")

// ghostdagDataStore represents a store of BlockGHOSTDAGData
type ghostdagDataStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new GHOSTDAGDataStore
func New(cacheSize int) (model.GHOSTDAGDataStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &ghostdagDataStore{
		shardID: staging.GenerateShardingID(),
		cache:   cache,
		bucket:  database.MakeBucket(nil).Bucket(bucketName),
	}, nil
}

// Stage stages the given blockGHOSTDAGData for the given blockHash
func (gds *ghostdagDataStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	blockGHOSTDAGData *externalapi.BlockGHOSTDAGData) {

	stagingShard := gds.stagingShard(stagingArea)

	stagingShard.toAdd[*blockHash] = blockGHOSTDAGData
}

func (gds *ghostdagDataStore) IsStaged(stagingArea *model.StagingArea) bool {
	return gds.stagingShard(stagingArea).isStaged()
}

// Get gets the blockGHOSTDAGData associated with the given blockHash
func (gds *ghostdagDataStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.BlockGHOSTDAGData, error) {

	stagingShard := gds.stagingShard(stagingArea)

	if blockGHOSTDAGData, ok := stagingShard.toAdd[*blockHash]; ok {
		return blockGHOSTDAGData, nil
	}

	if blockGHOSTDAGData, ok := gds.cache.Get(*blockHash); ok {
		return blockGHOSTDAGData.(*externalapi.BlockGHOSTDAGData), nil
	}

	blockGHOSTDAGDataBytes, err := dbContext.Get(gds.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	blockGHOSTDAGData, err := binaryserialization.DeserializeGHOSTDAGData(blockGHOSTDAGDataBytes)
	if err != nil {
		return nil, err
	}
	gds.cache.Add(*blockHash, blockGHOSTDAGData)
	return blockGHOSTDAGData, nil
}

// Has returns whether blockGHOSTDAGData for the given blockHash exists,
// staged or committed
func (gds *ghostdagDataStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := gds.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if gds.cache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(gds.hashAsKey(blockHash))
}

func (gds *ghostdagDataStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return gds.bucket.Key(hash.ByteSlice())
}
