package blockrelationstore

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
)

var bucketName = []byte("block-relations")

// blockRelationStore represents a store of BlockRelations
type blockRelationStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new BlockRelationStore
func New(cacheSize int) (model.BlockRelationStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &blockRelationStore{
		shardID: staging.GenerateShardingID(),
		cache:   cache,
		bucket:  database.MakeBucket(nil).Bucket(bucketName),
	}, nil
}

// StageBlockRelation stages the given blockRelations for the given blockHash
func (brs *blockRelationStore) StageBlockRelation(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, blockRelations *model.BlockRelations) {

	stagingShard := brs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = blockRelations.Clone()
}

func (brs *blockRelationStore) IsStaged(stagingArea *model.StagingArea) bool {
	return brs.stagingShard(stagingArea).isStaged()
}

// BlockRelation returns the BlockRelations associated with the given blockHash
func (brs *blockRelationStore) BlockRelation(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.BlockRelations, error) {

	stagingShard := brs.stagingShard(stagingArea)

	if blockRelations, ok := stagingShard.toAdd[*blockHash]; ok {
		return blockRelations.Clone(), nil
	}

	if blockRelations, ok := brs.cache.Get(*blockHash); ok {
		return blockRelations.(*model.BlockRelations).Clone(), nil
	}

	blockRelationsBytes, err := dbContext.Get(brs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	blockRelations, err := binaryserialization.DeserializeBlockRelations(blockRelationsBytes)
	if err != nil {
		return nil, err
	}
	brs.cache.Add(*blockHash, blockRelations)
	return blockRelations.Clone(), nil
}

// Has returns whether BlockRelations for the given blockHash exist,
// staged or committed
func (brs *blockRelationStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := brs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if brs.cache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(brs.hashAsKey(blockHash))
}

func (brs *blockRelationStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return brs.bucket.Key(hash.ByteSlice())
}
