package blockheaderstore

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/database/binaryserialization"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
)

var bucketName = []byte("block-headers")

// blockHeaderStore represents a store of block headers
type blockHeaderStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new BlockHeaderStore
func New(cacheSize int) (model.BlockHeaderStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &blockHeaderStore{
		shardID: staging.GenerateShardingID(),
		cache:   cache,
		bucket:  database.MakeBucket(nil).Bucket(bucketName),
	}, nil
}

// Stage stages the given block header for the given blockHash
func (bhs *blockHeaderStore) Stage(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, blockHeader externalapi.BlockHeader) {

	stagingShard := bhs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = blockHeader
}

func (bhs *blockHeaderStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bhs.stagingShard(stagingArea).isStaged()
}

// BlockHeader gets the block header associated with the given blockHash
func (bhs *blockHeaderStore) BlockHeader(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error) {

	stagingShard := bhs.stagingShard(stagingArea)

	if header, ok := stagingShard.toAdd[*blockHash]; ok {
		return header, nil
	}

	if header, ok := bhs.cache.Get(*blockHash); ok {
		return header.(externalapi.BlockHeader), nil
	}

	headerBytes, err := dbContext.Get(bhs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	header, err := binaryserialization.DeserializeHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	bhs.cache.Add(*blockHash, header)
	return header, nil
}

// HasBlockHeader returns whether a block header with a given hash exists in the store.
func (bhs *blockHeaderStore) HasBlockHeader(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := bhs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if bhs.cache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(bhs.hashAsKey(blockHash))
}

func (bhs *blockHeaderStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bhs.bucket.Key(hash.ByteSlice())
}
