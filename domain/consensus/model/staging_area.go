package model

// StagingShard is a single store's set of pending changes inside a
// StagingArea
type StagingShard interface {
	Commit(dbTx DBTransaction) error
}

// StagingShardID is used to identify each of the store's staging shards
type StagingShardID uint64

// StagingArea is single-use anti-corruption area: the consensus state of a
// block under insertion is staged here by every store, then committed to
// the database in one transaction. If anything fails mid-insertion the
// staging area is simply discarded and no partial consensus state is ever
// persisted.
//
// A StagingArea is not thread-safe; insertion is single-writer.
type StagingArea struct {
	shards      []StagingShard
	isCommitted bool
}

// NewStagingArea creates a new, empty staging area
func NewStagingArea() *StagingArea {
	return &StagingArea{
		shards:      []StagingShard{},
		isCommitted: false,
	}
}

// GetOrCreateShard attempts to retrieve the shard with the given ID.
// If it does not exist, it is created via createFunc.
func (sa *StagingArea) GetOrCreateShard(shardID StagingShardID, createFunc func() StagingShard) StagingShard {
	for uint64(len(sa.shards)) <= uint64(shardID) {
		sa.shards = append(sa.shards, nil)
	}
	if sa.shards[shardID] == nil {
		sa.shards[shardID] = createFunc()
	}
	return sa.shards[shardID]
}

// Commit applies the staged changes of all shards within the given
// database transaction. The staging area may be committed only once.
func (sa *StagingArea) Commit(dbTx DBTransaction) error {
	if sa.isCommitted {
		panic("Attempt to call Commit on already committed staging area")
	}

	for _, shard := range sa.shards {
		if shard == nil {
			continue
		}
		err := shard.Commit(dbTx)
		if err != nil {
			return err
		}
	}

	sa.isCommitted = true
	return nil
}
