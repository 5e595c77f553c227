package consensus

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/ruleerrors"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
	"github.com/tos-network/tosdag/infrastructure/logger"
)

// Consensus is the entry point of the consensus core: single-writer block
// ingestion plus concurrent read queries over the committed DAG state.
type Consensus interface {
	// AddHeader ingests a block header whose proof-of-work was already
	// verified. All of its parents must have been ingested beforehand,
	// otherwise ruleerrors.ErrMissingAncestorData is returned and the
	// caller should retry once the dependency resolves. Re-ingesting a
	// known block fails with ruleerrors.ErrDuplicateConsensusData.
	AddHeader(header externalapi.BlockHeader) error

	// GetBlockGHOSTDAGData returns the committed GHOSTDAG data of the
	// given block.
	GetBlockGHOSTDAGData(blockHash *externalapi.DomainHash) (*externalapi.BlockGHOSTDAGData, error)

	// GetBlockHeader returns the committed header of the given block.
	GetBlockHeader(blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error)

	// IsDAGAncestorOf returns whether blockHashA is in the past of
	// blockHashB. A block is an ancestor of itself.
	IsDAGAncestorOf(blockHashA, blockHashB *externalapi.DomainHash) (bool, error)

	// RequiredDifficulty returns the difficulty bits required for a
	// block pointing at the given tip.
	RequiredDifficulty(tipHash *externalapi.DomainHash) (uint32, error)
}

type consensus struct {
	// ingestionLock serializes AddHeader calls. Read queries operate on
	// committed state only and do not take it.
	ingestionLock sync.Mutex

	databaseContext model.DBManager
	genesisHash     *externalapi.DomainHash

	blockHeaderStore      model.BlockHeaderStore
	blockRelationStore    model.BlockRelationStore
	ghostdagDataStore     model.GHOSTDAGDataStore
	reachabilityDataStore model.ReachabilityDataStore

	dagTopologyManager  model.DAGTopologyManager
	ghostdagManager     model.GHOSTDAGManager
	reachabilityManager model.ReachabilityManager
	difficultyManager   model.DifficultyManager
}

// AddHeader ingests the given header: it stages the header and its parent
// relations, runs GHOSTDAG classification, inserts the block into the
// reachability tree and commits everything in a single database
// transaction. No partial state is ever persisted for a failed block.
func (c *consensus) AddHeader(header externalapi.BlockHeader) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "AddHeader")
	defer onEnd()

	c.ingestionLock.Lock()
	defer c.ingestionLock.Unlock()

	return c.addHeaderNoLock(header)
}

func (c *consensus) addHeaderNoLock(header externalapi.BlockHeader) error {
	stagingArea := model.NewStagingArea()

	blockHash := header.Hash()
	parentHashes := header.ParentHashes()

	// Consensus data is write-once. Reject a known block before anything
	// is staged; the commit itself re-checks existence atomically inside
	// the transaction.
	exists, err := c.ghostdagDataStore.Has(c.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ruleerrors.ErrDuplicateConsensusData,
			"block %s was already added", blockHash)
	}

	err = c.validateParents(stagingArea, blockHash, parentHashes)
	if err != nil {
		return err
	}

	c.blockHeaderStore.Stage(stagingArea, blockHash, header)

	err = c.dagTopologyManager.SetParents(stagingArea, blockHash, parentHashes)
	if err != nil {
		return err
	}

	err = c.ghostdagManager.GHOSTDAG(stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = c.reachabilityManager.AddBlock(stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = staging.CommitAllChanges(c.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	log.Debugf("Accepted block %s with %d parents", blockHash, len(parentHashes))
	return nil
}

// validateParents rejects malformed parent references before any work is
// staged: self-parenting, duplicate parents, a non-genesis parentless
// block, and parents with no consensus data.
func (c *consensus) validateParents(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, parentHashes []*externalapi.DomainHash) error {

	if len(parentHashes) == 0 && !blockHash.Equal(c.genesisHash) {
		return errors.Wrapf(ruleerrors.ErrInvalidParent,
			"block %s has no parents and is not the genesis block", blockHash)
	}

	seen := make(map[externalapi.DomainHash]struct{}, len(parentHashes))
	for _, parentHash := range parentHashes {
		if parentHash.Equal(blockHash) {
			return errors.Wrapf(ruleerrors.ErrInvalidParent,
				"block %s lists itself as a parent", blockHash)
		}
		if _, ok := seen[*parentHash]; ok {
			return errors.Wrapf(ruleerrors.ErrInvalidParent,
				"block %s lists parent %s twice", blockHash, parentHash)
		}
		seen[*parentHash] = struct{}{}

		hasParentData, err := c.ghostdagDataStore.Has(c.databaseContext, stagingArea, parentHash)
		if err != nil {
			return err
		}
		if !hasParentData {
			return errors.Wrapf(ruleerrors.ErrMissingAncestorData,
				"parent %s of block %s was not processed yet", parentHash, blockHash)
		}
	}

	return nil
}

func (c *consensus) GetBlockGHOSTDAGData(blockHash *externalapi.DomainHash) (*externalapi.BlockGHOSTDAGData, error) {
	stagingArea := model.NewStagingArea()
	return c.ghostdagDataStore.Get(c.databaseContext, stagingArea, blockHash)
}

func (c *consensus) GetBlockHeader(blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error) {
	stagingArea := model.NewStagingArea()
	return c.blockHeaderStore.BlockHeader(c.databaseContext, stagingArea, blockHash)
}

func (c *consensus) IsDAGAncestorOf(blockHashA, blockHashB *externalapi.DomainHash) (bool, error) {
	stagingArea := model.NewStagingArea()
	return c.dagTopologyManager.IsAncestorOf(stagingArea, blockHashA, blockHashB)
}

func (c *consensus) RequiredDifficulty(tipHash *externalapi.DomainHash) (uint32, error) {
	stagingArea := model.NewStagingArea()
	return c.difficultyManager.RequiredDifficulty(stagingArea, tipHash)
}

// maybeAddGenesis ingests the configured genesis block if the database
// does not carry consensus data yet.
func (c *consensus) maybeAddGenesis(genesisHeader externalapi.BlockHeader) error {
	stagingArea := model.NewStagingArea()
	hasGenesis, err := c.ghostdagDataStore.Has(c.databaseContext, stagingArea, c.genesisHash)
	if err != nil {
		return err
	}
	if hasGenesis {
		return nil
	}

	c.ingestionLock.Lock()
	defer c.ingestionLock.Unlock()
	return c.addHeaderNoLock(genesisHeader)
}
