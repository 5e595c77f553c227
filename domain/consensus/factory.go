package consensus

import (
	consensusdatabase "github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/datastructures/blockheaderstore"
	"github.com/tos-network/tosdag/domain/consensus/datastructures/blockrelationstore"
	"github.com/tos-network/tosdag/domain/consensus/datastructures/ghostdagdatastore"
	"github.com/tos-network/tosdag/domain/consensus/datastructures/reachabilitydatastore"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/processes/dagtopologymanager"
	"github.com/tos-network/tosdag/domain/consensus/processes/difficultymanager"
	"github.com/tos-network/tosdag/domain/consensus/processes/ghostdagmanager"
	"github.com/tos-network/tosdag/domain/consensus/processes/reachabilitymanager"
	"github.com/tos-network/tosdag/domain/dagconfig"
	"github.com/tos-network/tosdag/infrastructure/db/database"
	"github.com/tos-network/tosdag/infrastructure/db/database/inmemory"
)

const defaultStoreCacheSize = 10_000

// Factory instantiates new Consensuses
type Factory interface {
	// NewConsensus builds a Consensus over the given database, ingesting
	// the network's genesis block if the database is fresh.
	NewConsensus(dagParams *dagconfig.Params, db database.Database) (Consensus, error)

	// NewTestConsensus builds a Consensus over an in-memory database and
	// exposes its internals for white-box testing.
	NewTestConsensus(dagParams *dagconfig.Params) (*TestConsensus, error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus
func (f *factory) NewConsensus(dagParams *dagconfig.Params, db database.Database) (Consensus, error) {
	c, err := f.newConsensus(dagParams, db)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *factory) newConsensus(dagParams *dagconfig.Params, db database.Database) (*consensus, error) {
	dbManager := consensusdatabase.New(db)

	// Data structures
	blockHeaderStore, err := blockheaderstore.New(defaultStoreCacheSize)
	if err != nil {
		return nil, err
	}
	blockRelationStore, err := blockrelationstore.New(defaultStoreCacheSize)
	if err != nil {
		return nil, err
	}
	ghostdagDataStore, err := ghostdagdatastore.New(defaultStoreCacheSize)
	if err != nil {
		return nil, err
	}
	reachabilityDataStore, err := reachabilitydatastore.New(defaultStoreCacheSize)
	if err != nil {
		return nil, err
	}

	// Processes
	reachabilityManager := reachabilitymanager.New(
		dbManager,
		ghostdagDataStore,
		reachabilityDataStore)
	dagTopologyManager := dagtopologymanager.New(
		dbManager,
		reachabilityManager,
		blockRelationStore)
	ghostdagManager := ghostdagmanager.New(
		dbManager,
		dagTopologyManager,
		ghostdagDataStore,
		blockHeaderStore,
		dagParams.K,
		dagParams.DifficultyAdjustmentWindowSize)
	difficultyManager := difficultymanager.New(
		dbManager,
		ghostdagDataStore,
		blockHeaderStore,
		dagParams.PowMax,
		dagParams.GenesisBits(),
		dagParams.DifficultyAdjustmentWindowSize,
		dagParams.MaxDifficultyAdjustmentFactor,
		dagParams.TargetTimePerBlock)

	c := &consensus{
		databaseContext: dbManager,
		genesisHash:     dagParams.GenesisHash,

		blockHeaderStore:      blockHeaderStore,
		blockRelationStore:    blockRelationStore,
		ghostdagDataStore:     ghostdagDataStore,
		reachabilityDataStore: reachabilityDataStore,

		dagTopologyManager:  dagTopologyManager,
		ghostdagManager:     ghostdagManager,
		reachabilityManager: reachabilityManager,
		difficultyManager:   difficultyManager,
	}

	err = c.maybeAddGenesis(dagParams.GenesisHeader)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// TestConsensus wraps a Consensus over an in-memory database and exposes
// its internals for white-box testing.
type TestConsensus struct {
	Consensus

	DAGParams *dagconfig.Params

	Database                database.Database
	BlockHeaderStore        model.BlockHeaderStore
	BlockRelationStore      model.BlockRelationStore
	GHOSTDAGDataStore       model.GHOSTDAGDataStore
	ReachabilityDataStore   model.ReachabilityDataStore
	DAGTopologyManager      model.DAGTopologyManager
	TestReachabilityManager reachabilitymanager.TestReachabilityManager
}

// NewTestConsensus instantiates a new TestConsensus over an in-memory
// database
func (f *factory) NewTestConsensus(dagParams *dagconfig.Params) (*TestConsensus, error) {
	db := inmemory.New()
	c, err := f.newConsensus(dagParams, db)
	if err != nil {
		return nil, err
	}

	return &TestConsensus{
		Consensus: c,
		DAGParams: dagParams,

		Database:                db,
		BlockHeaderStore:        c.blockHeaderStore,
		BlockRelationStore:      c.blockRelationStore,
		GHOSTDAGDataStore:       c.ghostdagDataStore,
		ReachabilityDataStore:   c.reachabilityDataStore,
		DAGTopologyManager:      c.dagTopologyManager,
		TestReachabilityManager: reachabilitymanager.NewTestReachabilityManager(c.reachabilityManager),
	}, nil
}
