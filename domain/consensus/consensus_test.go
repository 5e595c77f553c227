package consensus_test

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus"
	consensusdatabase "github.com/tos-network/tosdag/domain/consensus/database"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/ruleerrors"
	"github.com/tos-network/tosdag/domain/consensus/testutils"
	"github.com/tos-network/tosdag/domain/consensus/utils/staging"
	"github.com/tos-network/tosdag/domain/consensus/utils/testvectors"
	"github.com/tos-network/tosdag/domain/dagconfig"
	"github.com/tos-network/tosdag/infrastructure/db/database"
	"github.com/tos-network/tosdag/infrastructure/db/database/ldb"
)

func TestConformanceVectors(t *testing.T) {
	vectorFiles := []string{
		"simple_chain.json",
		"simple_merge.json",
	}

	for _, vectorFile := range vectorFiles {
		t.Run(vectorFile, func(t *testing.T) {
			vector, err := testvectors.LoadFromFile(filepath.Join("testdata", vectorFile))
			if err != nil {
				t.Fatalf("LoadFromFile: %s", err)
			}

			mismatches, err := testvectors.Run(vector)
			if err != nil {
				t.Fatalf("Run: %s", err)
			}
			for _, mismatch := range mismatches {
				t.Errorf("%s", mismatch)
			}
		})
	}
}

func setupTestConsensus(t *testing.T) *consensus.TestConsensus {
	t.Helper()

	params := dagconfig.SimnetParams
	tc, err := consensus.NewFactory().NewTestConsensus(&params)
	if err != nil {
		t.Fatalf("NewTestConsensus: %s", err)
	}
	return tc
}

func addHeaderExpectingError(t *testing.T, tc *consensus.TestConsensus,
	header externalapi.BlockHeader, expectedError error, scenario string) {

	t.Helper()

	err := tc.AddHeader(header)
	if err == nil {
		t.Fatalf("%s: AddHeader unexpectedly succeeded", scenario)
	}
	if !errors.Is(err, expectedError) {
		t.Fatalf("%s: AddHeader returned %+v, want %s", scenario, err, expectedError)
	}
}

func TestAddHeaderMissingParent(t *testing.T) {
	tc := setupTestConsensus(t)

	unknownParent := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xaa})
	header := testutils.BuildHeader([]*externalapi.DomainHash{unknownParent}, 1000, tc.DAGParams.GenesisBits())
	addHeaderExpectingError(t, tc, header, ruleerrors.ErrMissingAncestorData, "unknown parent")

	// The failed block must leave no trace behind.
	_, err := tc.GetBlockHeader(header.Hash())
	if !database.IsNotFoundError(err) {
		t.Errorf("GetBlockHeader after rejected ingestion: got %+v, want not-found", err)
	}
}

func TestAddHeaderDuplicateBlock(t *testing.T) {
	tc := setupTestConsensus(t)

	header := testutils.BuildHeader(
		[]*externalapi.DomainHash{tc.DAGParams.GenesisHash}, 1000, tc.DAGParams.GenesisBits())
	err := tc.AddHeader(header)
	if err != nil {
		t.Fatalf("AddHeader: %s", err)
	}
	originalData, err := tc.GetBlockGHOSTDAGData(header.Hash())
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData: %s", err)
	}

	addHeaderExpectingError(t, tc, header, ruleerrors.ErrDuplicateConsensusData, "duplicate block")

	// Re-ingesting the genesis block is a duplicate like any other block.
	addHeaderExpectingError(t, tc, tc.DAGParams.GenesisHeader, ruleerrors.ErrDuplicateConsensusData, "duplicate genesis")

	// The rejection must leave the committed data untouched and the DAG
	// extendable.
	dataAfterRejection, err := tc.GetBlockGHOSTDAGData(header.Hash())
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData after rejection: %s", err)
	}
	if !dataAfterRejection.Equal(originalData) {
		t.Errorf("consensus data changed after a rejected duplicate")
	}

	childHeader := testutils.BuildHeader(
		[]*externalapi.DomainHash{header.Hash()}, 2000, tc.DAGParams.GenesisBits())
	err = tc.AddHeader(childHeader)
	if err != nil {
		t.Fatalf("AddHeader after rejected duplicate: %s", err)
	}
	isAncestor, err := tc.IsDAGAncestorOf(header.Hash(), childHeader.Hash())
	if err != nil {
		t.Fatalf("IsDAGAncestorOf: %s", err)
	}
	if !isAncestor {
		t.Errorf("expected %s to be a DAG ancestor of its child", header.Hash())
	}
}

func TestAddHeaderInvalidParents(t *testing.T) {
	tc := setupTestConsensus(t)

	// A non-genesis block with no parents.
	orphanHeader := testutils.BuildHeader(nil, 1000, tc.DAGParams.GenesisBits())
	addHeaderExpectingError(t, tc, orphanHeader, ruleerrors.ErrInvalidParent, "parentless non-genesis")

	// A block listing the same parent twice.
	duplicateParentsHeader := testutils.BuildHeader(
		[]*externalapi.DomainHash{tc.DAGParams.GenesisHash, tc.DAGParams.GenesisHash},
		1000, tc.DAGParams.GenesisBits())
	addHeaderExpectingError(t, tc, duplicateParentsHeader, ruleerrors.ErrInvalidParent, "duplicate parents")
}

func TestAddHeaderSelfParent(t *testing.T) {
	tc := setupTestConsensus(t)

	// Build a valid header first, then ask for a header carrying its own
	// hash in the parent list.
	probe := testutils.BuildHeader(
		[]*externalapi.DomainHash{tc.DAGParams.GenesisHash}, 1000, tc.DAGParams.GenesisBits())
	selfParentHeader := externalapi.NewBlockHeader(
		probe.Hash(), []*externalapi.DomainHash{probe.Hash()}, 1000, tc.DAGParams.GenesisBits())
	addHeaderExpectingError(t, tc, selfParentHeader, ruleerrors.ErrInvalidParent, "self parent")
}

func TestConsensusPersistence(t *testing.T) {
	params := dagconfig.SimnetParams
	path := t.TempDir()

	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}

	c, err := consensus.NewFactory().NewConsensus(&params, db)
	if err != nil {
		t.Fatalf("NewConsensus: %s", err)
	}
	header := testutils.BuildHeader(
		[]*externalapi.DomainHash{params.GenesisHash}, 1000, params.GenesisBits())
	err = c.AddHeader(header)
	if err != nil {
		t.Fatalf("AddHeader: %s", err)
	}
	err = db.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	// A consensus over the reopened database sees the ingested DAG.
	db, err = ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("NewLevelDB after Close: %s", err)
	}
	defer db.Close()

	reopened, err := consensus.NewFactory().NewConsensus(&params, db)
	if err != nil {
		t.Fatalf("NewConsensus after reopening: %s", err)
	}
	ghostdagData, err := reopened.GetBlockGHOSTDAGData(header.Hash())
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData after reopening: %s", err)
	}
	if ghostdagData.BlueScore() != 1 {
		t.Errorf("blue score after reopening: got %d, want 1", ghostdagData.BlueScore())
	}

	// Persisted blocks are duplicates like in-memory ones.
	err = reopened.AddHeader(header)
	if !errors.Is(err, ruleerrors.ErrDuplicateConsensusData) {
		t.Errorf("AddHeader of a persisted block: got %+v, want %s",
			err, ruleerrors.ErrDuplicateConsensusData)
	}
}

func TestFailedCommitLeavesNoTrace(t *testing.T) {
	tc := setupTestConsensus(t)

	// Stage a header for a new block together with duplicate GHOSTDAG
	// data for the genesis block. The header shard commits before the
	// GHOSTDAG shard rejects the duplicate, so the whole transaction
	// rolls back after the header was already written to it.
	stagingArea := model.NewStagingArea()

	header := testutils.BuildHeader(
		[]*externalapi.DomainHash{tc.DAGParams.GenesisHash}, 1000, tc.DAGParams.GenesisBits())
	tc.BlockHeaderStore.Stage(stagingArea, header.Hash(), header)

	genesisData, err := tc.GetBlockGHOSTDAGData(tc.DAGParams.GenesisHash)
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData: %s", err)
	}
	tc.GHOSTDAGDataStore.Stage(stagingArea, tc.DAGParams.GenesisHash, genesisData)

	dbManager := consensusdatabase.New(tc.Database)
	err = staging.CommitAllChanges(dbManager, stagingArea)
	if !errors.Is(err, ruleerrors.ErrDuplicateConsensusData) {
		t.Fatalf("CommitAllChanges: got %+v, want %s", err, ruleerrors.ErrDuplicateConsensusData)
	}

	// The header must not be visible anywhere, including the store cache.
	_, err = tc.GetBlockHeader(header.Hash())
	if !database.IsNotFoundError(err) {
		t.Fatalf("GetBlockHeader after failed commit: got %+v, want not-found", err)
	}
}

func TestReadQueriesAfterIngestion(t *testing.T) {
	tc := setupTestConsensus(t)

	builder := testutils.NewDAGBuilder(tc)
	blockA, err := builder.AddBlock(tc.DAGParams.GenesisHash)
	if err != nil {
		t.Fatalf("AddBlock: %s", err)
	}
	blockB, err := builder.AddBlock(blockA)
	if err != nil {
		t.Fatalf("AddBlock: %s", err)
	}

	ghostdagData, err := tc.GetBlockGHOSTDAGData(blockB)
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData: %s", err)
	}
	if ghostdagData.BlueScore() != 2 {
		t.Errorf("blue score: got %d, want 2", ghostdagData.BlueScore())
	}
	if !ghostdagData.SelectedParent().Equal(blockA) {
		t.Errorf("selected parent: got %s, want %s", ghostdagData.SelectedParent(), blockA)
	}

	header, err := tc.GetBlockHeader(blockB)
	if err != nil {
		t.Fatalf("GetBlockHeader: %s", err)
	}
	if !header.Hash().Equal(blockB) {
		t.Errorf("header hash: got %s, want %s", header.Hash(), blockB)
	}

	isAncestor, err := tc.IsDAGAncestorOf(blockA, blockB)
	if err != nil {
		t.Fatalf("IsDAGAncestorOf: %s", err)
	}
	if !isAncestor {
		t.Errorf("expected %s to be a DAG ancestor of %s", blockA, blockB)
	}
}
