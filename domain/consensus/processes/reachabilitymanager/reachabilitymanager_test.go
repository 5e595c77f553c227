package reachabilitymanager_test

import (
	"testing"

	"github.com/tos-network/tosdag/domain/consensus"
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/testutils"
	"github.com/tos-network/tosdag/domain/dagconfig"
)

func setupTestConsensus(t *testing.T) *consensus.TestConsensus {
	t.Helper()

	params := dagconfig.SimnetParams
	tc, err := consensus.NewFactory().NewTestConsensus(&params)
	if err != nil {
		t.Fatalf("NewTestConsensus: %s", err)
	}
	return tc
}

func checkAncestry(t *testing.T, tc *consensus.TestConsensus,
	blockHashA, blockHashB *externalapi.DomainHash, expected bool) {

	t.Helper()

	isAncestor, err := tc.IsDAGAncestorOf(blockHashA, blockHashB)
	if err != nil {
		t.Fatalf("IsDAGAncestorOf(%s, %s): %s", blockHashA, blockHashB, err)
	}
	if isAncestor != expected {
		t.Errorf("IsDAGAncestorOf(%s, %s): got %t, want %t", blockHashA, blockHashB, isAncestor, expected)
	}
}

func TestIsDAGAncestorOf(t *testing.T) {
	tc := setupTestConsensus(t)
	builder := testutils.NewDAGBuilder(tc)
	genesisHash := tc.DAGParams.GenesisHash

	// Two disjoint branches under the genesis block
	xChain, err := builder.AddChain(genesisHash, 3)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}
	yChain, err := builder.AddChain(genesisHash, 2)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}

	// A block is an ancestor of itself
	checkAncestry(t, tc, xChain[0], xChain[0], true)

	// Chain ancestry in both direct and transitive forms
	checkAncestry(t, tc, xChain[0], xChain[1], true)
	checkAncestry(t, tc, xChain[0], xChain[2], true)
	checkAncestry(t, tc, xChain[2], xChain[0], false)

	// The genesis block is an ancestor of everything
	for _, blockHash := range append(xChain, yChain...) {
		checkAncestry(t, tc, genesisHash, blockHash, true)
	}

	// Disjoint branches are unreachable in both directions
	checkAncestry(t, tc, xChain[0], yChain[1], false)
	checkAncestry(t, tc, yChain[0], xChain[2], false)

	// A merging block is reachable from both branches
	mergingBlock, err := builder.AddBlock(xChain[2], yChain[1])
	if err != nil {
		t.Fatalf("AddBlock: %s", err)
	}
	checkAncestry(t, tc, xChain[0], mergingBlock, true)
	checkAncestry(t, tc, yChain[0], mergingBlock, true)
	checkAncestry(t, tc, mergingBlock, xChain[0], false)
}

// TestReindexTransparency verifies that reindexing, triggered naturally by
// interval exhaustion along a deep chain, never changes the answers of
// ancestry queries.
func TestReindexTransparency(t *testing.T) {
	tc := setupTestConsensus(t)
	builder := testutils.NewDAGBuilder(tc)
	genesisHash := tc.DAGParams.GenesisHash

	// Interval capacity along a chain halves with every block, so a chain
	// deeper than 64 blocks is guaranteed to exhaust its allocation and
	// trigger at least one reindex.
	chain, err := builder.AddChain(genesisHash, 70)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}
	sideChain, err := builder.AddChain(genesisHash, 3)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}

	type ancestryPair struct {
		a, b     *externalapi.DomainHash
		expected bool
	}
	pairs := []ancestryPair{
		{genesisHash, chain[69], true},
		{chain[0], chain[69], true},
		{chain[35], chain[36], true},
		{chain[36], chain[35], false},
		{chain[0], sideChain[2], false},
		{sideChain[0], chain[69], false},
		{sideChain[0], sideChain[2], true},
	}
	for _, pair := range pairs {
		checkAncestry(t, tc, pair.a, pair.b, pair.expected)
	}

	// Extend the main chain enough to force further reindexing and verify
	// that every recorded relation survived the relabeling.
	extension, err := builder.AddChain(chain[69], 70)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}
	for _, pair := range pairs {
		checkAncestry(t, tc, pair.a, pair.b, pair.expected)
	}
	checkAncestry(t, tc, chain[0], extension[69], true)
	checkAncestry(t, tc, sideChain[0], extension[69], false)
}

// TestReindexRootMovement verifies that the reindex root advances along
// the selected parent chain once blocks are deep enough past it.
func TestReindexRootMovement(t *testing.T) {
	tc := setupTestConsensus(t)
	tc.TestReachabilityManager.SetReindexWindow(5)

	builder := testutils.NewDAGBuilder(tc)
	genesisHash := tc.DAGParams.GenesisHash

	stagingArea := model.NewStagingArea()
	initialRoot, err := tc.TestReachabilityManager.ReachabilityReindexRoot(stagingArea)
	if err != nil {
		t.Fatalf("ReachabilityReindexRoot: %s", err)
	}
	if !initialRoot.Equal(genesisHash) {
		t.Fatalf("expected the initial reindex root to be the genesis block, got %s", initialRoot)
	}

	chain, err := builder.AddChain(genesisHash, 20)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}

	stagingArea = model.NewStagingArea()
	movedRoot, err := tc.TestReachabilityManager.ReachabilityReindexRoot(stagingArea)
	if err != nil {
		t.Fatalf("ReachabilityReindexRoot: %s", err)
	}
	if movedRoot.Equal(genesisHash) {
		t.Fatalf("expected the reindex root to advance past the genesis block")
	}

	// The root must stay on the selected parent chain of the tip
	checkAncestry(t, tc, movedRoot, chain[19], true)
}
