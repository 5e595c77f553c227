package ghostdagmanager_test

import (
	"math/big"
	"testing"

	"github.com/tos-network/tosdag/domain/consensus"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/testutils"
	"github.com/tos-network/tosdag/domain/dagconfig"
)

func setupTestConsensus(t *testing.T, params *dagconfig.Params) *consensus.TestConsensus {
	t.Helper()

	tc, err := consensus.NewFactory().NewTestConsensus(params)
	if err != nil {
		t.Fatalf("NewTestConsensus: %s", err)
	}
	return tc
}

// hashWithSuffix builds a hash whose ordering relative to other such
// hashes is determined by the given byte: hashes are compared as
// little-endian integers, so the last byte is the most significant.
func hashWithSuffix(suffix byte) *externalapi.DomainHash {
	var hashArray [externalapi.DomainHashSize]byte
	hashArray[externalapi.DomainHashSize-1] = suffix
	return externalapi.NewDomainHashFromByteArray(&hashArray)
}

func addBlockWithHash(t *testing.T, tc *consensus.TestConsensus, blockHash *externalapi.DomainHash,
	timeInMilliseconds int64, parents ...*externalapi.DomainHash) {

	t.Helper()

	header := externalapi.NewBlockHeader(blockHash, parents, timeInMilliseconds, tc.DAGParams.GenesisBits())
	err := tc.AddHeader(header)
	if err != nil {
		t.Fatalf("AddHeader(%s): %s", blockHash, err)
	}
}

func getGHOSTDAGData(t *testing.T, tc *consensus.TestConsensus,
	blockHash *externalapi.DomainHash) *externalapi.BlockGHOSTDAGData {

	t.Helper()

	ghostdagData, err := tc.GetBlockGHOSTDAGData(blockHash)
	if err != nil {
		t.Fatalf("GetBlockGHOSTDAGData(%s): %s", blockHash, err)
	}
	return ghostdagData
}

func checkHashes(t *testing.T, what string, got, want []*externalapi.DomainHash) {
	t.Helper()

	if !externalapi.HashesEqual(got, want) {
		t.Errorf("%s: got %v, want %v", what, got, want)
	}
}

func TestGenesisGHOSTDAGData(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := setupTestConsensus(t, &params)

	genesisData := getGHOSTDAGData(t, tc, params.GenesisHash)
	if genesisData.BlueScore() != 0 {
		t.Errorf("genesis blue score: got %d, want 0", genesisData.BlueScore())
	}
	if genesisData.BlueWork().Sign() != 0 {
		t.Errorf("genesis blue work: got %s, want 0", genesisData.BlueWork())
	}
	if genesisData.SelectedParent() != nil {
		t.Errorf("genesis selected parent: got %s, want nil", genesisData.SelectedParent())
	}
	if len(genesisData.MergeSetBlues()) != 0 || len(genesisData.MergeSetReds()) != 0 {
		t.Errorf("genesis mergeset is not empty")
	}
}

func TestLinearChain(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := setupTestConsensus(t, &params)
	builder := testutils.NewDAGBuilder(tc)

	chain, err := builder.AddChain(params.GenesisHash, 5)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}

	// Every block in the chain carries the same difficulty, so each block
	// adds the same amount of work to its blue past.
	workPerBlock := getGHOSTDAGData(t, tc, chain[0]).BlueWork()
	if workPerBlock.Sign() <= 0 {
		t.Fatalf("expected positive blue work for the first chain block, got %s", workPerBlock)
	}

	previous := params.GenesisHash
	for i, blockHash := range chain {
		blockData := getGHOSTDAGData(t, tc, blockHash)

		if blockData.BlueScore() != uint64(i+1) {
			t.Errorf("block %d blue score: got %d, want %d", i, blockData.BlueScore(), i+1)
		}
		if !blockData.SelectedParent().Equal(previous) {
			t.Errorf("block %d selected parent: got %s, want %s", i, blockData.SelectedParent(), previous)
		}
		if len(blockData.MergeSetBlues()) != 0 || len(blockData.MergeSetReds()) != 0 {
			t.Errorf("block %d: expected an empty mergeset for a chain block", i)
		}

		expectedWork := new(big.Int).Mul(workPerBlock, big.NewInt(int64(i+1)))
		if blockData.BlueWork().Cmp(expectedWork) != 0 {
			t.Errorf("block %d blue work: got %s, want %s", i, blockData.BlueWork(), expectedWork)
		}

		previous = blockHash
	}
}

func TestSelectedParentTieBreak(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := setupTestConsensus(t, &params)

	// Two siblings with identical blue work: the numerically smaller hash
	// must win the tie.
	blockA := hashWithSuffix(0x01)
	blockB := hashWithSuffix(0x02)
	blockC := hashWithSuffix(0x03)
	addBlockWithHash(t, tc, blockA, 1000, params.GenesisHash)
	addBlockWithHash(t, tc, blockB, 1000, params.GenesisHash)
	addBlockWithHash(t, tc, blockC, 2000, blockA, blockB)

	blockCData := getGHOSTDAGData(t, tc, blockC)
	if !blockCData.SelectedParent().Equal(blockA) {
		t.Errorf("selected parent: got %s, want %s", blockCData.SelectedParent(), blockA)
	}
	checkHashes(t, "mergeset blues", blockCData.MergeSetBlues(), []*externalapi.DomainHash{blockB})
	checkHashes(t, "mergeset reds", blockCData.MergeSetReds(), nil)

	if blockCData.BlueScore() != 3 {
		t.Errorf("blue score: got %d, want 3", blockCData.BlueScore())
	}

	// The non-selected sibling contributes to the anticone of the
	// selected parent and vice versa.
	anticoneSizes := blockCData.BluesAnticoneSizes()
	if anticoneSizes[*blockA] != 1 || anticoneSizes[*blockB] != 1 {
		t.Errorf("blues anticone sizes: got %v, want 1 for both siblings", anticoneSizes)
	}
}

func TestKClusterViolation(t *testing.T) {
	params := dagconfig.SimnetParams
	params.K = 1
	tc := setupTestConsensus(t, &params)

	// Three siblings merged at once with k=1: only one of them fits in
	// the blue set next to the selected parent.
	sibling1 := hashWithSuffix(0x01)
	sibling2 := hashWithSuffix(0x02)
	sibling3 := hashWithSuffix(0x03)
	mergingBlock := hashWithSuffix(0x04)
	addBlockWithHash(t, tc, sibling1, 1000, params.GenesisHash)
	addBlockWithHash(t, tc, sibling2, 1000, params.GenesisHash)
	addBlockWithHash(t, tc, sibling3, 1000, params.GenesisHash)
	addBlockWithHash(t, tc, mergingBlock, 2000, sibling1, sibling2, sibling3)

	mergingData := getGHOSTDAGData(t, tc, mergingBlock)
	if !mergingData.SelectedParent().Equal(sibling1) {
		t.Errorf("selected parent: got %s, want %s", mergingData.SelectedParent(), sibling1)
	}
	checkHashes(t, "mergeset blues", mergingData.MergeSetBlues(), []*externalapi.DomainHash{sibling2})
	checkHashes(t, "mergeset reds", mergingData.MergeSetReds(), []*externalapi.DomainHash{sibling3})

	if mergingData.BlueScore() != 3 {
		t.Errorf("blue score: got %d, want 3", mergingData.BlueScore())
	}
}

func TestKClusterWideMerge(t *testing.T) {
	params := dagconfig.SimnetParams
	params.K = 2
	tc := setupTestConsensus(t, &params)

	siblings := make([]*externalapi.DomainHash, 5)
	for i := range siblings {
		siblings[i] = hashWithSuffix(byte(i + 1))
		addBlockWithHash(t, tc, siblings[i], 1000, params.GenesisHash)
	}
	mergingBlock := hashWithSuffix(0x06)
	addBlockWithHash(t, tc, mergingBlock, 2000, siblings...)

	mergingData := getGHOSTDAGData(t, tc, mergingBlock)
	if !mergingData.SelectedParent().Equal(siblings[0]) {
		t.Errorf("selected parent: got %s, want %s", mergingData.SelectedParent(), siblings[0])
	}
	checkHashes(t, "mergeset blues", mergingData.MergeSetBlues(),
		[]*externalapi.DomainHash{siblings[1], siblings[2]})
	checkHashes(t, "mergeset reds", mergingData.MergeSetReds(),
		[]*externalapi.DomainHash{siblings[3], siblings[4]})

	// The k-cluster invariant: no blue block's anticone among blues may
	// exceed k.
	for blockHash, anticoneSize := range mergingData.BluesAnticoneSizes() {
		if anticoneSize > params.K {
			t.Errorf("blue block %s has anticone size %d, above k=%d", blockHash, anticoneSize, params.K)
		}
	}
}

func TestMergeSetNonDAA(t *testing.T) {
	params := dagconfig.SimnetParams
	params.DifficultyAdjustmentWindowSize = 3
	tc := setupTestConsensus(t, &params)
	builder := testutils.NewDAGBuilder(tc)

	chain, err := builder.AddChain(params.GenesisHash, 4)
	if err != nil {
		t.Fatalf("AddChain: %s", err)
	}

	// A stale sibling of the first chain block, merged only at the tip:
	// its blue score trails the merging block's by at least the
	// difficulty adjustment window, so it must be excluded from DAA.
	staleBlock := hashWithSuffix(0xee)
	addBlockWithHash(t, tc, staleBlock, 1500, params.GenesisHash)

	mergingBlock := hashWithSuffix(0xef)
	addBlockWithHash(t, tc, mergingBlock, 9000, chain[3], staleBlock)

	mergingData := getGHOSTDAGData(t, tc, mergingBlock)
	checkHashes(t, "mergeset blues", mergingData.MergeSetBlues(), []*externalapi.DomainHash{staleBlock})
	checkHashes(t, "mergeset non-DAA", mergingData.MergeSetNonDAA(), []*externalapi.DomainHash{staleBlock})

	// A freshly merged sibling of the selected parent stays in the DAA
	// set: its blue score trails the tip's by less than the window.
	childBlock := hashWithSuffix(0xf0)
	addBlockWithHash(t, tc, childBlock, 9500, mergingBlock)
	recentSibling := hashWithSuffix(0xf1)
	addBlockWithHash(t, tc, recentSibling, 9500, mergingBlock)
	tip := hashWithSuffix(0xf2)
	addBlockWithHash(t, tc, tip, 10000, childBlock, recentSibling)

	tipData := getGHOSTDAGData(t, tc, tip)
	checkHashes(t, "mergeset blues", tipData.MergeSetBlues(), []*externalapi.DomainHash{recentSibling})
	checkHashes(t, "mergeset non-DAA", tipData.MergeSetNonDAA(), nil)
}
