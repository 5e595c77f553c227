package difficultymanager_test

import (
	"math/big"
	"testing"

	"github.com/tos-network/tosdag/domain/consensus"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/testutils"
	"github.com/tos-network/tosdag/domain/dagconfig"
	"github.com/tos-network/tosdag/util/difficulty"
)

// testGenesisBits is chosen well below the pow limit so both adjustment
// directions are observable.
const testGenesisBits = 0x1e7fffff

func setupTestConsensus(t *testing.T) *consensus.TestConsensus {
	t.Helper()

	params := dagconfig.SimnetParams
	genesisHeader := testutils.BuildHeader(nil, 0, testGenesisBits)
	params.GenesisHeader = genesisHeader
	params.GenesisHash = genesisHeader.Hash()
	params.DifficultyAdjustmentWindowSize = 4

	tc, err := consensus.NewFactory().NewTestConsensus(&params)
	if err != nil {
		t.Fatalf("NewTestConsensus: %s", err)
	}
	return tc
}

// addChainWithSpacing adds length single-parent blocks on top of the
// genesis block, spaced spacingMilliseconds apart, and returns the tip.
func addChainWithSpacing(t *testing.T, tc *consensus.TestConsensus,
	length int, spacingMilliseconds int64) *externalapi.DomainHash {

	t.Helper()

	current := tc.DAGParams.GenesisHash
	timestamp := tc.DAGParams.GenesisHeader.TimeInMilliseconds()
	for i := 0; i < length; i++ {
		timestamp += spacingMilliseconds
		header := testutils.BuildHeader([]*externalapi.DomainHash{current}, timestamp, testGenesisBits)
		err := tc.AddHeader(header)
		if err != nil {
			t.Fatalf("AddHeader: %s", err)
		}
		current = header.Hash()
	}
	return current
}

func requiredDifficulty(t *testing.T, tc *consensus.TestConsensus, tipHash *externalapi.DomainHash) uint32 {
	t.Helper()

	bits, err := tc.RequiredDifficulty(tipHash)
	if err != nil {
		t.Fatalf("RequiredDifficulty: %s", err)
	}
	return bits
}

func TestRequiredDifficultyInsufficientWindow(t *testing.T) {
	tc := setupTestConsensus(t)

	// With fewer blue blocks than the window needs, the difficulty stays
	// at the genesis value.
	tip := addChainWithSpacing(t, tc, 2, 1000)
	if bits := requiredDifficulty(t, tc, tip); bits != testGenesisBits {
		t.Errorf("required difficulty: got %x, want genesis bits %x", bits, testGenesisBits)
	}
}

func TestRequiredDifficultyOnPace(t *testing.T) {
	tc := setupTestConsensus(t)

	// Blocks arriving exactly at the target rate leave the target intact.
	tip := addChainWithSpacing(t, tc, 5, tc.DAGParams.TargetTimePerBlock.Milliseconds())
	if bits := requiredDifficulty(t, tc, tip); bits != testGenesisBits {
		t.Errorf("required difficulty: got %x, want unchanged genesis bits %x", bits, testGenesisBits)
	}
}

func TestRequiredDifficultyAdjustsUp(t *testing.T) {
	tc := setupTestConsensus(t)

	// Blocks arriving at half the target rate double the target (halve
	// the difficulty).
	tip := addChainWithSpacing(t, tc, 5, 2*tc.DAGParams.TargetTimePerBlock.Milliseconds())

	expectedTarget := new(big.Int).Mul(difficulty.CompactToBig(testGenesisBits), big.NewInt(2))
	expectedBits := difficulty.BigToCompact(expectedTarget)
	if bits := requiredDifficulty(t, tc, tip); bits != expectedBits {
		t.Errorf("required difficulty: got %x, want %x", bits, expectedBits)
	}
}

func TestRequiredDifficultyAdjustsDown(t *testing.T) {
	tc := setupTestConsensus(t)

	// Blocks arriving at twice the target rate halve the target (double
	// the difficulty).
	tip := addChainWithSpacing(t, tc, 5, tc.DAGParams.TargetTimePerBlock.Milliseconds()/2)

	expectedTarget := new(big.Int).Div(difficulty.CompactToBig(testGenesisBits), big.NewInt(2))
	expectedBits := difficulty.BigToCompact(expectedTarget)
	if bits := requiredDifficulty(t, tc, tip); bits != expectedBits {
		t.Errorf("required difficulty: got %x, want %x", bits, expectedBits)
	}
}

func TestRequiredDifficultyClamping(t *testing.T) {
	tc := setupTestConsensus(t)

	// An extreme timespan must not move the target by more than the
	// maximum adjustment factor in a single step.
	tip := addChainWithSpacing(t, tc, 5, 100*tc.DAGParams.TargetTimePerBlock.Milliseconds())

	factor := new(big.Int).SetUint64(tc.DAGParams.MaxDifficultyAdjustmentFactor)
	expectedTarget := new(big.Int).Mul(difficulty.CompactToBig(testGenesisBits), factor)
	expectedBits := difficulty.BigToCompact(expectedTarget)
	if bits := requiredDifficulty(t, tc, tip); bits != expectedBits {
		t.Errorf("required difficulty: got %x, want %x", bits, expectedBits)
	}
}
