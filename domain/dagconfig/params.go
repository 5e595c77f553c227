// Package dagconfig defines DAG configuration parameters for the
// standard networks and provides the ability for callers to define their
// own custom networks for testing purposes.
package dagconfig

import (
	"math/big"
	"time"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// The following constants are the default consensus parameters shared by
// the standard networks.
const (
	defaultGHOSTDAGK                      = externalapi.KType(18)
	defaultTargetTimePerBlock             = time.Second
	defaultDifficultyAdjustmentWindowSize = 2640
	defaultMaxDifficultyAdjustmentFactor  = 4
)

var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowMax is the highest proof of work value a block can
	// have for the main network. It is the value 2^255 - 1.
	mainPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// testnetPowMax is the highest proof of work value a block can
	// have for the test network. It is the value 2^255 - 1.
	testnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// simnetPowMax is the highest proof of work value a block can
	// have for the simulation network. It is the value 2^255 - 1.
	simnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Params defines a DAG network by its consensus parameters. These
// parameters may be used by applications to differentiate networks as well
// as address encoding and consensus rules.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// K defines the K parameter for GHOSTDAG consensus: the maximum
	// blue anticone size a blue block may have.
	K externalapi.KType

	// GenesisHeader defines the first block of the DAG.
	GenesisHeader externalapi.BlockHeader

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowMax defines the highest allowed proof of work value for a
	// block as a uint256.
	PowMax *big.Int

	// TargetTimePerBlock defines the target time between blocks.
	TargetTimePerBlock time.Duration

	// DifficultyAdjustmentWindowSize defines the size of the blue block
	// window used by the difficulty adjustment algorithm.
	DifficultyAdjustmentWindowSize uint64

	// MaxDifficultyAdjustmentFactor bounds the per-step difficulty
	// target adjustment in both directions.
	MaxDifficultyAdjustmentFactor uint64
}

// GenesisBits returns the difficulty bits of the network's genesis block.
func (p *Params) GenesisBits() uint32 {
	return p.GenesisHeader.Bits()
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                           "tosdag-mainnet",
	K:                              defaultGHOSTDAGK,
	GenesisHeader:                  mainnetGenesisHeader,
	GenesisHash:                    mainnetGenesisHash,
	PowMax:                         mainPowMax,
	TargetTimePerBlock:             defaultTargetTimePerBlock,
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	MaxDifficultyAdjustmentFactor:  defaultMaxDifficultyAdjustmentFactor,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                           "tosdag-testnet",
	K:                              defaultGHOSTDAGK,
	GenesisHeader:                  testnetGenesisHeader,
	GenesisHash:                    testnetGenesisHash,
	PowMax:                         testnetPowMax,
	TargetTimePerBlock:             defaultTargetTimePerBlock,
	DifficultyAdjustmentWindowSize: defaultDifficultyAdjustmentWindowSize,
	MaxDifficultyAdjustmentFactor:  defaultMaxDifficultyAdjustmentFactor,
}

// SimnetParams defines the network parameters for the simulation network.
// It is used primarily by tests: the short difficulty window makes the
// difficulty adjustment observable with small DAGs.
var SimnetParams = Params{
	Name:                           "tosdag-simnet",
	K:                              defaultGHOSTDAGK,
	GenesisHeader:                  simnetGenesisHeader,
	GenesisHash:                    simnetGenesisHash,
	PowMax:                         simnetPowMax,
	TargetTimePerBlock:             defaultTargetTimePerBlock,
	DifficultyAdjustmentWindowSize: 264,
	MaxDifficultyAdjustmentFactor:  defaultMaxDifficultyAdjustmentFactor,
}
