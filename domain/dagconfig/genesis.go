package dagconfig

import (
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/consensushashing"
)

// newGenesisHeader builds a parentless header with the given timestamp and
// difficulty bits and computes its hash with the domain header hasher.
func newGenesisHeader(timeInMilliseconds int64, bits uint32) (externalapi.BlockHeader, *externalapi.DomainHash) {
	hash := consensushashing.HeaderHash(nil, timeInMilliseconds, bits)
	header := externalapi.NewBlockHeader(hash, []*externalapi.DomainHash{}, timeInMilliseconds, bits)
	return header, hash
}

// mainnetGenesisHeader is the genesis block header of the main network.
var mainnetGenesisHeader, mainnetGenesisHash = newGenesisHeader(0x17e2e57e440, 0x207fffff)

// testnetGenesisHeader is the genesis block header of the test network.
var testnetGenesisHeader, testnetGenesisHash = newGenesisHeader(0x17e2e57e441, 0x207fffff)

// simnetGenesisHeader is the genesis block header of the simulation
// network. Its zero timestamp makes simnet DAGs fully deterministic.
var simnetGenesisHeader, simnetGenesisHash = newGenesisHeader(0, 0x207fffff)
