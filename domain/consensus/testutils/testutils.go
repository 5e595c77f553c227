// Package testutils provides helpers for building DAGs through the
// public consensus API in tests.
package testutils

import (
	"github.com/tos-network/tosdag/domain/consensus"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/consensushashing"
)

// BuildHeader builds a block header whose hash is derived from its
// contents with the domain header hasher.
func BuildHeader(parents []*externalapi.DomainHash, timeInMilliseconds int64, bits uint32) externalapi.BlockHeader {
	hash := consensushashing.HeaderHash(parents, timeInMilliseconds, bits)
	return externalapi.NewBlockHeader(hash, parents, timeInMilliseconds, bits)
}

// DAGBuilder adds blocks to a test consensus with automatically advancing
// timestamps, so that consecutive blocks never collide on the same hash.
type DAGBuilder struct {
	tc        *consensus.TestConsensus
	timestamp int64
}

// NewDAGBuilder creates a DAGBuilder over the given test consensus. The
// first added block is timestamped one target-time-per-block after the
// network's genesis.
func NewDAGBuilder(tc *consensus.TestConsensus) *DAGBuilder {
	return &DAGBuilder{
		tc:        tc,
		timestamp: tc.DAGParams.GenesisHeader.TimeInMilliseconds(),
	}
}

// AddBlock adds a block with the given parents and returns its hash.
func (db *DAGBuilder) AddBlock(parents ...*externalapi.DomainHash) (*externalapi.DomainHash, error) {
	return db.AddBlockWithBits(db.tc.DAGParams.GenesisBits(), parents...)
}

// AddBlockWithBits adds a block with the given difficulty bits and
// parents and returns its hash.
func (db *DAGBuilder) AddBlockWithBits(bits uint32, parents ...*externalapi.DomainHash) (*externalapi.DomainHash, error) {
	db.timestamp += db.tc.DAGParams.TargetTimePerBlock.Milliseconds()
	header := BuildHeader(parents, db.timestamp, bits)
	err := db.tc.AddHeader(header)
	if err != nil {
		return nil, err
	}
	return header.Hash(), nil
}

// AddChain adds a chain of length blocks on top of the given parent and
// returns the hashes of the added blocks in order.
func (db *DAGBuilder) AddChain(parent *externalapi.DomainHash, length int) ([]*externalapi.DomainHash, error) {
	chain := make([]*externalapi.DomainHash, 0, length)
	current := parent
	for i := 0; i < length; i++ {
		blockHash, err := db.AddBlock(current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, blockHash)
		current = blockHash
	}
	return chain, nil
}
