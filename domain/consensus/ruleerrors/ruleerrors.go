// Package ruleerrors defines the typed errors the consensus core
// surfaces to the ingestion pipeline.
//
// The taxonomy is:
//   - recoverable-by-retry: ErrMissingAncestorData. The caller must park the
//     block and retry once the missing dependency is processed; the core
//     never substitutes defaults.
//   - rejection: ErrDuplicateConsensusData, ErrInvalidParent.
//   - fatal/consensus-breaking: ErrBlueScoreOverflow, ErrBlueWorkOverflow,
//     ErrReindexCapacityExceeded. These indicate an attack, a scale
//     assumption violation or an implementation bug. They halt acceptance
//     of the offending block and are never silently absorbed.
package ruleerrors

import "github.com/pkg/errors"

// ErrMissingAncestorData indicates that a referenced parent's consensus
// data is not yet available. Non-fatal: retry after the dependency
// resolves.
var ErrMissingAncestorData = errors.New("consensus data for an ancestor is missing")

// ErrDuplicateConsensusData indicates a second classification attempt for
// an already-classified block hash. Consensus data is write-once; the
// check is performed atomically at the storage boundary.
var ErrDuplicateConsensusData = errors.New("consensus data for this block already exists")

// ErrInvalidParent indicates a malformed parent reference, e.g. a block
// listing the same parent twice or listing itself as a parent.
var ErrInvalidParent = errors.New("invalid parent reference")

// ErrBlueScoreOverflow indicates that a blue score computation overflowed
// uint64. Must never wrap.
var ErrBlueScoreOverflow = errors.New("blue score overflow")

// ErrBlueWorkOverflow indicates that a blue work computation exceeded
// 256 bits. Must never wrap.
var ErrBlueWorkOverflow = errors.New("blue work overflow")

// ErrReindexCapacityExceeded indicates that a reachability reindex ran out
// of interval capacity at the tree root. Under a correctly tuned interval
// allocation this requires more than 2^64 blocks, so hitting it means
// either a scale assumption violation or an implementation bug.
var ErrReindexCapacityExceeded = errors.New("reachability reindex interval capacity exceeded")
