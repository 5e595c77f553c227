package externalapi

// BlockHeader represents the header of a block that has already passed
// proof-of-work verification. It is read-only for the consensus core:
// the hash is the block's unique identity and is carried alongside the
// header fields rather than recomputed on every access.
type BlockHeader interface {
	Hash() *DomainHash
	ParentHashes() []*DomainHash
	TimeInMilliseconds() int64
	Bits() uint32
}

type blockHeader struct {
	hash               *DomainHash
	parentHashes       []*DomainHash
	timeInMilliseconds int64
	bits               uint32
}

func (bh *blockHeader) Hash() *DomainHash {
	return bh.hash
}

func (bh *blockHeader) ParentHashes() []*DomainHash {
	return CloneHashes(bh.parentHashes)
}

func (bh *blockHeader) TimeInMilliseconds() int64 {
	return bh.timeInMilliseconds
}

func (bh *blockHeader) Bits() uint32 {
	return bh.bits
}

// NewBlockHeader creates a block header with an externally supplied hash.
// The consensus core treats hashes as opaque identities, so callers that
// hash headers themselves (or replay recorded DAGs) pass the digest in.
func NewBlockHeader(hash *DomainHash, parentHashes []*DomainHash,
	timeInMilliseconds int64, bits uint32) BlockHeader {

	return &blockHeader{
		hash:               hash,
		parentHashes:       CloneHashes(parentHashes),
		timeInMilliseconds: timeInMilliseconds,
		bits:               bits,
	}
}
