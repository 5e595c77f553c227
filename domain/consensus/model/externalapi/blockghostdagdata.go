package externalapi

import "math/big"

// KType defines the size of the GHOSTDAG consensus algorithm K parameter,
// and of the blue-restricted anticone sizes it bounds.
type KType byte

// BlockGHOSTDAGData represents GHOSTDAG data for some block.
// It is created exactly once per block hash and is immutable thereafter.
//
// Note that unlike some GHOSTDAG presentations, MergeSetBlues does NOT
// contain the selected parent: the selected parent is not a mergeset
// member. BluesAnticoneSizes does carry an entry for the selected parent
// (always 0) since future classification steps need to look it up.
type BlockGHOSTDAGData struct {
	blueScore          uint64
	blueWork           *big.Int
	selectedParent     *DomainHash
	mergeSetBlues      []*DomainHash
	mergeSetReds       []*DomainHash
	bluesAnticoneSizes map[DomainHash]KType
	mergeSetNonDAA     []*DomainHash
}

// NewBlockGHOSTDAGData creates a new instance of BlockGHOSTDAGData
func NewBlockGHOSTDAGData(
	blueScore uint64,
	blueWork *big.Int,
	selectedParent *DomainHash,
	mergeSetBlues []*DomainHash,
	mergeSetReds []*DomainHash,
	bluesAnticoneSizes map[DomainHash]KType,
	mergeSetNonDAA []*DomainHash) *BlockGHOSTDAGData {

	return &BlockGHOSTDAGData{
		blueScore:          blueScore,
		blueWork:           blueWork,
		selectedParent:     selectedParent,
		mergeSetBlues:      mergeSetBlues,
		mergeSetReds:       mergeSetReds,
		bluesAnticoneSizes: bluesAnticoneSizes,
		mergeSetNonDAA:     mergeSetNonDAA,
	}
}

// BlueScore returns the count of blue blocks in this block's blue past
func (bgd *BlockGHOSTDAGData) BlueScore() uint64 {
	return bgd.blueScore
}

// BlueWork returns the cumulative proof-of-work weight of this block's blue past
func (bgd *BlockGHOSTDAGData) BlueWork() *big.Int {
	return bgd.blueWork
}

// SelectedParent returns the parent with the greatest blue work.
// It is nil only for the genesis block.
func (bgd *BlockGHOSTDAGData) SelectedParent() *DomainHash {
	return bgd.selectedParent
}

// MergeSetBlues returns the mergeset members accepted as blue,
// in the deterministic mergeset order.
func (bgd *BlockGHOSTDAGData) MergeSetBlues() []*DomainHash {
	return bgd.mergeSetBlues
}

// MergeSetReds returns the mergeset members rejected as k-cluster violators,
// in the deterministic mergeset order.
func (bgd *BlockGHOSTDAGData) MergeSetReds() []*DomainHash {
	return bgd.mergeSetReds
}

// BluesAnticoneSizes returns, for the selected parent and every blue
// mergeset member, the size of its anticone restricted to the blue set
// accumulated at classification time.
func (bgd *BlockGHOSTDAGData) BluesAnticoneSizes() map[DomainHash]KType {
	return bgd.bluesAnticoneSizes
}

// MergeSetNonDAA returns the mergeset members excluded from difficulty
// adjustment timing calculations.
func (bgd *BlockGHOSTDAGData) MergeSetNonDAA() []*DomainHash {
	return bgd.mergeSetNonDAA
}

// MergeSet returns the full mergeset: blues followed by reds.
func (bgd *BlockGHOSTDAGData) MergeSet() []*DomainHash {
	mergeSet := make([]*DomainHash, len(bgd.mergeSetBlues)+len(bgd.mergeSetReds))
	copy(mergeSet, bgd.mergeSetBlues)
	copy(mergeSet[len(bgd.mergeSetBlues):], bgd.mergeSetReds)

	return mergeSet
}

// Equal returns whether bgd equals to other
func (bgd *BlockGHOSTDAGData) Equal(other *BlockGHOSTDAGData) bool {
	if bgd == nil || other == nil {
		return bgd == other
	}

	if bgd.blueScore != other.blueScore {
		return false
	}

	if bgd.blueWork.Cmp(other.blueWork) != 0 {
		return false
	}

	if !bgd.selectedParent.Equal(other.selectedParent) {
		return false
	}

	if !HashesEqual(bgd.mergeSetBlues, other.mergeSetBlues) {
		return false
	}

	if !HashesEqual(bgd.mergeSetReds, other.mergeSetReds) {
		return false
	}

	if !HashesEqual(bgd.mergeSetNonDAA, other.mergeSetNonDAA) {
		return false
	}

	if len(bgd.bluesAnticoneSizes) != len(other.bluesAnticoneSizes) {
		return false
	}

	for hash, size := range bgd.bluesAnticoneSizes {
		otherSize, exists := other.bluesAnticoneSizes[hash]
		if !exists {
			return false
		}

		if size != otherSize {
			return false
		}
	}

	return true
}
