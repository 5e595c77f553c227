package testvectors

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/dagconfig"
)

// genesisBits is the difficulty of every vector's genesis block. The
// vector format does not carry it, so it is part of the conformance
// contract.
const genesisBits = 0x207fffff

// Mismatch describes a single expected field a replayed block failed to
// reproduce.
type Mismatch struct {
	BlockID string
	Field   string
	Got     interface{}
	Want    interface{}
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("block %q: %s: got %v, want %v", m.BlockID, m.Field, m.Got, m.Want)
}

// Run replays the given vector on a fresh in-memory consensus and returns
// every mismatch between the computed consensus data and the vector's
// expectations. A conforming implementation returns an empty slice.
func Run(vector *Vector) ([]*Mismatch, error) {
	genesisHash, err := externalapi.NewDomainHashFromString(vector.GenesisHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed parsing genesis hash")
	}

	params := dagconfig.SimnetParams
	params.K = vector.K
	params.GenesisHash = genesisHash
	params.GenesisHeader = externalapi.NewBlockHeader(
		genesisHash, []*externalapi.DomainHash{}, 0, genesisBits)

	tc, err := consensus.NewFactory().NewTestConsensus(&params)
	if err != nil {
		return nil, err
	}

	idToHash := map[string]*externalapi.DomainHash{GenesisID: genesisHash}
	hashToID := map[externalapi.DomainHash]string{*genesisHash: GenesisID}

	mismatches := []*Mismatch{}
	for _, block := range vector.Blocks {
		blockHash, err := block.DomainHash()
		if err != nil {
			return nil, errors.Wrapf(err, "failed parsing hash of block %q", block.ID)
		}

		parentHashes := make([]*externalapi.DomainHash, len(block.Parents))
		for i, parentID := range block.Parents {
			parentHash, ok := idToHash[parentID]
			if !ok {
				return nil, errors.Errorf("block %q references unknown parent %q", block.ID, parentID)
			}
			parentHashes[i] = parentHash
		}

		header := externalapi.NewBlockHeader(blockHash, parentHashes, block.Timestamp, block.Difficulty)
		err = tc.AddHeader(header)
		if err != nil {
			return nil, errors.Wrapf(err, "failed adding block %q", block.ID)
		}

		idToHash[block.ID] = blockHash
		hashToID[*blockHash] = block.ID

		blockMismatches, err := checkExpectations(tc, block, blockHash, idToHash, hashToID)
		if err != nil {
			return nil, err
		}
		mismatches = append(mismatches, blockMismatches...)
	}

	return mismatches, nil
}

func checkExpectations(tc *consensus.TestConsensus, block *Block, blockHash *externalapi.DomainHash,
	idToHash map[string]*externalapi.DomainHash, hashToID map[externalapi.DomainHash]string) ([]*Mismatch, error) {

	if block.Expected == nil {
		return nil, nil
	}
	expected := block.Expected

	ghostdagData, err := tc.GetBlockGHOSTDAGData(blockHash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed getting consensus data of block %q", block.ID)
	}

	mismatches := []*Mismatch{}
	mismatch := func(field string, got, want interface{}) {
		mismatches = append(mismatches, &Mismatch{BlockID: block.ID, Field: field, Got: got, Want: want})
	}

	if ghostdagData.BlueScore() != expected.BlueScore {
		mismatch("blue_score", ghostdagData.BlueScore(), expected.BlueScore)
	}

	expectedBlueWork, err := expected.ParseBlueWork()
	if err != nil {
		return nil, errors.Wrapf(err, "block %q", block.ID)
	}
	if ghostdagData.BlueWork().Cmp(expectedBlueWork) != 0 {
		mismatch("blue_work", ghostdagData.BlueWork().String(), expectedBlueWork.String())
	}

	expectedSelectedParent, ok := idToHash[expected.SelectedParent]
	if !ok {
		return nil, errors.Errorf("block %q expects unknown selected parent %q", block.ID, expected.SelectedParent)
	}
	if !ghostdagData.SelectedParent().Equal(expectedSelectedParent) {
		mismatch("selected_parent", hashToID[*ghostdagData.SelectedParent()], expected.SelectedParent)
	}

	checkOrderedIDList(mismatch, hashToID, "mergeset_blues", ghostdagData.MergeSetBlues(), expected.MergeSetBlues)
	checkOrderedIDList(mismatch, hashToID, "mergeset_reds", ghostdagData.MergeSetReds(), expected.MergeSetReds)

	gotAnticoneSizes := ghostdagData.BluesAnticoneSizes()
	if len(gotAnticoneSizes) != len(expected.BluesAnticoneSizes) {
		mismatch("blues_anticone_sizes", anticoneSizesAsIDs(gotAnticoneSizes, hashToID), expected.BluesAnticoneSizes)
	} else {
		for id, size := range expected.BluesAnticoneSizes {
			hash, ok := idToHash[id]
			if !ok {
				return nil, errors.Errorf("block %q expects anticone size for unknown block %q", block.ID, id)
			}
			gotSize, ok := gotAnticoneSizes[*hash]
			if !ok || int(gotSize) != size {
				mismatch("blues_anticone_sizes", anticoneSizesAsIDs(gotAnticoneSizes, hashToID), expected.BluesAnticoneSizes)
				break
			}
		}
	}

	// mergeset_non_daa is an unordered set
	gotNonDAA := make(map[string]struct{}, len(ghostdagData.MergeSetNonDAA()))
	for _, hash := range ghostdagData.MergeSetNonDAA() {
		gotNonDAA[hashToID[*hash]] = struct{}{}
	}
	nonDAAMatches := len(gotNonDAA) == len(expected.MergeSetNonDAA)
	if nonDAAMatches {
		for _, id := range expected.MergeSetNonDAA {
			if _, ok := gotNonDAA[id]; !ok {
				nonDAAMatches = false
				break
			}
		}
	}
	if !nonDAAMatches {
		mismatch("mergeset_non_daa", hashesAsIDs(ghostdagData.MergeSetNonDAA(), hashToID), expected.MergeSetNonDAA)
	}

	return mismatches, nil
}

func checkOrderedIDList(mismatch func(field string, got, want interface{}),
	hashToID map[externalapi.DomainHash]string, field string,
	got []*externalapi.DomainHash, want []string) {

	gotIDs := hashesAsIDs(got, hashToID)
	if len(gotIDs) != len(want) {
		mismatch(field, gotIDs, want)
		return
	}
	for i, id := range want {
		if gotIDs[i] != id {
			mismatch(field, gotIDs, want)
			return
		}
	}
}

func hashesAsIDs(hashes []*externalapi.DomainHash, hashToID map[externalapi.DomainHash]string) []string {
	ids := make([]string, len(hashes))
	for i, hash := range hashes {
		ids[i] = hashToID[*hash]
	}
	return ids
}

func anticoneSizesAsIDs(sizes map[externalapi.DomainHash]externalapi.KType,
	hashToID map[externalapi.DomainHash]string) map[string]int {

	ids := make(map[string]int, len(sizes))
	for hash, size := range sizes {
		ids[hashToID[hash]] = int(size)
	}
	return ids
}
