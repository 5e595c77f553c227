package binaryserialization

import (
	"bytes"
	"io"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// SerializeGHOSTDAGData serializes BlockGHOSTDAGData to a slice of bytes
func SerializeGHOSTDAGData(ghostdagData *externalapi.BlockGHOSTDAGData) []byte {
	w := &bytes.Buffer{}

	writeUint64(w, ghostdagData.BlueScore())

	blueWorkBytes := ghostdagData.BlueWork().Bytes()
	writeUint64(w, uint64(len(blueWorkBytes)))
	w.Write(blueWorkBytes)

	if ghostdagData.SelectedParent() == nil {
		w.WriteByte(0)
	} else {
		w.WriteByte(1)
		writeHash(w, ghostdagData.SelectedParent())
	}

	writeHashSlice(w, ghostdagData.MergeSetBlues())
	writeHashSlice(w, ghostdagData.MergeSetReds())

	// Map iteration order is not deterministic, so keys are sorted to
	// keep the stored bytes canonical.
	bluesAnticoneSizes := ghostdagData.BluesAnticoneSizes()
	blues := make([]externalapi.DomainHash, 0, len(bluesAnticoneSizes))
	for blue := range bluesAnticoneSizes {
		blues = append(blues, blue)
	}
	sort.Slice(blues, func(i, j int) bool {
		return blues[i].Less(&blues[j])
	})
	writeUint64(w, uint64(len(blues)))
	for i := range blues {
		writeHash(w, &blues[i])
		w.WriteByte(byte(bluesAnticoneSizes[blues[i]]))
	}

	writeHashSlice(w, ghostdagData.MergeSetNonDAA())

	return w.Bytes()
}

// DeserializeGHOSTDAGData deserializes a slice of bytes to BlockGHOSTDAGData
func DeserializeGHOSTDAGData(ghostdagDataBytes []byte) (*externalapi.BlockGHOSTDAGData, error) {
	r := bytes.NewReader(ghostdagDataBytes)

	blueScore, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	blueWorkLength, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	if blueWorkLength > uint64(r.Len()) {
		return nil, errors.Errorf("serialized blue work length %d exceeds the remaining data", blueWorkLength)
	}
	blueWorkBytes := make([]byte, blueWorkLength)
	_, err = io.ReadFull(r, blueWorkBytes)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	blueWork := new(big.Int).SetBytes(blueWorkBytes)

	hasSelectedParent, err := r.ReadByte()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var selectedParent *externalapi.DomainHash
	if hasSelectedParent == 1 {
		selectedParent, err = readHash(r)
		if err != nil {
			return nil, err
		}
	}

	mergeSetBlues, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}
	mergeSetReds, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}

	bluesAnticoneSizesLength, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	if bluesAnticoneSizesLength > uint64(r.Len())/(externalapi.DomainHashSize+1) {
		return nil, errors.Errorf("serialized blues anticone sizes length %d exceeds the remaining data",
			bluesAnticoneSizesLength)
	}
	bluesAnticoneSizes := make(map[externalapi.DomainHash]externalapi.KType, bluesAnticoneSizesLength)
	for i := uint64(0); i < bluesAnticoneSizesLength; i++ {
		blue, err := readHash(r)
		if err != nil {
			return nil, err
		}
		anticoneSize, err := r.ReadByte()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		bluesAnticoneSizes[*blue] = externalapi.KType(anticoneSize)
	}

	mergeSetNonDAA, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}

	return externalapi.NewBlockGHOSTDAGData(blueScore, blueWork, selectedParent,
		mergeSetBlues, mergeSetReds, bluesAnticoneSizes, mergeSetNonDAA), nil
}
