package binaryserialization

import (
	"bytes"

	"github.com/tos-network/tosdag/domain/consensus/model"
)

// SerializeBlockRelations serializes BlockRelations to a slice of bytes
func SerializeBlockRelations(blockRelations *model.BlockRelations) []byte {
	w := &bytes.Buffer{}

	writeHashSlice(w, blockRelations.Parents)
	writeHashSlice(w, blockRelations.Children)

	return w.Bytes()
}

// DeserializeBlockRelations deserializes a slice of bytes to BlockRelations
func DeserializeBlockRelations(blockRelationsBytes []byte) (*model.BlockRelations, error) {
	r := bytes.NewReader(blockRelationsBytes)

	parents, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}
	children, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}

	return &model.BlockRelations{
		Parents:  parents,
		Children: children,
	}, nil
}
