package binaryserialization

import (
	"bytes"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// SerializeHeader serializes a BlockHeader to a slice of bytes
func SerializeHeader(header externalapi.BlockHeader) []byte {
	w := &bytes.Buffer{}

	writeHash(w, header.Hash())
	writeHashSlice(w, header.ParentHashes())
	writeUint64(w, uint64(header.TimeInMilliseconds()))
	writeUint32(w, header.Bits())

	return w.Bytes()
}

// DeserializeHeader deserializes a slice of bytes to a BlockHeader
func DeserializeHeader(headerBytes []byte) (externalapi.BlockHeader, error) {
	r := bytes.NewReader(headerBytes)

	hash, err := readHash(r)
	if err != nil {
		return nil, err
	}
	parentHashes, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}
	timeInMilliseconds, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	bits, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	return externalapi.NewBlockHeader(hash, parentHashes, int64(timeInMilliseconds), bits), nil
}
