// Package binaryserialization holds the store-level binary codecs for
// every object the consensus persists. All integers are little endian.
package binaryserialization

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

var byteOrder = binary.LittleEndian

func writeUint64(w *bytes.Buffer, value uint64) {
	var scratch [8]byte
	byteOrder.PutUint64(scratch[:], value)
	w.Write(scratch[:])
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var scratch [8]byte
	_, err := io.ReadFull(r, scratch[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return byteOrder.Uint64(scratch[:]), nil
}

func writeUint32(w *bytes.Buffer, value uint32) {
	var scratch [4]byte
	byteOrder.PutUint32(scratch[:], value)
	w.Write(scratch[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var scratch [4]byte
	_, err := io.ReadFull(r, scratch[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return byteOrder.Uint32(scratch[:]), nil
}

func writeHash(w *bytes.Buffer, hash *externalapi.DomainHash) {
	w.Write(hash.ByteSlice())
}

func readHash(r *bytes.Reader) (*externalapi.DomainHash, error) {
	var hashBytes [externalapi.DomainHashSize]byte
	_, err := io.ReadFull(r, hashBytes[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewDomainHashFromByteArray(&hashBytes), nil
}

func writeHashSlice(w *bytes.Buffer, hashes []*externalapi.DomainHash) {
	writeUint64(w, uint64(len(hashes)))
	for _, hash := range hashes {
		writeHash(w, hash)
	}
}

func readHashSlice(r *bytes.Reader) ([]*externalapi.DomainHash, error) {
	length, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	if length > uint64(r.Len())/externalapi.DomainHashSize {
		return nil, errors.Errorf("serialized hash slice length %d exceeds the remaining data", length)
	}
	hashes := make([]*externalapi.DomainHash, length)
	for i := uint64(0); i < length; i++ {
		hashes[i], err = readHash(r)
		if err != nil {
			return nil, err
		}
	}
	return hashes, nil
}
