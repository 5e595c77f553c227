// Package consensushashing computes the canonical hashes of consensus
// objects. Header identity covers every header field except the hash
// itself.
package consensushashing

import (
	"encoding/binary"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/hashes"
)

// HeaderHash computes the hash of a header built from the given fields.
func HeaderHash(parentHashes []*externalapi.DomainHash, timeInMilliseconds int64, bits uint32) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(parentHashes)))
	writer.InfallibleWrite(scratch[:])
	for _, parentHash := range parentHashes {
		writer.InfallibleWrite(parentHash.ByteSlice())
	}

	binary.LittleEndian.PutUint64(scratch[:], uint64(timeInMilliseconds))
	writer.InfallibleWrite(scratch[:])

	binary.LittleEndian.PutUint32(scratch[:4], bits)
	writer.InfallibleWrite(scratch[:4])

	return writer.Finalize()
}
