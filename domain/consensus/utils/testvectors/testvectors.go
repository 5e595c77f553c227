// Package testvectors implements the JSON conformance vector format that
// all implementations of the consensus core must reproduce exactly.
package testvectors

import (
	"encoding/json"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// GenesisID is the block id that refers to the vector's genesis block in
// parent lists and expectations.
const GenesisID = "genesis"

// Vector is a full conformance scenario: a K parameter, a genesis hash
// and an ordered list of blocks (parents before children).
type Vector struct {
	K           externalapi.KType `json:"k"`
	GenesisHash string            `json:"genesis_hash"`
	Blocks      []*Block          `json:"blocks"`
}

// Block is a single block of a conformance scenario together with its
// expected consensus data.
type Block struct {
	ID         string    `json:"id"`
	Hash       string    `json:"hash"`
	Parents    []string  `json:"parents"`
	Difficulty uint32    `json:"difficulty"`
	Timestamp  int64     `json:"timestamp"`
	Expected   *Expected `json:"expected"`
}

// Expected carries the consensus data a conforming implementation must
// produce for a block. Every field must reproduce exactly.
type Expected struct {
	BlueScore          uint64         `json:"blue_score"`
	BlueWork           string         `json:"blue_work"`
	SelectedParent     string         `json:"selected_parent"`
	MergeSetBlues      []string       `json:"mergeset_blues"`
	MergeSetReds       []string       `json:"mergeset_reds"`
	BluesAnticoneSizes map[string]int `json:"blues_anticone_sizes"`
	MergeSetNonDAA     []string       `json:"mergeset_non_daa"`
}

// Decode reads a conformance vector from the given reader.
func Decode(r io.Reader) (*Vector, error) {
	vector := &Vector{}
	decoder := json.NewDecoder(r)
	err := decoder.Decode(vector)
	if err != nil {
		return nil, errors.Wrap(err, "failed decoding conformance vector")
	}
	return vector, nil
}

// LoadFromFile reads a conformance vector from the file at the given path.
func LoadFromFile(path string) (*Vector, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening conformance vector file %s", path)
	}
	defer file.Close()

	return Decode(file)
}

// ParseBlueWork parses the expected blue work, which may be a decimal
// string or a 0x-prefixed hexadecimal string.
func (e *Expected) ParseBlueWork() (*big.Int, error) {
	blueWork := new(big.Int)
	var ok bool
	if strings.HasPrefix(e.BlueWork, "0x") {
		_, ok = blueWork.SetString(strings.TrimPrefix(e.BlueWork, "0x"), 16)
	} else {
		_, ok = blueWork.SetString(e.BlueWork, 10)
	}
	if !ok {
		return nil, errors.Errorf("failed parsing blue work %q", e.BlueWork)
	}
	return blueWork, nil
}

// DomainHash parses the block's 64-hex-character hash.
func (b *Block) DomainHash() (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromString(b.Hash)
}
