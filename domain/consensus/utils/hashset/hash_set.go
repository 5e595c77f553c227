package hashset

import (
	"strings"

	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// HashSet is an unordered set of DomainHashes
type HashSet map[externalapi.DomainHash]struct{}

// New creates and returns an empty HashSet
func New() HashSet {
	return HashSet{}
}

// NewFromSlice creates and returns a HashSet with contents
// according to the provided slice
func NewFromSlice(hashes ...*externalapi.DomainHash) HashSet {
	set := New()

	for _, hash := range hashes {
		set.Add(hash)
	}

	return set
}

func (hs HashSet) String() string {
	hashStrings := make([]string, 0, len(hs))
	for hash := range hs {
		hashStrings = append(hashStrings, hash.String())
	}
	return strings.Join(hashStrings, ", ")
}

// Add appends a hash to this HashSet. If this hash is already
// in this HashSet, this function does nothing
func (hs HashSet) Add(hash *externalapi.DomainHash) {
	hs[*hash] = struct{}{}
}

// Remove removes a hash from this HashSet. If this hash is not
// in this HashSet, this function does nothing
func (hs HashSet) Remove(hash *externalapi.DomainHash) {
	delete(hs, *hash)
}

// Contains returns whether the given hash is in this HashSet
func (hs HashSet) Contains(hash *externalapi.DomainHash) bool {
	_, ok := hs[*hash]
	return ok
}

// Subtract creates and returns a HashSet that contains all the
// hashes in this HashSet minus the ones in `other`
func (hs HashSet) Subtract(other HashSet) HashSet {
	diff := New()

	for hash := range hs {
		hash := hash
		if !other.Contains(&hash) {
			diff.Add(&hash)
		}
	}

	return diff
}

// ContainsAllInSlice returns whether this HashSet contains all
// hashes in the given slice
func (hs HashSet) ContainsAllInSlice(slice []*externalapi.DomainHash) bool {
	for _, hash := range slice {
		if !hs.Contains(hash) {
			return false
		}
	}

	return true
}

// ToSlice converts this HashSet into a slice of hashes
func (hs HashSet) ToSlice() []*externalapi.DomainHash {
	slice := make([]*externalapi.DomainHash, 0, len(hs))

	for hash := range hs {
		hash := hash
		slice = append(slice, &hash)
	}

	return slice
}

// Length returns the number of hashes in this HashSet
func (hs HashSet) Length() int {
	return len(hs)
}
