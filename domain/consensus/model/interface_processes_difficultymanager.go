package model

import "github.com/tos-network/tosdag/domain/consensus/model/externalapi"

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type DifficultyManager interface {
	// RequiredDifficulty returns the difficulty bits required for a block
	// pointing at the given tip.
	RequiredDifficulty(stagingArea *StagingArea, tipHash *externalapi.DomainHash) (uint32, error)
}
