package model

import "github.com/tos-network/tosdag/domain/consensus/model/externalapi"

// GHOSTDAGDataStore represents a store of BlockGHOSTDAGData.
//
// GHOSTDAG data is write-once per block hash: staging data for a hash
// that was already committed causes the whole staging-area commit to
// fail with ruleerrors.ErrDuplicateConsensusData, atomically, inside the
// commit transaction.
type GHOSTDAGDataStore interface {
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, blockGHOSTDAGData *externalapi.BlockGHOSTDAGData)
	IsStaged(stagingArea *StagingArea) bool
	Get(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.BlockGHOSTDAGData, error)
	Has(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
}
