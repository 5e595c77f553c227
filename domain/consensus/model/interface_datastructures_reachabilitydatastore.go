package model

import "github.com/tos-network/tosdag/domain/consensus/model/externalapi"

// ReachabilityDataStore represents a store of ReachabilityData.
//
// Unlike GHOSTDAG data, reachability data for an existing block may be
// staged again: reindexing relabels intervals without changing the
// ancestor relation they encode. The reindex root is owned by the
// reachability manager and persisted here.
type ReachabilityDataStore interface {
	StageReachabilityData(stagingArea *StagingArea, blockHash *externalapi.DomainHash, reachabilityData ReachabilityData)
	StageReachabilityReindexRoot(stagingArea *StagingArea, reachabilityReindexRoot *externalapi.DomainHash)
	IsStaged(stagingArea *StagingArea) bool
	ReachabilityData(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (ReachabilityData, error)
	HasReachabilityData(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	ReachabilityReindexRoot(dbContext DBReader, stagingArea *StagingArea) (*externalapi.DomainHash, error)
}
