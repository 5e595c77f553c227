package reachabilitymanager

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
	"github.com/tos-network/tosdag/domain/consensus/utils/reachabilitydata"
)

func (rt *reachabilityManager) data(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (model.ReachabilityData, error) {

	return rt.reachabilityDataStore.ReachabilityData(rt.databaseContext, stagingArea, blockHash)
}

// dataForInsertion returns the existing reachability data of blockHash,
// as a mutable clone, or fresh empty data if the block has none yet.
func (rt *reachabilityManager) dataForInsertion(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (model.MutableReachabilityData, error) {

	hasData, err := rt.reachabilityDataStore.HasReachabilityData(rt.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if !hasData {
		return reachabilitydata.EmptyReachabilityData(), nil
	}

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return data.CloneMutable(), nil
}

func (rt *reachabilityManager) futureCoveringSet(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (model.FutureCoveringTreeNodeSet, error) {

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	return data.FutureCoveringSet(), nil
}

func (rt *reachabilityManager) interval(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	return data.Interval(), nil
}

func (rt *reachabilityManager) children(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	return data.Children(), nil
}

func (rt *reachabilityManager) parent(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	return data.Parent(), nil
}

func (rt *reachabilityManager) reindexRoot(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	return rt.reachabilityDataStore.ReachabilityReindexRoot(rt.databaseContext, stagingArea)
}
