package reachabilitymanager

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// TestReachabilityManager exposes tuning knobs over ReachabilityManager so
// that tests can force frequent reindexing with small DAGs.
type TestReachabilityManager interface {
	model.ReachabilityManager

	SetReindexWindow(reindexWindow uint64)
	SetReindexSlack(reindexSlack uint64)
	ReindexSlack() uint64
	Interval(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error)
	ReachabilityReindexRoot(stagingArea *model.StagingArea) (*externalapi.DomainHash, error)
}

type testReachabilityManager struct {
	*reachabilityManager
}

func (t *testReachabilityManager) SetReindexWindow(reindexWindow uint64) {
	t.reachabilityManager.reindexWindow = reindexWindow
}

func (t *testReachabilityManager) SetReindexSlack(reindexSlack uint64) {
	t.reachabilityManager.reindexSlack = reindexSlack
}

func (t *testReachabilityManager) ReindexSlack() uint64 {
	return t.reachabilityManager.reindexSlack
}

func (t *testReachabilityManager) Interval(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	return t.reachabilityManager.interval(stagingArea, blockHash)
}

func (t *testReachabilityManager) ReachabilityReindexRoot(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	return t.reachabilityManager.reindexRoot(stagingArea)
}

// NewTestReachabilityManager creates an instance of a TestReachabilityManager
func NewTestReachabilityManager(manager model.ReachabilityManager) TestReachabilityManager {
	return &testReachabilityManager{reachabilityManager: manager.(*reachabilityManager)}
}
