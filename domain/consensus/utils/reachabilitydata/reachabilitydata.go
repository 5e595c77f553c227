package reachabilitydata

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/model/externalapi"
)

// reachabilityData holds a block's reachability tree position and
// future covering set. It implements both model.ReachabilityData and
// model.MutableReachabilityData.
//
// All setters operate on the receiver in place. Callers that need to
// preserve the original must clone first via CloneMutable.
type reachabilityData struct {
	children          []*externalapi.DomainHash
	parent            *externalapi.DomainHash
	interval          *model.ReachabilityInterval
	futureCoveringSet model.FutureCoveringTreeNodeSet
}

// EmptyReachabilityData constructs an empty MutableReachabilityData object
func EmptyReachabilityData() model.MutableReachabilityData {
	return &reachabilityData{}
}

// New constructs a ReachabilityData object filled with given fields
func New(children []*externalapi.DomainHash,
	parent *externalapi.DomainHash,
	interval *model.ReachabilityInterval,
	futureCoveringSet model.FutureCoveringTreeNodeSet) model.MutableReachabilityData {

	return &reachabilityData{
		children:          children,
		parent:            parent,
		interval:          interval,
		futureCoveringSet: futureCoveringSet,
	}
}

func (rd *reachabilityData) Children() []*externalapi.DomainHash {
	return rd.children
}

func (rd *reachabilityData) Parent() *externalapi.DomainHash {
	return rd.parent
}

func (rd *reachabilityData) Interval() *model.ReachabilityInterval {
	return rd.interval
}

func (rd *reachabilityData) FutureCoveringSet() model.FutureCoveringTreeNodeSet {
	return rd.futureCoveringSet
}

// CloneMutable returns a deep copy that is safe to mutate without
// affecting the original.
func (rd *reachabilityData) CloneMutable() model.MutableReachabilityData {
	clone := &reachabilityData{
		children:          externalapi.CloneHashes(rd.children),
		futureCoveringSet: rd.futureCoveringSet.Clone(),
	}
	if rd.parent != nil {
		clone.parent = rd.parent
	}
	if rd.interval != nil {
		clone.interval = &model.ReachabilityInterval{Start: rd.interval.Start, End: rd.interval.End}
	}
	return clone
}

func (rd *reachabilityData) Equal(other model.ReachabilityData) bool {
	if rd == nil || other == nil {
		return model.ReachabilityData(rd) == other
	}

	if !externalapi.HashesEqual(rd.children, other.Children()) {
		return false
	}

	if rd.parent == nil || other.Parent() == nil {
		if (rd.parent == nil) != (other.Parent() == nil) {
			return false
		}
	} else if !rd.parent.Equal(other.Parent()) {
		return false
	}

	if rd.interval == nil || other.Interval() == nil {
		if (rd.interval == nil) != (other.Interval() == nil) {
			return false
		}
	} else if *rd.interval != *other.Interval() {
		return false
	}

	return externalapi.HashesEqual(rd.futureCoveringSet, other.FutureCoveringSet())
}

func (rd *reachabilityData) AddChild(child *externalapi.DomainHash) {
	rd.children = append(rd.children, child)
}

func (rd *reachabilityData) SetParent(parent *externalapi.DomainHash) {
	rd.parent = parent
}

func (rd *reachabilityData) SetInterval(interval *model.ReachabilityInterval) {
	rd.interval = interval
}

func (rd *reachabilityData) SetFutureCoveringSet(futureCoveringSet model.FutureCoveringTreeNodeSet) {
	rd.futureCoveringSet = futureCoveringSet
}
