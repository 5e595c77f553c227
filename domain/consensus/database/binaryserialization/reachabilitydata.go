package binaryserialization

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/domain/consensus/utils/reachabilitydata"
)

// SerializeReachabilityData serializes ReachabilityData to a slice of bytes
func SerializeReachabilityData(data model.ReachabilityData) []byte {
	w := &bytes.Buffer{}

	writeHashSlice(w, data.Children())

	if data.Parent() == nil {
		w.WriteByte(0)
	} else {
		w.WriteByte(1)
		writeHash(w, data.Parent())
	}

	interval := data.Interval()
	writeUint64(w, interval.Start)
	writeUint64(w, interval.End)

	writeHashSlice(w, data.FutureCoveringSet())

	return w.Bytes()
}

// DeserializeReachabilityData deserializes a slice of bytes to ReachabilityData
func DeserializeReachabilityData(dataBytes []byte) (model.ReachabilityData, error) {
	r := bytes.NewReader(dataBytes)

	children, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}

	hasParent, err := r.ReadByte()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	data := reachabilitydata.EmptyReachabilityData()
	for _, child := range children {
		data.AddChild(child)
	}
	if hasParent == 1 {
		parent, err := readHash(r)
		if err != nil {
			return nil, err
		}
		data.SetParent(parent)
	}

	start, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	end, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	data.SetInterval(&model.ReachabilityInterval{Start: start, End: end})

	futureCoveringSet, err := readHashSlice(r)
	if err != nil {
		return nil, err
	}
	data.SetFutureCoveringSet(futureCoveringSet)

	return data, nil
}
