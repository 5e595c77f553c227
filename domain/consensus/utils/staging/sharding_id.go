package staging

import (
	"sync/atomic"

	"github.com/tos-network/tosdag/domain/consensus/model"
)

var lastShardingID uint64

// GenerateShardingID generates a unique staging sharding ID
func GenerateShardingID() model.StagingShardID {
	return model.StagingShardID(atomic.AddUint64(&lastShardingID, 1))
}
