package consensus

import (
	"github.com/tos-network/tosdag/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CNSS")
