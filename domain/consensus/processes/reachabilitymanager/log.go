package reachabilitymanager

import (
	"github.com/tos-network/tosdag/infrastructure/logger"
)

var log = logger.RegisterSubSystem("REAC")
