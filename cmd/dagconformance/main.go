// dagconformance replays a JSON conformance vector on an in-memory
// consensus and reports every block whose consensus data deviates from
// the vector's expectations.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/tos-network/tosdag/domain/consensus/utils/testvectors"
	"github.com/tos-network/tosdag/infrastructure/logger"
	"github.com/tos-network/tosdag/util/panics"
)

var log = logger.RegisterSubSystem("CNFM")

func main() {
	defer panics.HandlePanic(log, nil)

	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %s\n", err)
		os.Exit(1)
	}

	logLevel, _ := logger.LevelFromString(cfg.LogLevel)
	if cfg.LogFile != "" {
		logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	} else {
		logger.InitLogStdout(logLevel)
	}
	logger.SetLogLevels(logLevel)

	vector, err := testvectors.LoadFromFile(cfg.VectorFile)
	if err != nil {
		log.Criticalf("Failed loading vector: %s", err)
		os.Exit(1)
	}
	log.Infof("Replaying vector %s: k=%d, %d blocks", cfg.VectorFile, vector.K, len(vector.Blocks))

	mismatches, err := testvectors.Run(vector)
	if err != nil {
		log.Criticalf("Replay failed: %s", err)
		os.Exit(1)
	}

	if len(mismatches) > 0 {
		for _, mismatch := range mismatches {
			log.Errorf("%s", mismatch)
			log.Debugf("got:\n%s\nwant:\n%s", spew.Sdump(mismatch.Got), spew.Sdump(mismatch.Want))
		}
		log.Criticalf("Vector failed with %d mismatches", len(mismatches))
		os.Exit(1)
	}

	log.Infof("Vector passed: all %d blocks reproduced their expected consensus data", len(vector.Blocks))
}
