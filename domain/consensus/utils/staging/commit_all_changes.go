package staging

import (
	"github.com/tos-network/tosdag/domain/consensus/model"
	"github.com/tos-network/tosdag/infrastructure/logger"
)

// CommitAllChanges creates a transaction in `databaseContext`,
// and commits all changes in `stagingArea` through it. The changes
// are applied all-or-nothing.
func CommitAllChanges(databaseContext model.DBManager, stagingArea *model.StagingArea) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "CommitAllChanges")
	defer onEnd()

	dbTx, err := databaseContext.Begin()
	if err != nil {
		return err
	}

	err = stagingArea.Commit(dbTx)
	if err != nil {
		rollbackErr := dbTx.RollbackUnlessClosed()
		if rollbackErr != nil {
			log.Errorf("Error rolling back failed staging commit: %s", rollbackErr)
		}
		return err
	}

	return dbTx.Commit()
}
