package model

import "github.com/tos-network/tosdag/domain/consensus/model/externalapi"

// GHOSTDAGManager resolves and manages GHOSTDAG block data
type GHOSTDAGManager interface {
	// GHOSTDAG runs the GHOSTDAG algorithm for the given block and stages
	// the resulting BlockGHOSTDAGData. It fails with
	// ruleerrors.ErrMissingAncestorData if any parent's data is absent.
	GHOSTDAG(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error

	// ChooseSelectedParent returns the "best" block out of the given ones:
	// greatest blue work, ties broken by the numerically smaller hash.
	ChooseSelectedParent(stagingArea *StagingArea, blockHashes ...*externalapi.DomainHash) (*externalapi.DomainHash, error)

	// Less returns whether block A is "less" than block B in the
	// selected-parent ordering.
	Less(blockHashA *externalapi.DomainHash, ghostdagDataA *externalapi.BlockGHOSTDAGData,
		blockHashB *externalapi.DomainHash, ghostdagDataB *externalapi.BlockGHOSTDAGData) bool
}
