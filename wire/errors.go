package wire

import "github.com/ground-x/blmessaging/common/errs"

var (
	errShortBuffer        = errs.New(errs.ProtocolFailure, "wire: buffer shorter than frame size")
	errNonZeroPadding     = errs.New(errs.ProtocolFailure, "wire: non-zero padding in frame")
	errUnknownControlCode = errs.New(errs.ProtocolFailure, "wire: unknown control code")
	errChunkTooLarge      = errs.New(errs.ProtocolFailure, "wire: chunk size exceeds 128 MiB cap")
	errInvalidBlockType   = errs.New(errs.ProtocolFailure, "wire: invalid block type for control code")
)
