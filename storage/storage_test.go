package storage

import "github.com/ground-x/blmessaging/common/errs"

func isChunkNotFound(err error) bool { return errs.Is(err, errs.ChunkNotFound) }
