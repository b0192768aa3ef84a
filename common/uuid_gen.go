package common

import hashiuuid "github.com/hashicorp/go-uuid"

// goUUID generates 16 random bytes via hashicorp/go-uuid, kept as its own
// call site so the choice of generator for peer identity is explicit and
// independent from the chunk-id generator in ids.go.
func goUUID() ([]byte, error) {
	return hashiuuid.GenerateRandomBytes(IDSize)
}
