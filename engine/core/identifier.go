package core

import (
	"fmt"

	"github.com/google/uuid"
)

// DebugName produces a unique name for a GPU object so validation layer
// messages and logs can be traced back to the allocation site.
func DebugName(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New().String())
}
