package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets the Snowflake node for this process. Each replica of the server and
// worker needs its own node ID. Only the first call has any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new time-ordered int64 ID. Without a prior Init it falls
// back to node 0, which is what tests get.
func New() int64 {
	_ = Init(0)
	return node.Generate().Int64()
}
