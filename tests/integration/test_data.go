package integration

import (
	"fmt"
	"sync/atomic"
)

var userSeq atomic.Int64

// TestUser generates unique credentials for a test account
func TestUser(suffix string) (username, password string) {
	username = fmt.Sprintf("user-%d-%s", userSeq.Add(1), suffix)
	password = "TestPassword123!"
	return
}

// Float returns a pointer to v for optional coordinates
func Float(v float64) *float64 {
	return &v
}
