package numbering

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Generator produces human-readable document numbers such as
// BILL-202601151030451234: a prefix, a second-resolution timestamp and a
// four-digit random suffix. The timestamp keeps numbers roughly sortable by
// creation time; uniqueness is enforced by the database unique index, with
// callers regenerating once on conflict.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock is used by tests that need a fixed timestamp.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

func (g *Generator) Next(prefix string) string {
	return fmt.Sprintf("%s-%s%04d", prefix, g.now().Format("20060102150405"), randomSuffix())
}

func randomSuffix() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock rather than panicking mid-request.
		return time.Now().UnixNano() % 10000
	}
	return n.Int64()
}
