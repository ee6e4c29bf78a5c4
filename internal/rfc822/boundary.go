package rfc822

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BoundaryGenerator produces multipart boundary strings that are unique for
// the life of the process. Each boundary combines a nanosecond timestamp, a
// cycling single-digit counter guarded by a mutex (two concurrent sends can
// land on the same coarse timestamp), and a random suffix.
type BoundaryGenerator struct {
	mu     sync.Mutex
	digit  int
	prefix string
}

func NewBoundaryGenerator() *BoundaryGenerator {
	return &BoundaryGenerator{prefix: "_mailwire_"}
}

// Next returns a new boundary. The lock covers only the counter update, so
// concurrent encodes never serialize on each other beyond it.
func (g *BoundaryGenerator) Next() string {
	g.mu.Lock()
	digit := g.digit
	g.digit = (g.digit + 1) % 10
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d%d_%s", g.prefix, time.Now().UnixNano(), digit, suffix)
}
