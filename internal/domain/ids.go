package domain

import (
	"crypto/rand"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PublishedAtLayout is how publishedAt dates are rendered ("October 16, 2026").
const PublishedAtLayout = "January 2, 2006"

// Generator hands out time-ordered identities and the current time. Tests
// swap Now and NewID for deterministic values.
type Generator struct {
	Now   func() time.Time
	NewID func() string
}

// NewGenerator returns a Generator producing monotonic ULIDs.
func NewGenerator() *Generator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return &Generator{
		Now: time.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		},
	}
}

// SequenceGenerator returns a Generator with a fixed clock and ids
// prefix-1, prefix-2, ...
func SequenceGenerator(prefix string, now time.Time) *Generator {
	var mu sync.Mutex
	n := 0
	return &Generator{
		Now: func() time.Time { return now },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return prefix + "-" + strconv.Itoa(n)
		},
	}
}
