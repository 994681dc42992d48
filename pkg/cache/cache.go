// Package cache keeps short-lived copies of provider responses so identical
// requests are not sent twice within a few seconds of each other.
package cache

import (
	"errors"
	"time"
)

// Duration is a hint of how volatile a cached payload is. Each Cacher
// implementation maps it to a concrete time to live.
type Duration int

const (
	VeryShort Duration = iota
	Short
	Medium
	Long
	LongLong
)

// TTL returns the in-memory lifetime of the class.
func (d Duration) TTL() time.Duration {
	switch d {
	case VeryShort:
		return 5 * time.Second
	case Short:
		return 10 * time.Second
	case Medium:
		return 20 * time.Second
	case Long:
		return 40 * time.Second
	case LongLong:
		return 120 * time.Second
	default:
		return 5 * time.Second
	}
}

func (d Duration) String() string {
	switch d {
	case VeryShort:
		return "very-short"
	case Short:
		return "short"
	case Medium:
		return "medium"
	case Long:
		return "long"
	case LongLong:
		return "long-long"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by a cache whose sweeper has been stopped.
var ErrClosed = errors.New("cache: closed")

// Cacher stores payloads by id. A miss or an error is never fatal: callers
// must fall back to the real request.
type Cacher interface {
	Cache(id string, payload []byte, ttl Duration) error
	// Get returns a copy of the payload. A hit renews the entry since it
	// is likely to be requested again soon.
	Get(id string) ([]byte, bool, error)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Cache(string, []byte, Duration) error { return nil }

func (Nop) Get(string) ([]byte, bool, error) { return nil, false, nil }
