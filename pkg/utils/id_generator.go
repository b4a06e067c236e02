package utils

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Reference prefixes. A settlement group and its contribution share the same
// ULID under different prefixes, so either id recovers the other.
const (
	SettlementGroupPrefix = "SG-"
	ContributionPrefix    = "CON-"
	EntryPrefix           = "TXN-"
)

// ReferenceGenerator generates unique, sortable references for ledger records.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewULID generates a ULID (26 characters, sortable, URL-safe).
// Example: 01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *ReferenceGenerator) NewULID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return id.String()
}

// NewSettlementRefs mints the group and contribution ids for a single
// capture from one ULID, so stripping either prefix recovers the other id.
// Format: SG-{ULID}, CON-{ULID}
func (g *ReferenceGenerator) NewSettlementRefs() (groupID, contributionID string) {
	seed := g.NewULID()
	return SettlementGroupPrefix + seed, ContributionPrefix + seed
}

// NewEntryID generates a settlement entry identifier.
// Format: TXN-{ULID}
func (g *ReferenceGenerator) NewEntryID() string {
	return EntryPrefix + g.NewULID()
}

// ValidateReference checks a prefixed reference of the form PREFIX-{ULID}.
func ValidateReference(ref, prefix string) bool {
	if !strings.HasPrefix(ref, prefix) {
		return false
	}
	raw := strings.TrimPrefix(ref, prefix)
	if len(raw) != 26 {
		return false
	}
	_, err := ulid.Parse(raw)
	return err == nil
}
