package utils

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettlementRefs(t *testing.T) {
	g := NewReferenceGenerator()

	groupID, contributionID := g.NewSettlementRefs()
	assert.True(t, strings.HasPrefix(groupID, SettlementGroupPrefix))
	assert.True(t, strings.HasPrefix(contributionID, ContributionPrefix))

	// Both ids carry the same ULID, so either one recovers the other.
	assert.Equal(t,
		strings.TrimPrefix(groupID, SettlementGroupPrefix),
		strings.TrimPrefix(contributionID, ContributionPrefix))

	assert.True(t, strings.HasPrefix(g.NewEntryID(), EntryPrefix))
}

func TestReferencesAreUnique(t *testing.T) {
	g := NewReferenceGenerator()

	const n = 1000
	seen := make(map[string]struct{}, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/10; j++ {
				id := g.NewEntryID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestValidateReference(t *testing.T) {
	g := NewReferenceGenerator()

	id, _ := g.NewSettlementRefs()
	require.True(t, ValidateReference(id, SettlementGroupPrefix))

	assert.False(t, ValidateReference(id, ContributionPrefix), "wrong prefix")
	assert.False(t, ValidateReference("SG-notaulid", SettlementGroupPrefix))
	assert.False(t, ValidateReference("", SettlementGroupPrefix))
	assert.False(t, ValidateReference(SettlementGroupPrefix, SettlementGroupPrefix))
}
