package burrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCleanBucket(t *testing.T) {
	a := newTestAction(t, "b")
	_, err := a.Index("obj", []string{"hello", "world"})
	require.NoError(t, err)

	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Zero(t, report.DeletedRows)
}

func TestReconcileRepairsOrphanedPosting(t *testing.T) {
	a := newTestAction(t, "b")

	// a postings entry referencing an iid that was never hydrated
	require.NoError(t, a.SetTermToIIDs("ghost", []IID{42}))

	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, report.OrphanedPostings)

	_, found, err := a.GetTermToIIDs("ghost")
	assert.NoError(t, err)
	assert.False(t, found, "emptied postings row should be deleted")

	report, err = a.Reconcile()
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReconcileRepairsDanglingIdentifier(t *testing.T) {
	a := newTestAction(t, "b")

	// hydration and term-set rows with no OIDToIID inverse
	require.NoError(t, a.SetIIDToOID(7, "phantom"))
	require.NoError(t, a.SetIIDToTerms(7, []string{"x"}))

	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, report.DanglingIdentifiers)

	_, found, _ := a.GetIIDToOID(7)
	assert.False(t, found)
	_, found, _ = a.GetIIDToTerms(7)
	assert.False(t, found)
}

func TestReconcileRepairsPartialDelete(t *testing.T) {
	a := newTestAction(t, "b")

	iid, err := a.Index("obj", []string{"hello", "world"})
	require.NoError(t, err)

	// simulate a non-batched delete dying after its first mutation:
	// only the OIDToIID row is gone
	require.NoError(t, a.DeleteOIDToIID("obj"))

	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.DanglingIdentifiers)
	assert.Equal(t, 2, report.OrphanedPostings)

	// the bucket is consistent again: no trace of the object remains
	for _, term := range []string{"hello", "world"} {
		_, found, err := a.GetTermToIIDs(term)
		assert.NoError(t, err)
		assert.False(t, found)
	}
	_, found, _ := a.GetIIDToOID(iid)
	assert.False(t, found)
	_, found, _ = a.GetIIDToTerms(iid)
	assert.False(t, found)

	report, err = a.Reconcile()
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReconcileRepairsStaleInverse(t *testing.T) {
	a := newTestAction(t, "b")

	_, err := a.Index("obj", []string{"x"})
	require.NoError(t, err)
	// oid now points at a different iid than the hydration row claims
	require.NoError(t, a.SetOIDToIID("obj", 99))

	// both the old hydration row and the rewritten oid mapping are stale
	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 2, report.DanglingIdentifiers)
	assert.Equal(t, 1, report.OrphanedPostings)

	_, found, _ := a.GetOIDToIID("obj")
	assert.False(t, found)

	report, err = a.Reconcile()
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReconcileLeavesOtherBucketsAlone(t *testing.T) {
	store := openTestStore(t)
	a := NewAction("tenant-a", store)
	b := NewAction("tenant-b", store)

	_, err := b.Index("obj", []string{"hello"})
	require.NoError(t, err)
	require.NoError(t, a.SetTermToIIDs("ghost", []IID{42}))

	report, err := a.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, report.OrphanedPostings)

	oids, err := b.Lookup("hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"obj"}, oids)
}
