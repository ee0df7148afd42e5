package burrow

import (
	"github.com/cockroachdb/pebble"
)

// ReconcileReport summarizes what a reconciliation pass found and staged for
// repair in one bucket.
type ReconcileReport struct {
	// DanglingIdentifiers counts IIDToOID rows whose OIDToIID inverse was
	// missing or pointed at a different IID, plus IIDToTerms rows with no
	// hydration row.
	DanglingIdentifiers int

	// OrphanedPostings counts postings entries referencing an IID with no
	// IIDToOID row.
	OrphanedPostings int

	// DeletedRows counts physical keys removed by the repair batch.
	DeletedRows int
}

func (r ReconcileReport) Clean() bool {
	return r.DanglingIdentifiers == 0 && r.OrphanedPostings == 0
}

// Reconcile scans the bucket's four tables for the inconsistencies a
// non-atomic writer (or a crash predating batched writes) can leave behind,
// orphaned postings references and dangling identifiers, and repairs them.
// All repairs apply as one atomic batch; the pass holds the bucket lock, so
// it can run against a live store.
func (a *Action) Reconcile() (ReconcileReport, error) {
	lock := a.store.bucketLock(a.bucket)
	lock.Lock()
	defer lock.Unlock()

	var report ReconcileReport
	batch := pebble.Batch{}

	// IIDs whose rows are being removed in this pass; their postings
	// entries below must go too, even though the batch is not applied yet.
	condemned := make(map[IID]bool)

	hydrated := func(iid IID) (bool, error) {
		if condemned[iid] {
			return false, nil
		}
		_, found, err := a.store.Get(IIDToOIDKey(a.bucket, iid).Bytes())
		return found, err
	}

	// Pass 1: every IIDToOID row must have a matching OIDToIID inverse.
	oidPrefix := KindPrefix(IIDToOID, a.bucket)
	err := a.store.scanPrefix(oidPrefix, func(key, value []byte) error {
		iid, err := parseIIDToken(key[len(oidPrefix):])
		if err != nil {
			return err
		}
		oid, err := decodeOID(value)
		if err != nil {
			return err
		}
		inverse, found, err := a.GetOIDToIID(oid)
		if err != nil {
			return err
		}
		if found && inverse == iid {
			return nil
		}
		report.DanglingIdentifiers++
		condemned[iid] = true
		_ = batch.Delete(IIDToOIDKey(a.bucket, iid).Bytes(), nil)
		_ = batch.Delete(IIDToTermsKey(a.bucket, iid).Bytes(), nil)
		report.DeletedRows += 2
		a.store.hydration.Remove(IIDToOIDKey(a.bucket, iid).String())
		return nil
	})
	if err != nil {
		return report, err
	}

	// Pass 2: every OIDToIID row must point at a hydration row that maps
	// back to it. The OID cannot be recovered from the hashed key, but
	// re-deriving the key from the hydrated OID detects stale mappings.
	iidPrefix := KindPrefix(OIDToIID, a.bucket)
	err = a.store.scanPrefix(iidPrefix, func(key, value []byte) error {
		iid, err := decodeIID(value)
		if err != nil {
			return err
		}
		if !condemned[iid] {
			raw, found, err := a.store.Get(IIDToOIDKey(a.bucket, iid).Bytes())
			if err != nil {
				return err
			}
			if found {
				oid, err := decodeOID(raw)
				if err != nil {
					return err
				}
				if string(OIDToIIDKey(a.bucket, oid).Bytes()) == string(key) {
					return nil
				}
			}
		}
		report.DanglingIdentifiers++
		report.DeletedRows++
		row := make([]byte, len(key))
		copy(row, key)
		return batch.Delete(row, nil)
	})
	if err != nil {
		return report, err
	}

	// Pass 3: every IIDToTerms row must have a hydration row.
	termsPrefix := KindPrefix(IIDToTerms, a.bucket)
	err = a.store.scanPrefix(termsPrefix, func(key, _ []byte) error {
		iid, err := parseIIDToken(key[len(termsPrefix):])
		if err != nil {
			return err
		}
		ok, err := hydrated(iid)
		if err != nil {
			return err
		}
		if !ok && !condemned[iid] {
			report.DanglingIdentifiers++
			condemned[iid] = true
			_ = batch.Delete(IIDToTermsKey(a.bucket, iid).Bytes(), nil)
			report.DeletedRows++
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	// Pass 4: every IID in every postings list must still resolve.
	postingsPrefix := KindPrefix(TermToIIDs, a.bucket)
	err = a.store.scanPrefix(postingsPrefix, func(key, value []byte) error {
		iids, err := decodeIIDs(value)
		if err != nil {
			return err
		}
		keep := iids[:0]
		for _, iid := range iids {
			ok, err := hydrated(iid)
			if err != nil {
				return err
			}
			if ok {
				keep = append(keep, iid)
			} else {
				report.OrphanedPostings++
			}
		}
		if len(keep) == len(iids) {
			return nil
		}
		row := make([]byte, len(key))
		copy(row, key)
		if len(keep) == 0 {
			report.DeletedRows++
			return batch.Delete(row, nil)
		}
		data, err := encodeIIDs(keep)
		if err != nil {
			return err
		}
		return batch.Set(row, data, nil)
	})
	if err != nil {
		return report, err
	}

	if report.Clean() {
		return report, nil
	}
	if err := a.store.Apply(&batch); err != nil {
		return report, err
	}
	ReconcileRepairs.WithLabelValues("dangling_identifier").Add(float64(report.DanglingIdentifiers))
	ReconcileRepairs.WithLabelValues("orphaned_posting").Add(float64(report.OrphanedPostings))
	a.log.Info("reconciled bucket",
		"bucket", a.bucket,
		"dangling", report.DanglingIdentifiers,
		"orphaned", report.OrphanedPostings)
	return report, nil
}
