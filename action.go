package burrow

import (
	"github.com/cockroachdb/pebble"

	"github.com/burrowdb/burrow/utils"
)

// Action binds a bucket to a Store and exposes the typed operations of the
// four index tables, owning key derivation and value (de)serialization. It
// is cheap to construct; build one per bucket as needed.
//
// The single-key operations rely on the engine's internal synchronization.
// The composite operations (Index, Lookup, Remove, Reconcile) serialize per
// bucket and commit their mutations as one atomic batch, so a crash or a
// concurrent writer can never leave the four tables half-updated.
type Action struct {
	store  *Store
	bucket string
	log    utils.Logger
}

func NewAction(bucket string, store *Store) *Action {
	return &Action{store: store, bucket: bucket, log: store.log}
}

func (a *Action) Bucket() string {
	return a.bucket
}

// Term-to-IIDs mapper
//
// [IDX=0] ((term)) ~> [((iid))]

func (a *Action) GetTermToIIDs(term string) (iids []IID, found bool, err error) {
	defer func() { countOp("get", TermToIIDs, err) }()
	raw, found, err := a.store.Get(TermToIIDsKey(a.bucket, term).Bytes())
	if err != nil || !found {
		return nil, false, err
	}
	iids, err = decodeIIDs(raw)
	if err != nil {
		return nil, false, err
	}
	return iids, true, nil
}

func (a *Action) SetTermToIIDs(term string, iids []IID) (err error) {
	defer func() { countOp("set", TermToIIDs, err) }()
	data, err := encodeIIDs(iids)
	if err != nil {
		return err
	}
	return a.store.Set(TermToIIDsKey(a.bucket, term).Bytes(), data)
}

func (a *Action) DeleteTermToIIDs(term string) (err error) {
	defer func() { countOp("delete", TermToIIDs, err) }()
	return a.store.Delete(TermToIIDsKey(a.bucket, term).Bytes())
}

// OID-to-IID mapper
//
// [IDX=1] ((oid)) ~> ((iid))

func (a *Action) GetOIDToIID(oid string) (iid IID, found bool, err error) {
	defer func() { countOp("get", OIDToIID, err) }()
	raw, found, err := a.store.Get(OIDToIIDKey(a.bucket, oid).Bytes())
	if err != nil || !found {
		return 0, false, err
	}
	iid, err = decodeIID(raw)
	if err != nil {
		return 0, false, err
	}
	return iid, true, nil
}

func (a *Action) SetOIDToIID(oid string, iid IID) (err error) {
	defer func() { countOp("set", OIDToIID, err) }()
	data, err := encodeIID(iid)
	if err != nil {
		return err
	}
	return a.store.Set(OIDToIIDKey(a.bucket, oid).Bytes(), data)
}

func (a *Action) DeleteOIDToIID(oid string) (err error) {
	defer func() { countOp("delete", OIDToIID, err) }()
	return a.store.Delete(OIDToIIDKey(a.bucket, oid).Bytes())
}

// IID-to-OID mapper
//
// [IDX=2] ((iid)) ~> ((oid))

func (a *Action) GetIIDToOID(iid IID) (oid string, found bool, err error) {
	defer func() { countOp("get", IIDToOID, err) }()
	key := IIDToOIDKey(a.bucket, iid).String()
	if oid, ok := a.store.hydration.Get(key); ok {
		return oid, true, nil
	}
	raw, found, err := a.store.Get([]byte(key))
	if err != nil || !found {
		return "", false, err
	}
	oid, err = decodeOID(raw)
	if err != nil {
		return "", false, err
	}
	a.store.hydration.Add(key, oid)
	return oid, true, nil
}

func (a *Action) SetIIDToOID(iid IID, oid string) (err error) {
	defer func() { countOp("set", IIDToOID, err) }()
	data, err := encodeOID(oid)
	if err != nil {
		return err
	}
	key := IIDToOIDKey(a.bucket, iid).String()
	if err := a.store.Set([]byte(key), data); err != nil {
		return err
	}
	a.store.hydration.Add(key, oid)
	return nil
}

func (a *Action) DeleteIIDToOID(iid IID) (err error) {
	defer func() { countOp("delete", IIDToOID, err) }()
	key := IIDToOIDKey(a.bucket, iid).String()
	a.store.hydration.Remove(key)
	return a.store.Delete([]byte(key))
}

// IID-to-Terms mapper
//
// [IDX=3] ((iid)) ~> [((term))]

func (a *Action) GetIIDToTerms(iid IID) (terms []string, found bool, err error) {
	defer func() { countOp("get", IIDToTerms, err) }()
	raw, found, err := a.store.Get(IIDToTermsKey(a.bucket, iid).Bytes())
	if err != nil || !found {
		return nil, false, err
	}
	terms, err = decodeTerms(raw)
	if err != nil {
		return nil, false, err
	}
	return terms, true, nil
}

func (a *Action) SetIIDToTerms(iid IID, terms []string) (err error) {
	defer func() { countOp("set", IIDToTerms, err) }()
	data, err := encodeTerms(terms)
	if err != nil {
		return err
	}
	return a.store.Set(IIDToTermsKey(a.bucket, iid).Bytes(), data)
}

func (a *Action) DeleteIIDToTerms(iid IID) (err error) {
	defer func() { countOp("delete", IIDToTerms, err) }()
	return a.store.Delete(IIDToTermsKey(a.bucket, iid).Bytes())
}

// Index writes one object into all four tables atomically: fresh objects get
// a newly allocated IID, re-indexed objects keep theirs and have their old
// term set replaced. Postings order is append order.
func (a *Action) Index(oid string, terms []string) (IID, error) {
	lock := a.store.bucketLock(a.bucket)
	lock.Lock()
	defer lock.Unlock()

	terms = dedupeTerms(terms)

	iid, existed, err := a.GetOIDToIID(oid)
	if err != nil {
		return 0, err
	}
	if !existed {
		iid, err = a.store.NextIID(a.bucket)
		if err != nil {
			return 0, err
		}
	}

	wanted := make(map[string]bool, len(terms))
	for _, term := range terms {
		wanted[term] = true
	}

	batch := pebble.Batch{}

	if existed {
		oldTerms, _, err := a.GetIIDToTerms(iid)
		if err != nil {
			return 0, err
		}
		for _, term := range oldTerms {
			if wanted[term] {
				continue
			}
			if err := a.batchRemoveFromPostings(&batch, term, iid); err != nil {
				return 0, err
			}
		}
	}

	for _, term := range terms {
		iids, _, err := a.GetTermToIIDs(term)
		if err != nil {
			return 0, err
		}
		if containsIID(iids, iid) {
			continue
		}
		data, err := encodeIIDs(append(iids, iid))
		if err != nil {
			return 0, err
		}
		_ = batch.Set(TermToIIDsKey(a.bucket, term).Bytes(), data, nil)
	}

	iidData, err := encodeIID(iid)
	if err != nil {
		return 0, err
	}
	oidData, err := encodeOID(oid)
	if err != nil {
		return 0, err
	}
	termsData, err := encodeTerms(terms)
	if err != nil {
		return 0, err
	}
	_ = batch.Set(OIDToIIDKey(a.bucket, oid).Bytes(), iidData, nil)
	_ = batch.Set(IIDToOIDKey(a.bucket, iid).Bytes(), oidData, nil)
	_ = batch.Set(IIDToTermsKey(a.bucket, iid).Bytes(), termsData, nil)

	if err := a.store.Apply(&batch); err != nil {
		return 0, err
	}
	a.store.hydration.Add(IIDToOIDKey(a.bucket, iid).String(), oid)
	return iid, nil
}

// Lookup resolves a term to the external identifiers of the objects indexed
// under it. IIDs whose hydration row is missing are skipped with a warning;
// Reconcile cleans such postings up.
func (a *Action) Lookup(term string) ([]string, error) {
	iids, found, err := a.GetTermToIIDs(term)
	if err != nil || !found {
		return nil, err
	}
	oids := make([]string, 0, len(iids))
	for _, iid := range iids {
		oid, ok, err := a.GetIIDToOID(iid)
		if err != nil {
			return nil, err
		}
		if !ok {
			a.log.Warn("posting references unknown iid", "bucket", a.bucket, "iid", iid)
			continue
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

// Remove deletes an object from all four tables. The whole sequence (the
// OID and IID rows, the term-set row, and the object's entry in every
// affected postings list) is built first as a pure mutation list, then
// applied as one atomic batch. Returns false if the OID was not indexed.
func (a *Action) Remove(oid string) (bool, error) {
	lock := a.store.bucketLock(a.bucket)
	lock.Lock()
	defer lock.Unlock()

	iid, found, err := a.GetOIDToIID(oid)
	if err != nil || !found {
		return false, err
	}

	terms, _, err := a.GetIIDToTerms(iid)
	if err != nil {
		return false, err
	}

	batch := pebble.Batch{}
	for _, term := range terms {
		if err := a.batchRemoveFromPostings(&batch, term, iid); err != nil {
			return false, err
		}
	}
	_ = batch.Delete(OIDToIIDKey(a.bucket, oid).Bytes(), nil)
	_ = batch.Delete(IIDToOIDKey(a.bucket, iid).Bytes(), nil)
	_ = batch.Delete(IIDToTermsKey(a.bucket, iid).Bytes(), nil)

	if err := a.store.Apply(&batch); err != nil {
		return false, err
	}
	a.store.hydration.Remove(IIDToOIDKey(a.bucket, iid).String())
	return true, nil
}

// batchRemoveFromPostings stages the removal of iid from term's postings,
// dropping the row entirely once the list empties.
func (a *Action) batchRemoveFromPostings(batch *pebble.Batch, term string, iid IID) error {
	iids, found, err := a.GetTermToIIDs(term)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	remaining := removeIID(iids, iid)
	key := TermToIIDsKey(a.bucket, term).Bytes()
	if len(remaining) == 0 {
		return batch.Delete(key, nil)
	}
	if len(remaining) == len(iids) {
		return nil
	}
	data, err := encodeIIDs(remaining)
	if err != nil {
		return err
	}
	return batch.Set(key, data, nil)
}

func containsIID(iids []IID, iid IID) bool {
	for _, v := range iids {
		if v == iid {
			return true
		}
	}
	return false
}

func removeIID(iids []IID, iid IID) []IID {
	out := iids[:0]
	for _, v := range iids {
		if v != iid {
			out = append(out, v)
		}
	}
	return out
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}
