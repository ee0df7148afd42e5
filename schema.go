// Package burrow is the persistence layer of a search-index backend. It maps
// a bucket-scoped, four-way index schema onto short physical keys stored in a
// single embedded ordered key-value engine (pebble).
package burrow

// IID is the internal identifier of an indexed object: a dense integer handle
// assigned per bucket, used as the compact element of postings lists. The
// external identifier (OID) is an arbitrary caller-supplied string.
type IID uint32

// IndexKind selects one of the four index tables. The numeric value is the
// leading discriminant of every physical key and therefore part of the
// on-disk format: reordering or renumbering the kinds breaks existing stores.
type IndexKind uint8

const (
	// TermToIIDs maps a term to its postings list (ordered set of IIDs).
	TermToIIDs IndexKind = iota
	// OIDToIID maps an external identifier to its internal one.
	OIDToIID
	// IIDToOID maps an internal identifier back to its external one.
	IIDToOID
	// IIDToTerms maps an internal identifier to the set of terms it was
	// indexed under, which makes deletion possible without a full scan.
	IIDToTerms
)

func (k IndexKind) String() string {
	switch k {
	case TermToIIDs:
		return "term_to_iids"
	case OIDToIID:
		return "oid_to_iid"
	case IIDToOID:
		return "iid_to_oid"
	case IIDToTerms:
		return "iid_to_terms"
	}
	return "unknown"
}

// The four tables are interdependent: for every IID present in a bucket,
// OIDToIID and IIDToOID must be mutual inverses, and IIDToTerms must equal
// the set of terms whose postings contain that IID. Every multi-key write in
// this package goes through one atomic pebble batch to preserve this, and
// Action.Reconcile repairs state written by anything that did not.
//
// Bucket and text routes are hashed, so distinct inputs can silently share a
// key. Birthday bounds on the token widths: a 50% chance of one bucket-token
// collision needs ~77k live buckets (32-bit), one route-token collision
// ~5.1e9 terms or OIDs per bucket per kind (64-bit). Deployments below those
// orders of magnitude get the compactness for free; above them, colliding
// routes merge their postings with no detection possible from the key alone.
