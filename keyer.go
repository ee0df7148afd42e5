package burrow

import (
	"strconv"

	xxhash32 "github.com/OneOfOne/xxhash"
	"github.com/cespare/xxhash/v2"
)

// Physical key format: "<kind>:<bucket token>:<route token>". The kind is a
// single decimal digit, both tokens are shortest-form lowercase base-36. The
// bucket token is XXH32 of the bucket bytes, text routes (terms, OIDs) are
// XXH64, integer routes (IIDs) render directly. All hashes use seed 0.
//
// This format is a durability contract. Changing the hash functions, the
// seed, the radix base or the separator rewrites the on-disk key space and
// must ship with an explicit migration, never as a silent code change.
const (
	keyerBucketBase = 36
	keyerRouteBase  = 36
	keyerSeparator  = ':'
)

// Keyer derives the physical key for one logical (kind, bucket, route)
// triple. It holds only borrowed inputs, performs no I/O and keeps no state;
// build one, take its key, let it go.
type Keyer struct {
	kind   IndexKind
	bucket string
	text   string
	iid    IID
}

func TermToIIDsKey(bucket, term string) Keyer {
	return Keyer{kind: TermToIIDs, bucket: bucket, text: term}
}

func OIDToIIDKey(bucket, oid string) Keyer {
	return Keyer{kind: OIDToIID, bucket: bucket, text: oid}
}

func IIDToOIDKey(bucket string, iid IID) Keyer {
	return Keyer{kind: IIDToOID, bucket: bucket, iid: iid}
}

func IIDToTermsKey(bucket string, iid IID) Keyer {
	return Keyer{kind: IIDToTerms, bucket: bucket, iid: iid}
}

// Bytes renders the physical key. It is deterministic for any input,
// including empty bucket and route strings.
func (k Keyer) Bytes() []byte {
	buf := make([]byte, 0, 24)
	buf = append(buf, '0'+byte(k.kind))
	buf = append(buf, keyerSeparator)
	buf = append(buf, k.bucketToCompact()...)
	buf = append(buf, keyerSeparator)
	buf = append(buf, k.routeToCompact()...)
	return buf
}

func (k Keyer) String() string {
	return string(k.Bytes())
}

func (k Keyer) bucketToCompact() string {
	h := xxhash32.Checksum32([]byte(k.bucket))
	return strconv.FormatUint(uint64(h), keyerBucketBase)
}

func (k Keyer) routeToCompact() string {
	switch k.kind {
	case TermToIIDs, OIDToIID:
		// Text routes span a far larger space than buckets, so they get
		// the 64-bit hash. IIDs are already dense and compact: hashing
		// them would add collision risk on the hottest lookup path.
		return strconv.FormatUint(xxhash.Sum64String(k.text), keyerRouteBase)
	default:
		return strconv.FormatUint(uint64(k.iid), keyerRouteBase)
	}
}

// KindPrefix returns the "<kind>:<bucket token>:" prefix shared by every key
// of one kind in one bucket, for range scans over that table.
func KindPrefix(kind IndexKind, bucket string) []byte {
	k := Keyer{kind: kind, bucket: bucket}
	buf := make([]byte, 0, 12)
	buf = append(buf, '0'+byte(kind))
	buf = append(buf, keyerSeparator)
	buf = append(buf, k.bucketToCompact()...)
	buf = append(buf, keyerSeparator)
	return buf
}

// prefixUpperBound returns the exclusive upper bound for iterating all keys
// starting with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// parseIIDToken decodes the route token of an integer-routed key back into
// the IID, the inverse of routeToCompact for IIDToOID and IIDToTerms keys.
func parseIIDToken(tok []byte) (IID, error) {
	v, err := strconv.ParseUint(string(tok), keyerRouteBase, 32)
	if err != nil {
		return 0, errValueCorrupt("iid key token", err)
	}
	return IID(v), nil
}
