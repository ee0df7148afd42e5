package burrow

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Index values are msgpack-encoded. Four shapes exist: a postings list
// ([]IID), a term list ([]string), a single IID and a single OID string. The
// store itself treats all of them as opaque bytes; this codec is the only
// place that knows the shapes.
//
// Encode failures cannot happen for these types and are surfaced as corrupt-
// value errors anyway rather than swallowed: if one ever fires, an upstream
// invariant broke.

func encodeIIDs(iids []IID) ([]byte, error) {
	data, err := msgpack.Marshal(iids)
	if err != nil {
		return nil, errValueCorrupt("encode postings", err)
	}
	return data, nil
}

func decodeIIDs(data []byte) ([]IID, error) {
	var iids []IID
	if err := msgpack.Unmarshal(data, &iids); err != nil {
		return nil, errValueCorrupt("decode postings", err)
	}
	return iids, nil
}

func encodeTerms(terms []string) ([]byte, error) {
	data, err := msgpack.Marshal(terms)
	if err != nil {
		return nil, errValueCorrupt("encode term list", err)
	}
	return data, nil
}

func decodeTerms(data []byte) ([]string, error) {
	var terms []string
	if err := msgpack.Unmarshal(data, &terms); err != nil {
		return nil, errValueCorrupt("decode term list", err)
	}
	return terms, nil
}

func encodeIID(iid IID) ([]byte, error) {
	data, err := msgpack.Marshal(iid)
	if err != nil {
		return nil, errValueCorrupt("encode iid", err)
	}
	return data, nil
}

func decodeIID(data []byte) (IID, error) {
	var iid IID
	if err := msgpack.Unmarshal(data, &iid); err != nil {
		return 0, errValueCorrupt("decode iid", err)
	}
	return iid, nil
}

func encodeOID(oid string) ([]byte, error) {
	data, err := msgpack.Marshal(oid)
	if err != nil {
		return nil, errValueCorrupt("encode oid", err)
	}
	return data, nil
}

func decodeOID(data []byte) (string, error) {
	var oid string
	if err := msgpack.Unmarshal(data, &oid); err != nil {
		return "", errValueCorrupt("decode oid", err)
	}
	return oid, nil
}
