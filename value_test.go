package burrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueRoundTrips(t *testing.T) {
	iids := []IID{0, 1, 20, 10292198}
	data, err := encodeIIDs(iids)
	assert.NoError(t, err)
	back, err := decodeIIDs(data)
	assert.NoError(t, err)
	assert.Equal(t, iids, back)

	terms := []string{"hello", "world", ""}
	data, err = encodeTerms(terms)
	assert.NoError(t, err)
	backTerms, err := decodeTerms(data)
	assert.NoError(t, err)
	assert.Equal(t, terms, backTerms)

	data, err = encodeIID(42)
	assert.NoError(t, err)
	iid, err := decodeIID(data)
	assert.NoError(t, err)
	assert.Equal(t, IID(42), iid)

	data, err = encodeOID("conversation:6501e83a")
	assert.NoError(t, err)
	oid, err := decodeOID(data)
	assert.NoError(t, err)
	assert.Equal(t, "conversation:6501e83a", oid)
}

func TestValueCorruptDecode(t *testing.T) {
	// 0xc1 is the one byte msgpack never emits
	_, err := decodeIIDs([]byte{0xc1})
	assert.ErrorIs(t, err, ErrValueCorrupt)

	_, err = decodeTerms([]byte{0xc1})
	assert.ErrorIs(t, err, ErrValueCorrupt)

	_, err = decodeIID([]byte{0xc1})
	assert.ErrorIs(t, err, ErrValueCorrupt)

	_, err = decodeOID([]byte{0xc1})
	assert.ErrorIs(t, err, ErrValueCorrupt)

	// shape mismatch is corruption too
	data, err := encodeIID(7)
	assert.NoError(t, err)
	_, err = decodeOID(data)
	assert.ErrorIs(t, err, ErrValueCorrupt)
}
