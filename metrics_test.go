package burrow

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)

	_, err := reg.Gather()
	assert.NoError(t, err)
}

func TestKVCollector(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Set([]byte("k"), []byte("v")))

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewKVCollector(store, "test"))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["burrow_kv_wal_bytes_written_total"])
	assert.True(t, names["burrow_kv_disk_usage_bytes"])
}
