package burrow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// KVCollector exports a Store's engine-level metrics (compaction pressure,
// memtable and WAL state, disk footprint) labeled by collection. Register
// one per open collection.
type KVCollector struct {
	store      *Store
	collection string

	compactionCount  *prometheus.Desc
	compactionDebt   *prometheus.Desc
	compactionActive *prometheus.Desc
	flushCount       *prometheus.Desc
	memtableSize     *prometheus.Desc
	memtableCount    *prometheus.Desc
	walFiles         *prometheus.Desc
	walSize          *prometheus.Desc
	walBytesWritten  *prometheus.Desc
	diskUsage        *prometheus.Desc
}

func NewKVCollector(store *Store, collection string) *KVCollector {
	labels := prometheus.Labels{"collection": collection}
	return &KVCollector{
		store:      store,
		collection: collection,

		compactionCount: prometheus.NewDesc(
			"burrow_kv_compaction_count_total",
			"Total number of compactions performed",
			nil, labels,
		),
		compactionDebt: prometheus.NewDesc(
			"burrow_kv_compaction_estimated_debt_bytes",
			"Estimated bytes to compact to reach a stable state",
			nil, labels,
		),
		compactionActive: prometheus.NewDesc(
			"burrow_kv_compaction_in_progress_bytes",
			"Bytes currently being compacted",
			nil, labels,
		),
		flushCount: prometheus.NewDesc(
			"burrow_kv_flush_count_total",
			"Total number of memtable flushes",
			nil, labels,
		),
		memtableSize: prometheus.NewDesc(
			"burrow_kv_memtable_size_bytes",
			"Current memtable size",
			nil, labels,
		),
		memtableCount: prometheus.NewDesc(
			"burrow_kv_memtable_count",
			"Current count of memtables",
			nil, labels,
		),
		walFiles: prometheus.NewDesc(
			"burrow_kv_wal_files",
			"Number of live WAL files",
			nil, labels,
		),
		walSize: prometheus.NewDesc(
			"burrow_kv_wal_size_bytes",
			"Size of live WAL data",
			nil, labels,
		),
		walBytesWritten: prometheus.NewDesc(
			"burrow_kv_wal_bytes_written_total",
			"Total physical bytes written to the WAL",
			nil, labels,
		),
		diskUsage: prometheus.NewDesc(
			"burrow_kv_disk_usage_bytes",
			"Bytes the collection occupies on disk",
			nil, labels,
		),
	}
}

func (c *KVCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.compactionCount
	ch <- c.compactionDebt
	ch <- c.compactionActive
	ch <- c.flushCount
	ch <- c.memtableSize
	ch <- c.memtableCount
	ch <- c.walFiles
	ch <- c.walSize
	ch <- c.walBytesWritten
	ch <- c.diskUsage
}

func (c *KVCollector) Collect(ch chan<- prometheus.Metric) {
	metrics := c.store.Metrics()
	if metrics == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.compactionCount, prometheus.CounterValue, float64(metrics.Compact.Count))
	ch <- prometheus.MustNewConstMetric(c.compactionDebt, prometheus.GaugeValue, float64(metrics.Compact.EstimatedDebt))
	ch <- prometheus.MustNewConstMetric(c.compactionActive, prometheus.GaugeValue, float64(metrics.Compact.InProgressBytes))
	ch <- prometheus.MustNewConstMetric(c.flushCount, prometheus.CounterValue, float64(metrics.Flush.Count))
	ch <- prometheus.MustNewConstMetric(c.memtableSize, prometheus.GaugeValue, float64(metrics.MemTable.Size))
	ch <- prometheus.MustNewConstMetric(c.memtableCount, prometheus.GaugeValue, float64(metrics.MemTable.Count))
	ch <- prometheus.MustNewConstMetric(c.walFiles, prometheus.GaugeValue, float64(metrics.WAL.Files))
	ch <- prometheus.MustNewConstMetric(c.walSize, prometheus.GaugeValue, float64(metrics.WAL.Size))
	ch <- prometheus.MustNewConstMetric(c.walBytesWritten, prometheus.CounterValue, float64(metrics.WAL.BytesWritten))
	ch <- prometheus.MustNewConstMetric(c.diskUsage, prometheus.GaugeValue, float64(metrics.DiskSpaceUsage()))
}
