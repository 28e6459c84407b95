package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	migrationRunsTotal      atomic.Uint64
	migrationRunsFailed     atomic.Uint64
	filesMigratedTotal      atomic.Uint64
	submissionsCreatedTotal atomic.Uint64

	migrationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncMigrationRun increments the migration run counter.
func IncMigrationRun() {
	migrationRunsTotal.Add(1)
}

// IncMigrationRunFailed increments the failed migration run counter.
func IncMigrationRunFailed() {
	migrationRunsFailed.Add(1)
}

// AddFilesMigrated adds to the migrated file counter.
func AddFilesMigrated(n int) {
	if n > 0 {
		filesMigratedTotal.Add(uint64(n))
	}
}

// IncSubmissionCreated increments the submission counter.
func IncSubmissionCreated() {
	submissionsCreatedTotal.Add(1)
}

// ObserveMigrationDurationMs records a migration run duration in milliseconds.
func ObserveMigrationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	migrationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "migration_runs_total", "Total migration runs started", migrationRunsTotal.Load())
	writeCounter(&buf, "migration_runs_failed_total", "Total migration runs that left files behind", migrationRunsFailed.Load())
	writeCounter(&buf, "files_migrated_total", "Total documents moved to the repository", filesMigratedTotal.Load())
	writeCounter(&buf, "submissions_created_total", "Total applications submitted", submissionsCreatedTotal.Load())
	writeHistogram(&buf, "migration_duration_ms", "Migration run duration in milliseconds", migrationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
