package fins

import (
	"context"
	"sync"
	"time"
)

// OperationStats is a snapshot of the collected metrics for one operation.
type OperationStats struct {
	Count       int64
	Errors      int64
	AvgDuration time.Duration
}

// MetricsCollector collects operation metrics including counts, errors, and durations
// It is safe for concurrent use.
//
// Example:
//
//	metrics := fins.NewMetricsCollector()
//	client.SetInterceptor(metrics.Interceptor())
//
//	// Perform operations...
//	client.ReadWords(ctx, fins.MemoryAreaDMWord, 100, 5)
//
//	// Get statistics
//	count, errors, avgDuration := metrics.GetStats(fins.OpReadWords)
//	log.Printf("ReadWords: %d calls, %d errors, avg: %v", count, errors, avgDuration)
type MetricsCollector struct {
	mu      sync.RWMutex
	records map[OperationType]*operationRecord
}

type operationRecord struct {
	count    int64
	errors   int64
	duration time.Duration
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		records: make(map[OperationType]*operationRecord),
	}
}

// Interceptor returns an interceptor that collects metrics
func (m *MetricsCollector) Interceptor() Interceptor {
	return func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		start := time.Now()

		result, err := invoker(ctx)

		duration := time.Since(start)

		m.mu.Lock()
		rec := m.records[info.Operation]
		if rec == nil {
			rec = &operationRecord{}
			m.records[info.Operation] = rec
		}
		rec.count++
		rec.duration += duration
		if err != nil {
			rec.errors++
		}
		m.mu.Unlock()

		return result, err
	}
}

// GetStats returns statistics for a specific operation
// Returns: count, errors, avgDuration
func (m *MetricsCollector) GetStats(op OperationType) (count int64, errors int64, avgDuration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := m.records[op]
	if rec == nil {
		return 0, 0, 0
	}
	return rec.count, rec.errors, rec.average()
}

// Reset clears all collected metrics
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[OperationType]*operationRecord)
}

// GetAllStats returns statistics for all operations
func (m *MetricsCollector) GetAllStats() map[OperationType]OperationStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[OperationType]OperationStats, len(m.records))
	for op, rec := range m.records {
		stats[op] = OperationStats{
			Count:       rec.count,
			Errors:      rec.errors,
			AvgDuration: rec.average(),
		}
	}
	return stats
}

func (r *operationRecord) average() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.duration / time.Duration(r.count)
}
