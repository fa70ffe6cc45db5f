package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.upstreamRequestsTotal)
	assert.NotNil(t, collector.provisioningRunsTotal)
	assert.NotNil(t, collector.provisioningStepDuration)
	assert.NotNil(t, collector.memoryChunksTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/provision/{id}", 200, 100*time.Millisecond, 1024, 64)
	collector.RecordHTTPRequest("POST", "/provision/{id}", 200, 50*time.Millisecond, 512, 64)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/provision/{id}", "2xx")))
}

func TestCollector_RecordUpstreamRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordUpstreamRequest("cartesia", "clone", 200, time.Second)
	collector.RecordUpstreamRequest("cartesia", "clone", 422, time.Second)
	collector.RecordUpstreamRequest("vapi", "create_assistant", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.upstreamRequestsTotal.WithLabelValues("cartesia", "clone", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.upstreamRequestsTotal.WithLabelValues("cartesia", "clone", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.upstreamRequestsTotal.WithLabelValues("vapi", "create_assistant", "error")))
}

func TestCollector_RecordProvisioning(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordProvisioning("success")
	collector.RecordProvisioning("CLONE_FAILED")
	collector.RecordProvisioning("success")
	collector.RecordProvisioningStep("clone", true, 2*time.Second)
	collector.RecordProvisioningStep("create_voice", false, time.Second)
	collector.RecordProvisioningLockBusy()

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.provisioningRunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.provisioningRunsTotal.WithLabelValues("CLONE_FAILED")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.provisioningStepDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.provisioningLockBusy))
}

func TestCollector_RecordMemoryIngest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordMemoryIngest("text-embedding-ada-002", 3, 2500)

	assert.Equal(t, 3.0, testutil.ToFloat64(collector.memoryChunksTotal.WithLabelValues("text-embedding-ada-002")))
	assert.Equal(t, 2500.0, testutil.ToFloat64(collector.memoryTokensTotal.WithLabelValues("text-embedding-ada-002")))
}

func TestCollector_RecordDBConnections(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDBConnections("mysql", 10, 5)

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("mysql")))
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("mysql")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.RecordHTTPRequest("GET", "/", 200, time.Millisecond, 0, 0)
		collector.RecordUpstreamRequest("vapi", "get_assistant", 200, time.Millisecond)
		collector.RecordProvisioning("success")
		collector.RecordProvisioningStep("fetch", true, time.Millisecond)
		collector.RecordProvisioningLockBusy()
		collector.RecordMemoryIngest("m", 1, 1)
		collector.RecordDBConnections("sqlite", 1, 1)
	})
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("GET", "/health", 200, time.Millisecond, 0, 16)
			collector.RecordProvisioning("success")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/health", "2xx")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.provisioningRunsTotal.WithLabelValues("success")))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(201))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(409))
	assert.Equal(t, "5xx", statusCode(502))
	assert.Equal(t, "unknown", statusCode(0))
}
