package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
		labels:     make(map[string]map[string]string),
	}
}

func (r *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	r.RecordHistogram(operation, duration.Seconds(), labels)
}

func (r *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += value
	r.labels[metric] = cloneLabels(labels)
}

func (r *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric] = append(r.histograms[metric], value)
	r.labels[metric] = cloneLabels(labels)
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Model = "gpt-4o-mini"
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), collector.counters["llm_requests_total"])
	assert.Len(t, collector.histograms["llm_latency_seconds"], 1)
	assert.Equal(t, float64(30), collector.counters["llm_tokens_total"],
		"input and output tokens should both be counted")
	assert.Equal(t, "openai", collector.labels["llm_requests_total"]["provider"])
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Model = "claude-3.5-haiku"
	mock.Error = errors.New("boom")
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
	require.Error(t, err)

	assert.Equal(t, "error", collector.labels["llm_requests_total"]["status"])
	assert.Equal(t, "anthropic", collector.labels["llm_requests_total"]["provider"])
	assert.Zero(t, collector.counters["llm_tokens_total"],
		"failed requests should not count tokens")
}

func TestMetricsMiddleware_NilCollectorPassesThrough(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := MetricsMiddleware(nil)(mock)

	resp, err := wrapped.DoRequest(context.Background(), ChatRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", resp.Message.Content)
}
