package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
	"github.com/ahrav/go-tribunal/internal/testutils"
)

func newOrchestratorFixture(t *testing.T) (*Orchestrator, *testutils.MemStore, *testutils.MockClientProvider) {
	t.Helper()
	store := testutils.NewMemStore()
	provider := &testutils.MockClientProvider{
		Clients: map[string]ports.ChatClient{
			"": testutils.NewMockChatClient("mock-model", "default verdict"),
		},
	}
	return NewOrchestrator(store, provider, nil), store, provider
}

func TestOrchestratorEvaluate_HappyPath(t *testing.T) {
	orchestrator, store, provider := newOrchestratorFixture(t)
	ctx := context.Background()

	alpha := testutils.NewMockChatClient("model-a", "looks good")
	beta := testutils.NewMockChatClient("model-b", "needs work")
	provider.Clients["model-a"] = alpha
	provider.Clients["model-b"] = beta

	judgeA := testJudge("j1", "Alpha")
	judgeA.Model = "model-a"
	judgeB := testJudge("j2", "Beta")
	judgeB.Model = "model-b"

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{
		ID:     "p1",
		Judges: []domain.JudgeSpec{judgeA, judgeB},
	}))

	result, err := orchestrator.Evaluate(ctx, "p1", "review this change")
	require.NoError(t, err)

	assert.Equal(t, "p1", result.PanelID)
	require.Len(t, result.Verdicts, 2)
	assert.Contains(t, result.Report, "Alpha => looks good")
	assert.Contains(t, result.Report, "Beta => needs work")

	assert.Equal(t, "review this change", alpha.Calls[0].Prompt)
	assert.Equal(t, "review this change", beta.Calls[0].Prompt)
}

func TestOrchestratorEvaluate_EmptyPanelID(t *testing.T) {
	orchestrator, _, _ := newOrchestratorFixture(t)

	_, err := orchestrator.Evaluate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyPanelID)
}

func TestOrchestratorEvaluate_UnknownPanel(t *testing.T) {
	orchestrator, _, _ := newOrchestratorFixture(t)

	_, err := orchestrator.Evaluate(context.Background(), "ghost", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestOrchestratorEvaluate_EmptyPanelYieldsSentinelReport(t *testing.T) {
	orchestrator, store, _ := newOrchestratorFixture(t)
	ctx := context.Background()

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{ID: "empty"}))

	result, err := orchestrator.Evaluate(ctx, "empty", "prompt")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyReportSentinel, result.Report)
	assert.Empty(t, result.Verdicts)
}

func TestOrchestratorEvaluate_AllOrNothing(t *testing.T) {
	orchestrator, store, provider := newOrchestratorFixture(t)
	ctx := context.Background()

	broken := testutils.NewMockChatClient("model-broken", "")
	broken.SetError(errors.New("quota exhausted"))
	provider.Clients["model-broken"] = broken

	good := testJudge("j1", "Good")
	bad := testJudge("j2", "Bad")
	bad.Model = "model-broken"

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{
		ID:     "p1",
		Judges: []domain.JudgeSpec{good, bad},
	}))

	result, err := orchestrator.Evaluate(ctx, "p1", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
	assert.Empty(t, result.Report, "no partial report on failure")
	assert.Empty(t, result.Verdicts)
}

func TestOrchestratorEvaluate_FreshStatePerCall(t *testing.T) {
	orchestrator, store, _ := newOrchestratorFixture(t)
	ctx := context.Background()

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{
		ID:     "p1",
		Judges: []domain.JudgeSpec{testJudge("j1", "Alpha")},
	}))

	first, err := orchestrator.Evaluate(ctx, "p1", "prompt one")
	require.NoError(t, err)
	second, err := orchestrator.Evaluate(ctx, "p1", "prompt two")
	require.NoError(t, err)

	assert.Len(t, first.Verdicts, 1)
	assert.Len(t, second.Verdicts, 1, "verdicts must not accumulate across calls")
}

func TestOrchestratorEvaluate_ConcurrentCallsDoNotInterfere(t *testing.T) {
	orchestrator, store, _ := newOrchestratorFixture(t)
	ctx := context.Background()

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{
		ID:     "p1",
		Judges: []domain.JudgeSpec{testJudge("j1", "Alpha"), testJudge("j2", "Beta")},
	}))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]Evaluation, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = orchestrator.Evaluate(ctx, "p1", "prompt")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Verdicts, 2)
	}
}

func TestOrchestratorEvaluate_RecordsMetrics(t *testing.T) {
	store := testutils.NewMemStore()
	provider := &testutils.MockClientProvider{
		Clients: map[string]ports.ChatClient{"": testutils.NewMockChatClient("m", "ok")},
	}
	collector := &countingCollector{}
	orchestrator := NewOrchestrator(store, provider, collector)
	ctx := context.Background()

	require.NoError(t, store.PutPanel(ctx, domain.PanelSpec{
		ID:     "p1",
		Judges: []domain.JudgeSpec{testJudge("j1", "Alpha")},
	}))

	_, err := orchestrator.Evaluate(ctx, "p1", "prompt")
	require.NoError(t, err)

	_, err = orchestrator.Evaluate(ctx, "ghost", "prompt")
	require.Error(t, err)

	assert.Equal(t, 1, collector.byStatus["success"])
	assert.Equal(t, 1, collector.byStatus["error"])
}

type countingCollector struct {
	mu       sync.Mutex
	byStatus map[string]int
}

func (c *countingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byStatus == nil {
		c.byStatus = make(map[string]int)
	}
	if metric == "evaluations_total" {
		c.byStatus[labels["status"]] += int(value)
	}
}

func (c *countingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
}

func (c *countingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
}
