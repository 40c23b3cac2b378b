package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley/pkg/domain"
)

func TestHooksFeedCounters(t *testing.T) {
	m := New()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, domain.NodeEvent{NodeID: "welcome", Kind: domain.KindAIMessage})
	hooks.OnNodeEnter(ctx, domain.NodeEvent{NodeID: "ask", Kind: domain.KindInput})
	hooks.OnMessage(ctx, domain.Message{Speaker: domain.SpeakerAI})
	hooks.OnMessage(ctx, domain.Message{Speaker: domain.SpeakerUser})
	hooks.OnEvalError(ctx, domain.EvalEvent{Site: "condition"})
	m.SessionStarted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodeVisits.WithLabelValues(domain.KindAIMessage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodeVisits.WithLabelValues(domain.KindInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues(domain.SpeakerAI)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evalFailures.WithLabelValues("condition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.SessionStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "parley_sessions_started_total 1")
}
