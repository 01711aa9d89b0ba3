package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAudit struct {
	mu    sync.Mutex
	runs  int
	err   error
	drift []services.ScoreDrift
}

func (f *fakeAudit) AuditScores(context.Context) ([]services.ScoreDrift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.drift, f.err
}

func (f *fakeAudit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) CreateEvent(_ context.Context, eventType, _, _ string, _ *models.IdeaID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, eventType)
	return nil
}

func (f *fakeEvents) GetRecentEvents(context.Context, int) ([]models.Event, error) { return nil, nil }

func TestSchedulerRunsAuditAndStops(t *testing.T) {
	audit := &fakeAudit{}
	s, err := NewScheduler("@every 1s", audit, &fakeEvents{})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return audit.count() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", &fakeAudit{}, nil)
	assert.Error(t, err)
}

func TestRunAuditRecordsFailure(t *testing.T) {
	events := &fakeEvents{}
	s, err := NewScheduler("", &fakeAudit{err: errors.New("db gone")}, events)
	require.NoError(t, err)

	s.runAudit()
	assert.Equal(t, []string{services.EventScoreAuditFail}, events.types)
}
