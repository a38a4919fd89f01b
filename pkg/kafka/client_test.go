package kafka

import (
	"context"
	"errors"
	"testing"

	"mental-care-go/pkg/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProcessor 前 failures 次返回错误，之后成功。
type flakyProcessor struct {
	failures int
	calls    int
}

func (p *flakyProcessor) Process(context.Context, tasks.IngestTask) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("tika unavailable")
	}
	return nil
}

func noBackoff(t *testing.T) {
	old := retryBackoff
	retryBackoff = 0
	t.Cleanup(func() { retryBackoff = old })
}

func TestProcessWithRetry_RetriesUntilSuccess(t *testing.T) {
	noBackoff(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	task := tasks.IngestTask{ObjectName: "docs/a.pdf"}

	p := &flakyProcessor{failures: 2}
	require.NoError(t, processWithRetry(context.Background(), p, rdb, task))
	assert.Equal(t, 3, p.calls)
	assert.False(t, mr.Exists(attemptsKey(task.ObjectName)), "counter cleared on success")
}

func TestProcessWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	noBackoff(t)
	p := &flakyProcessor{failures: 100}
	err := processWithRetry(context.Background(), p, nil, tasks.IngestTask{ObjectName: "docs/b.pdf"})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, p.calls)
}

func TestProcessWithRetry_ContinuesCountAcrossRestarts(t *testing.T) {
	noBackoff(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	task := tasks.IngestTask{ObjectName: "docs/c.pdf"}
	require.NoError(t, mr.Set(attemptsKey(task.ObjectName), "2"))

	p := &flakyProcessor{failures: 100}
	require.Error(t, processWithRetry(context.Background(), p, rdb, task))
	assert.Equal(t, 1, p.calls)
	assert.True(t, mr.TTL(attemptsKey(task.ObjectName)) > 0)
}

func TestProcessWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyProcessor{failures: 100}
	err := processWithRetry(ctx, p, nil, tasks.IngestTask{ObjectName: "docs/d.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.calls)
}
