package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LotterySync/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImporter struct {
	mu   sync.Mutex
	seen []int
	fail map[int]bool
}

func (f *fakeImporter) ImportContest(_ context.Context, game string, n int) (*model.ContestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, n)
	if f.fail[n] {
		return &model.ContestResult{Success: false, LotteryGame: game, ContestNumber: n, Error: "upstream 500"}, nil
	}
	if n < 0 {
		return nil, errors.New("boom")
	}
	return &model.ContestResult{Success: true, LotteryGame: game, ContestNumber: n, PrizesCount: 3}, nil
}

func (f *fakeImporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func tasks(jobID string, numbers ...int) []model.ImportTask {
	out := make([]model.ImportTask, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, model.ImportTask{JobID: jobID, Game: "megasena", ContestNumber: n})
	}
	return out
}

func TestMemoryQueueProcessesAllTasks(t *testing.T) {
	logger := quietLogger()
	imp := &fakeImporter{fail: map[int]bool{3: true}}
	worker := NewWorker(imp, logger)
	q := NewMemoryQueue(16, logger)

	require.NoError(t, q.Enqueue(context.Background(), tasks("job-1", 1, 2, 3, 4, -1)...))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Consume(ctx, 3, worker.Handle)
		close(done)
	}()

	assert.Eventually(t, func() bool { return imp.count() == 5 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4, -1}, imp.seen)
}

func TestMemoryQueueEnqueueRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1, quietLogger())
	require.NoError(t, q.Enqueue(context.Background(), tasks("job", 1)...))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, tasks("job", 2)...)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTaskRecoversPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		runTask(context.Background(), quietLogger(), 0, model.ImportTask{}, func(context.Context, model.ImportTask) error {
			panic("bad task")
		})
	})
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := quietLogger()
	q := NewRedisQueue(client, "lottery-import", logger)
	q.popTimeout = 50 * time.Millisecond

	require.NoError(t, q.Enqueue(context.Background(), tasks("job-2", 10, 11, 12)...))
	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	imp := &fakeImporter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Consume(ctx, 2, NewWorker(imp, logger).Handle)
		close(done)
	}()

	assert.Eventually(t, func() bool { return imp.count() == 3 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.ElementsMatch(t, []int{10, 11, 12}, imp.seen)
}

func TestWorkerHandle(t *testing.T) {
	w := NewWorker(&fakeImporter{fail: map[int]bool{7: true}}, quietLogger())
	ctx := context.Background()
	assert.NoError(t, w.Handle(ctx, model.ImportTask{Game: "quina", ContestNumber: 1}))
	assert.EqualError(t, w.Handle(ctx, model.ImportTask{Game: "quina", ContestNumber: 7}), "upstream 500")
	assert.Error(t, w.Handle(ctx, model.ImportTask{Game: "quina", ContestNumber: -3}))
}
