package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erarta/advocata-sub000/internal/domain/jobModel"
	"github.com/erarta/advocata-sub000/internal/job"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

// MockProcessor tracks pipeline invocations
type MockProcessor struct {
	ProcessedCount int32
	Err            error
}

func (m *MockProcessor) Process(ctx context.Context, documentId string, reprocess bool) error {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return m.Err
}

type MockJobStore struct {
	mu    sync.Mutex
	saved []jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, j)
	return nil
}

func TestWorkerPool_Flow(t *testing.T) {
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          &MockJobStore{},
	}
	mockProc := &MockProcessor{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockProc)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true

		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a job", func(t *testing.T) {
		testJob := jobModel.Job{Id: "test-1", JobPayload: jobModel.JobPayload{DocumentId: "doc-1"}}
		jobSvc.JobChannel <- testJob

		time.Sleep(50 * time.Millisecond)

		processed := atomic.LoadInt32(&mockProc.ProcessedCount)
		if processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestExecuteJob_StatusTransitions(t *testing.T) {
	logger = logger_i.NewLogger("TestWorkerPool")
	store := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
		JobStore:   store,
	}
	InitServices(jobSvc, &MockProcessor{})

	executeJob(jobModel.Job{Id: "test-ok", JobPayload: jobModel.JobPayload{DocumentId: "doc-1"}})

	final, found := store.GetJob(context.Background(), "test-ok")
	if !found {
		t.Fatal("job never saved")
	}
	if final.Status != jobModel.JobStatusComplete || final.CurrentStep != jobModel.Complete {
		t.Errorf("expected COMPLETE, got %s / %s", final.Status, final.CurrentStep)
	}
	if final.EndTime.IsZero() {
		t.Error("end time not recorded")
	}
}

func TestExecuteJob_RecordsFailure(t *testing.T) {
	logger = logger_i.NewLogger("TestWorkerPool")
	store := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
		JobStore:   store,
	}
	InitServices(jobSvc, &MockProcessor{Err: context.DeadlineExceeded})

	executeJob(jobModel.Job{Id: "test-bad", JobPayload: jobModel.JobPayload{DocumentId: "doc-1"}})

	final, found := store.GetJob(context.Background(), "test-bad")
	if !found {
		t.Fatal("job never saved")
	}
	if final.Status != jobModel.JobStatusError {
		t.Errorf("expected Error status, got %s", final.Status)
	}
	if final.Error.Message == "" || !final.Error.Retry {
		t.Errorf("job error not recorded: %+v", final.Error)
	}
}
