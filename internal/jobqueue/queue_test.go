package jobqueue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func waitForState(t *testing.T, q *Queue, id string, want State) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := q.GetJob(id)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if job.State == want {
			return job
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for job %s to reach state %s", id, want)
	return nil
}

func TestCreateJobRunsToSuccess(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	q.RegisterHandler("echo", func(ctx context.Context, job *Job) error { return nil })
	q.RunJobProcessorLoop(2)
	defer q.Shutdown()

	job, err := q.CreateJob("echo", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if job.State != StatePending {
		t.Fatalf("expected new job to be pending, got %s", job.State)
	}

	waitForState(t, q, job.ID, StateSucceeded)
}

func TestCreateJobCapturesHandlerError(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	q.RegisterHandler("boom", func(ctx context.Context, job *Job) error { return errors.New("exploded") })
	q.RunJobProcessorLoop(1)
	defer q.Shutdown()

	job, err := q.CreateJob("boom", nil)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	final := waitForState(t, q, job.ID, StateFailed)
	if final.Error != "exploded" {
		t.Fatalf("expected error text preserved, got %q", final.Error)
	}
}

func TestCreateJobUnknownType(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := q.CreateJob("nope", nil); err != ErrUnknownJobType {
		t.Fatalf("expected ErrUnknownJobType, got %v", err)
	}
}

func TestCancelPendingJob(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	block := make(chan struct{})
	q.RegisterHandler("slow", func(ctx context.Context, job *Job) error {
		<-block
		return nil
	})
	q.RunJobProcessorLoop(1)
	defer func() {
		close(block)
		q.Shutdown()
	}()

	busy, err := q.CreateJob("slow", nil)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	waitForState(t, q, busy.ID, StateRunning)

	q.RegisterHandler("noop", func(ctx context.Context, job *Job) error { return nil })
	pending, err := q.CreateJob("noop", nil)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	if err := q.CancelJob(pending.ID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}
	job, err := q.GetJob(pending.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.State != StateCancelled {
		t.Fatalf("expected pending job to be cancelled immediately, got %s", job.State)
	}
}

func TestCancelRunningJobSignalsContext(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	observed := make(chan error, 1)
	q.RegisterHandler("slow", func(ctx context.Context, job *Job) error {
		<-ctx.Done()
		observed <- ctx.Err()
		return ctx.Err()
	})
	q.RunJobProcessorLoop(1)
	defer q.Shutdown()

	job, err := q.CreateJob("slow", nil)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	waitForState(t, q, job.ID, StateRunning)

	if err := q.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	select {
	case <-observed:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler never observed cancellation")
	}

	waitForState(t, q, job.ID, StateCancelled)
}

func TestRestorePendingJobsResumesRunningAsPending(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	q1, err := New(dataDir, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stuck := &Job{ID: "stuck-job", Type: "transcription", State: StateRunning, CreatedAt: time.Now().UTC(), StartedAt: time.Now().UTC()}
	if err := q1.persist(stuck); err != nil {
		t.Fatalf("persist() error = %v", err)
	}

	q2, err := New(dataDir, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	q2.RegisterHandler("transcription", func(ctx context.Context, job *Job) error { return nil })

	resumed, err := q2.RestorePendingJobs()
	if err != nil {
		t.Fatalf("RestorePendingJobs() error = %v", err)
	}
	if resumed != 1 {
		t.Fatalf("expected 1 resumed job, got %d", resumed)
	}

	job, err := q2.GetJob("stuck-job")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.State != StatePending {
		t.Fatalf("expected restored job to be pending before processing starts, got %s", job.State)
	}

	q2.RunJobProcessorLoop(1)
	defer q2.Shutdown()
	waitForState(t, q2, "stuck-job", StateSucceeded)
}

func TestListJobsFilterByState(t *testing.T) {
	q, err := New(filepath.Join(t.TempDir(), "data"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	q.RegisterHandler("noop", func(ctx context.Context, job *Job) error { return nil })
	q.RunJobProcessorLoop(1)
	defer q.Shutdown()

	job, err := q.CreateJob("noop", nil)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	waitForState(t, q, job.ID, StateSucceeded)

	succeeded := q.ListJobs(Filter{State: StateSucceeded})
	if len(succeeded) != 1 || succeeded[0].ID != job.ID {
		t.Fatalf("expected 1 succeeded job, got %+v", succeeded)
	}
	pending := q.ListJobs(Filter{State: StatePending})
	if len(pending) != 0 {
		t.Fatalf("expected no pending jobs, got %+v", pending)
	}
}
