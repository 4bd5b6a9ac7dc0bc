package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releaseErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return f.releaseErr
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     lock,
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, job string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabel(metric, "job", job) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, lock, metrics.NewCronJobMetrics(reg), success, failure)

	err := service.runCycle(context.Background())
	if err == nil {
		t.Fatalf("expected combined job error")
	}
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected 1 error, got %d: %v", got, err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", success.runs, failure.runs)
	}
	if lock.releases != 1 || lock.held {
		t.Fatalf("expected lock released once")
	}
	if got := counterValue(t, reg, "stockroom_cron_job_success_total", "success"); got != 1 {
		t.Fatalf("expected success counter 1, got %f", got)
	}
	if got := counterValue(t, reg, "stockroom_cron_job_failure_total", "fail"); got != 1 {
		t.Fatalf("expected failure counter 1, got %f", got)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "scan"}
	service := newTestService(t, &fakeLock{held: true}, metrics.NewCronJobMetrics(reg), job)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job should not run without the lock")
	}
	if got := counterValue(t, reg, "stockroom_cron_job_skipped_total", "scan"); got != 1 {
		t.Fatalf("expected skipped counter 1, got %f", got)
	}
}

func TestServiceRunCycleCombinesReleaseError(t *testing.T) {
	job := &testJob{name: "scan", err: errors.New("scan failed")}
	lock := &fakeLock{releaseErr: errors.New("release failed")}
	service := newTestService(t, lock, nil, job)

	err := service.runCycle(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected job and release errors, got %v", err)
	}
}

func TestServiceRunCycleLockFailure(t *testing.T) {
	job := &testJob{name: "scan"}
	service := newTestService(t, &fakeLock{acquireErr: errors.New("redis down")}, nil, job)

	if err := service.runCycle(context.Background()); err == nil {
		t.Fatalf("expected lock error")
	}
	if job.runs != 0 {
		t.Fatalf("job should not run when the lock errors")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "scan"}
	service := newTestService(t, &fakeLock{}, nil, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the initial cycle to run once, got %d", job.runs)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Fatalf("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected lock error")
	}
}
