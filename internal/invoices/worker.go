package invoices

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const (
	defaultBatchSize   = 25
	defaultPollMS      = 1000
	defaultMaxAttempts = 8
	maxBackoff         = 30 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// WorkerParams configures the durable job worker.
type WorkerParams struct {
	Repository  Repository
	Generator   *Generator
	Logger      *logger.Logger
	BatchSize   int
	PollMS      int
	MaxAttempts int
}

// Worker drains the invoice job table. It is the durable backstop behind
// the in-process dispatcher: anything dropped, crashed, or re-queued lands
// here.
type Worker struct {
	repo         Repository
	generator    *Generator
	logg         *logger.Logger
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

// NewWorker validates params and applies defaults.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("invoice repository is required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("invoice generator is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMS := params.PollMS
	if pollMS <= 0 {
		pollMS = defaultPollMS
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Worker{
		repo:         params.Repository,
		generator:    params.Generator,
		logg:         params.Logger,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMS) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := w.pollInterval
	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "invoice worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := w.ProcessBatch(ctx)
		if err != nil {
			w.logg.Error(ctx, "invoice worker batch error", err)
			backoff = nextBackoff(backoff, w.pollInterval, maxBackoff)
			if err := w.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = w.pollInterval

		if processed {
			continue
		}
		if err := w.sleep(ctx, withJitter(w.pollInterval)); err != nil {
			return err
		}
	}
}

// ProcessBatch runs one fetch-and-generate cycle. Returns true when any
// job was handled.
func (w *Worker) ProcessBatch(ctx context.Context) (bool, error) {
	jobs, err := w.repo.FetchDueJobs(ctx, w.batchSize)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}

	for _, job := range jobs {
		jobCtx := w.logg.WithOrderID(ctx, job.OrderID)

		if genErr := w.generator.Generate(jobCtx, job.OrderID, "worker"); genErr != nil {
			attempts := job.AttemptCount + 1
			terminal := attempts >= w.maxAttempts
			if terminal {
				w.logg.Error(jobCtx, "invoice job reached max attempts", genErr)
			}
			nextAttempt := time.Now().UTC().Add(w.retryDelay(attempts))
			if markErr := w.repo.MarkJobFailed(ctx, job.ID, attempts, genErr.Error(), terminal, &nextAttempt); markErr != nil {
				return true, markErr
			}
			continue
		}

		if markErr := w.repo.MarkJobSucceeded(ctx, job.ID); markErr != nil {
			return true, markErr
		}
	}
	return true, nil
}

// retryDelay spaces out retries of the same job: the poll interval doubled
// per attempt, capped so a stuck order keeps getting periodic attempts.
func (w *Worker) retryDelay(attempts int) time.Duration {
	delay := w.pollInterval
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, ceiling time.Duration) time.Duration {
	if current <= 0 {
		return base
	}
	doubled := current * 2
	if doubled > ceiling {
		return ceiling
	}
	return doubled
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
