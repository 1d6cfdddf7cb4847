package jobs

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"salarizare/internal/platform/logger"
	"salarizare/internal/platform/querier"
)

const (
	JobRecomputeEmployees = "recompute_employees"
	JobArchivePayslips    = "archive_payslips"
)

// Recomputer refreshes the cached payroll fields of all employees.
type Recomputer interface {
	Recompute(ctx context.Context) (int, error)
}

type Service struct {
	DB       querier.Querier
	Payroll  Recomputer
	Interval time.Duration
	queue    chan job
	log      zerolog.Logger
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, payroll Recomputer, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Payroll:  payroll,
		Interval: interval,
		queue:    make(chan job, 128),
		log:      logger.WithComponent("jobs"),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 && s.Payroll != nil {
		go s.scheduleRecompute(ctx, s.Interval)
	}
}

// Enqueue queues a job for the background worker. It never blocks; a full
// queue drops the job.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		s.log.Warn().Str("jobType", jobType).Msg("job queue full")
		return false
	}
}

// EnqueueRecompute queues a refresh of the cached employee fields.
func (s *Service) EnqueueRecompute() bool {
	return s.Enqueue(JobRecomputeEmployees, s.recompute)
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) recompute(ctx context.Context) (any, error) {
	n, err := s.Payroll.Recompute(ctx)
	return map[string]any{"employees": n}, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn().Err(err).Str("jobType", j.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	var runID int64
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1, $2)
      RETURNING id
    `, j.Type, "running").Scan(&runID); err != nil {
			s.log.Warn().Err(err).Msg("job run insert failed")
		}
	}

	started := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.log.Info().Str("jobType", j.Type).Str("status", status).Dur("duration", time.Since(started)).Msg("job finished")

	if runID == 0 {
		return details, err
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		s.log.Warn().Err(marshalErr).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		s.log.Warn().Err(updErr).Str("runId", strconv.FormatInt(runID, 10)).Msg("job run update failed")
	}
	return details, err
}

func (s *Service) scheduleRecompute(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EnqueueRecompute()
		}
	}
}
