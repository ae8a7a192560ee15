package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"votolocal-backend/lib/scrapers/tre"
	"votolocal-backend/services/hydrate/db"
)

// runWorker drains one slice of a page through a bounded task queue. At
// most TasksPerWorker lookups run at once, each borrowing a session from
// a fixed pool of reusable scraping sessions. Sessions are expensive and
// the site rate-limits concurrent ones, so a task waits for a free
// session instead of opening its own.
func (s *Service) runWorker(ctx context.Context, people []db.Person) (WorkerReport, error) {
	var report WorkerReport

	size := s.pipeline.TasksPerWorker
	if size > len(people) {
		size = len(people)
	}
	sessions := make(chan lookupClient, size)
	for i := 0; i < size; i++ {
		client, err := s.newClient()
		if err != nil {
			return report, fmt.Errorf("create scraping session: %w", err)
		}
		sessions <- client
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(size)
	for _, person := range people {
		person := person
		group.Go(func() error {
			client := <-sessions
			defer func() { sessions <- client }()
			return s.processPerson(ctx, client, person, &report)
		})
	}
	return report, group.Wait()
}

// processPerson resolves one person's voting location and persists it.
// Lookup failures are tallied, only record-store failures abort. Counter
// updates are atomic, sibling tasks share the report.
func (s *Service) processPerson(ctx context.Context, client lookupClient, person db.Person, report *WorkerReport) error {
	ctx, span := tracer.Start(ctx, "hydrate.processPerson")
	defer span.End()

	atomic.AddInt64(&report.Processed, 1)
	subject := tre.Subject{
		Name:       person.Name,
		BirthDate:  person.BirthDate,
		MotherName: person.MotherName,
	}

	outcome, cacheHit := s.resolve(ctx, client, subject)
	if cacheHit {
		atomic.AddInt64(&report.CacheHits, 1)
	}

	switch outcome.Status {
	case tre.StatusFound:
		if err := s.persist(ctx, person.ID, outcome.Record); err != nil {
			return fmt.Errorf("persist voter location: %w", err)
		}
		if !cacheHit {
			s.cache.Put(ctx, subject.Key(), outcome.Record)
		}
		atomic.AddInt64(&report.Success, 1)
	case tre.StatusNotFound:
		slog.DebugContext(ctx, "no voter record", "person", person.ID)
		atomic.AddInt64(&report.NotFound, 1)
		atomic.AddInt64(&report.Failure, 1)
	default:
		slog.WarnContext(ctx, "lookup failed",
			"person", person.ID,
			"status", outcome.Status.String(),
			"reason", outcome.Reason,
			"err", outcome.Err)
		atomic.AddInt64(&report.Failure, 1)
	}
	return nil
}

// resolve checks the cache before going to the site. The second return
// reports whether the outcome came from the cache.
func (s *Service) resolve(ctx context.Context, client lookupClient, subject tre.Subject) (tre.Outcome, bool) {
	key := subject.Key()
	if record := s.cache.Get(ctx, key); record != nil {
		return tre.Found(record), true
	}

	if !s.pipeline.SingleFlight {
		return s.lookupWithRetry(ctx, client, subject), false
	}

	// duplicate subjects inside one run collapse into a single lookup
	result, _, _ := s.flight.Do(key, func() (any, error) {
		return s.lookupWithRetry(ctx, client, subject), nil
	})
	return result.(tre.Outcome), false
}

// lookupWithRetry retries transient outcomes with backoff. Found,
// not-found and fatal outcomes all return immediately.
func (s *Service) lookupWithRetry(ctx context.Context, client lookupClient, subject tre.Subject) tre.Outcome {
	var outcome tre.Outcome
	_ = retry.Do(
		func() error {
			outcome = safeLookup(ctx, client, subject)
			if outcome.Status != tre.StatusTransient {
				return nil
			}
			if outcome.Err != nil {
				return outcome.Err
			}
			return errors.New(outcome.Reason)
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.pipeline.MaxAttempts)),
		retry.Delay(time.Duration(s.pipeline.RetryDelayMillis)*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	return outcome
}

// safeLookup converts a panicking session into a fatal outcome so one
// bad page can't take down the worker.
func safeLookup(ctx context.Context, client lookupClient, subject tre.Subject) (outcome tre.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = tre.Fatal("panic", fmt.Errorf("lookup panicked: %v", r))
		}
	}()
	return client.Lookup(ctx, subject)
}

// persist writes the location and clears the hydrate flag in one
// transaction so a crash can't leave a hydrated person without a row.
func (s *Service) persist(ctx context.Context, personID int64, record *tre.VoterLocation) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.qry.WithTx(tx)
	err = qtx.UpsertVoterLocation(ctx, db.UpsertVoterLocationParams{
		PersonID:     personID,
		Enrollment:   record.Enrollment,
		Zone:         record.Zone,
		Section:      record.Section,
		PollingPlace: record.PollingPlace,
		Address:      record.Address,
		Municipality: record.Municipality,
		Neighborhood: record.Neighborhood,
		Country:      record.Country,
		Biometrics:   record.Biometrics,
		UpdatedAt:    s.clock().Unix(),
	})
	if err != nil {
		return err
	}
	if err := qtx.MarkPersonHydrated(ctx, personID); err != nil {
		return err
	}
	return tx.Commit()
}
