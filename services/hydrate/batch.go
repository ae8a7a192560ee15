package hydrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"votolocal-backend/lib/timezone"
	"votolocal-backend/services/hydrate/db"
)

// emptyPageLimit is how many consecutive pages with nothing eligible
// the run tolerates before concluding the backlog is exhausted. More
// than one because hydrated rows dropping out of the backlog predicate
// shift later pages under the offset.
const emptyPageLimit = 3

// Run drains the backlog for the configured city: page by page, each
// page fanned out across the worker pool and fully finished before the
// next page is fetched. Returns what was accomplished even on error.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	ctx, span := tracer.Start(ctx, "hydrate.Run")
	defer span.End()

	runId, err := random.String(8)
	if err != nil {
		return nil, err
	}
	logger := slog.With("run", runId, "city", s.pipeline.CityID)

	start := s.clock()
	report := &RunReport{}
	defer func() { report.Duration = s.clock().Sub(start) }()

	var offset int64
	emptyPages := 0
	for emptyPages < emptyPageLimit {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		people, err := s.qry.ListBacklogPage(ctx, db.ListBacklogPageParams{
			CityID: s.pipeline.CityID,
			Limit:  s.pipeline.PageSize,
			Offset: offset,
		})
		if err != nil {
			err = fmt.Errorf("fetch backlog page: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		offset += s.pipeline.PageSize

		eligible := s.filterEligible(ctx, people)
		if len(eligible) == 0 {
			emptyPages++
			continue
		}
		emptyPages = 0
		report.Pages++

		logger.InfoContext(ctx, "processing backlog page",
			"page", report.Pages, "people", len(eligible))

		pageReport, err := s.processPage(ctx, eligible)
		report.add(pageReport)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
	}

	logger.InfoContext(ctx, "backlog drained",
		"pages", report.Pages,
		"processed", report.Processed,
		"success", report.Success,
		"not_found", report.NotFound,
		"failure", report.Failure)
	return report, nil
}

// filterEligible keeps the people inside the configured age window.
// Rows with unparseable birth dates are skipped with a warning, a bad
// row must never stall the whole run.
func (s *Service) filterEligible(ctx context.Context, people []db.Person) []db.Person {
	now := s.clock()
	var eligible []db.Person
	for _, person := range people {
		birth, err := timezone.ParseBirthDate(person.BirthDate)
		if err != nil {
			slog.WarnContext(ctx, "skipping person with invalid birth date",
				"person", person.ID, "birth_date", person.BirthDate)
			continue
		}
		age := timezone.Age(now, birth)
		if age < s.pipeline.AgeMin || age > s.pipeline.AgeMax {
			continue
		}
		eligible = append(eligible, person)
	}
	return eligible
}

// processPage splits a page into contiguous slices, one per worker, and
// waits for every slice to finish.
func (s *Service) processPage(ctx context.Context, people []db.Person) (WorkerReport, error) {
	slices := partition(people, s.pipeline.Workers)

	reports := make([]WorkerReport, len(slices))
	group, ctx := errgroup.WithContext(ctx)
	for i, slice := range slices {
		i, slice := i, slice
		group.Go(func() error {
			var err error
			reports[i], err = s.runWorker(ctx, slice)
			return err
		})
	}
	err := group.Wait()

	var page WorkerReport
	for _, r := range reports {
		page.merge(r)
	}
	return page, err
}

// partition splits people into at most n contiguous slices whose sizes
// differ by at most one. Fewer slices come back when there are fewer
// people than workers.
func partition(people []db.Person, n int) [][]db.Person {
	if n > len(people) {
		n = len(people)
	}
	if n <= 0 {
		return nil
	}

	size := len(people) / n
	remainder := len(people) % n

	slices := make([][]db.Person, 0, n)
	offset := 0
	for i := 0; i < n; i++ {
		width := size
		if i < remainder {
			width++
		}
		slices = append(slices, people[offset:offset+width])
		offset += width
	}
	return slices
}
