package hydrate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"votolocal-backend/lib/scrapers/tre"
	"votolocal-backend/lib/testutil"
	"votolocal-backend/lib/timezone"
	"votolocal-backend/services/hydrate/db"
)

const testCityID = 2304400

type scriptedClient struct {
	lookup func(ctx context.Context, subject tre.Subject) tre.Outcome
}

func (c *scriptedClient) Lookup(ctx context.Context, subject tre.Subject) tre.Outcome {
	return c.lookup(ctx, subject)
}

func newTestService(t *testing.T, pipeline PipelineConfig, lookup func(context.Context, tre.Subject) tre.Outcome) *Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/hydrate",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	pipeline.CityID = testCityID
	return &Service{
		conn:     res.DB,
		qry:      db.New(res.DB),
		pipeline: pipeline.withDefaults(),
		clock: func() time.Time {
			return time.Date(2024, time.June, 1, 12, 0, 0, 0, timezone.Location)
		},
		newClient: func() (lookupClient, error) {
			return &scriptedClient{lookup: lookup}, nil
		},
	}
}

func seedPerson(t *testing.T, qry *db.Queries, name string, birthDate string) int64 {
	id, err := qry.CreatePerson(context.Background(), db.CreatePersonParams{
		Name:       name,
		BirthDate:  birthDate,
		MotherName: "MAE DE " + name,
		CityID:     testCityID,
		Hydrate:    true,
	})
	require.NoError(t, err)
	return id
}

func testRecord() *tre.VoterLocation {
	return &tre.VoterLocation{
		Enrollment:   "123456789012",
		Zone:         "007",
		Section:      "0012",
		PollingPlace: "ESCOLA X",
		Address:      "RUA A, 100",
		Municipality: "FORTALEZA",
		Neighborhood: "CENTRO",
		Country:      "BRASIL",
		Biometrics:   true,
	}
}

func TestRunTerminatesAfterConsecutiveEmptyPages(t *testing.T) {
	var calls atomic.Int64
	svc := newTestService(t,
		PipelineConfig{PageSize: 3, Workers: 2, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			calls.Add(1)
			return tre.NotFound()
		})

	for i := 0; i < 6; i++ {
		seedPerson(t, svc.qry, fmt.Sprintf("PESSOA %d", i), "01/02/2000")
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	// not-found people stay in the backlog, so the run pages past all
	// of them exactly once and then sees only empty pages
	require.Equal(t, 2, report.Pages)
	require.Equal(t, int64(6), report.Processed)
	require.Equal(t, int64(6), report.NotFound)
	require.Equal(t, int64(6), report.Failure)
	require.Equal(t, int64(0), report.Success)
	require.Equal(t, int64(6), calls.Load())
}

func TestRunAggregatesWorkerTallies(t *testing.T) {
	svc := newTestService(t,
		PipelineConfig{PageSize: 4, Workers: 2, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			if strings.HasPrefix(subject.Name, "SUMIDA") {
				return tre.NotFound()
			}
			return tre.Fatal("extraction-incomplete", nil)
		})

	// interleaved outcomes spread over two pages and both workers of
	// each page must sum into one run report
	names := []string{
		"SUMIDA 1", "QUEBRADA 1", "SUMIDA 2", "SUMIDA 3",
		"QUEBRADA 2", "SUMIDA 4", "QUEBRADA 3", "SUMIDA 5",
	}
	for _, name := range names {
		seedPerson(t, svc.qry, name, "01/02/2000")
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Pages)
	require.Equal(t, int64(8), report.Processed)
	require.Equal(t, int64(0), report.Success)
	require.Equal(t, int64(5), report.NotFound)
	require.Equal(t, int64(8), report.Failure)
}

func TestRunHydratesBacklog(t *testing.T) {
	svc := newTestService(t,
		PipelineConfig{PageSize: 10, Workers: 2, TasksPerWorker: 2, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			return tre.Found(testRecord())
		})

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, seedPerson(t, svc.qry, fmt.Sprintf("PESSOA %d", i), "01/02/2000"))
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Pages)
	require.Equal(t, int64(5), report.Processed)
	require.Equal(t, int64(5), report.Success)
	require.Equal(t, int64(0), report.Failure)

	ctx := context.Background()
	for _, id := range ids {
		person, err := svc.qry.GetPerson(ctx, id)
		require.NoError(t, err)
		require.False(t, person.Hydrate)

		location, err := svc.qry.GetVoterLocation(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "123456789012", location.Enrollment)
		require.Equal(t, "ESCOLA X", location.PollingPlace)
		require.True(t, location.Biometrics)
	}
}

func TestRunFiltersByAge(t *testing.T) {
	svc := newTestService(t,
		PipelineConfig{PageSize: 10, Workers: 1, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			return tre.Found(testRecord())
		})

	eligible := seedPerson(t, svc.qry, "DENTRO DA FAIXA", "01/02/2000")
	tooOld := seedPerson(t, svc.qry, "MUITO VELHA", "01/02/1984")
	tooYoung := seedPerson(t, svc.qry, "MUITO NOVA", "01/02/2014")
	badDate := seedPerson(t, svc.qry, "DATA INVALIDA", "02-01-2000")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Processed)
	require.Equal(t, int64(1), report.Success)

	ctx := context.Background()
	person, err := svc.qry.GetPerson(ctx, eligible)
	require.NoError(t, err)
	require.False(t, person.Hydrate)

	for _, id := range []int64{tooOld, tooYoung, badDate} {
		person, err := svc.qry.GetPerson(ctx, id)
		require.NoError(t, err)
		require.True(t, person.Hydrate)
	}
}

func TestRunRetriesTransientOutcomes(t *testing.T) {
	var attempts atomic.Int64
	svc := newTestService(t,
		PipelineConfig{PageSize: 10, Workers: 1, MaxAttempts: 3, RetryDelayMillis: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			if attempts.Add(1) == 1 {
				return tre.Transient("timeout", nil)
			}
			return tre.Found(testRecord())
		})

	seedPerson(t, svc.qry, "MARIA SILVA", "01/02/2000")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Success)
	require.Equal(t, int64(0), report.Failure)
	require.Equal(t, int64(2), attempts.Load())
}

func TestRunIsolatesPanickingLookups(t *testing.T) {
	svc := newTestService(t,
		PipelineConfig{PageSize: 10, Workers: 1, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			if subject.Name == "PESSOA 1" {
				panic("session wedged")
			}
			return tre.Found(testRecord())
		})

	for i := 0; i < 3; i++ {
		seedPerson(t, svc.qry, fmt.Sprintf("PESSOA %d", i), "01/02/2000")
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), report.Processed)
	require.Equal(t, int64(2), report.Success)
	require.Equal(t, int64(1), report.Failure)
}

func TestRunServesRepeatedSubjectsFromCache(t *testing.T) {
	var calls atomic.Int64
	svc := newTestService(t,
		PipelineConfig{PageSize: 10, Workers: 1, TasksPerWorker: 1, MaxAttempts: 1},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			calls.Add(1)
			return tre.Found(testRecord())
		})

	server := miniredis.RunT(t)
	cache, err := NewCache(context.Background(), CacheConfig{Url: "redis://" + server.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	svc.cache = cache

	// two distinct rows that are the same person to the lookup site
	first := seedPerson(t, svc.qry, "MARIA SILVA", "01/02/2000")
	second := seedPerson(t, svc.qry, "MARIA SILVA", "01/02/2000")

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), report.Success)
	require.Equal(t, int64(1), report.CacheHits)
	require.Equal(t, int64(1), calls.Load())

	// a cache hit still persists, both rows end up hydrated
	ctx := context.Background()
	for _, id := range []int64{first, second} {
		person, err := svc.qry.GetPerson(ctx, id)
		require.NoError(t, err)
		require.False(t, person.Hydrate)
	}
}

func TestResolveCollapsesConcurrentDuplicates(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	svc := newTestService(t,
		PipelineConfig{SingleFlight: true},
		func(ctx context.Context, subject tre.Subject) tre.Outcome {
			calls.Add(1)
			<-release
			return tre.Found(testRecord())
		})

	client, err := svc.newClient()
	require.NoError(t, err)
	subject := tre.Subject{Name: "MARIA SILVA", BirthDate: "01/02/2000", MotherName: "ANA SILVA"}

	var wg sync.WaitGroup
	outcomes := make([]tre.Outcome, 2)
	for i := range outcomes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], _ = svc.resolve(context.Background(), client, subject)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond*5)
	// give the second caller time to join the in-flight lookup
	time.Sleep(time.Millisecond * 100)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), calls.Load())
	for _, out := range outcomes {
		require.Equal(t, tre.StatusFound, out.Status)
	}
}

func TestPartition(t *testing.T) {
	people := func(n int) []db.Person {
		out := make([]db.Person, n)
		for i := range out {
			out[i].ID = int64(i)
		}
		return out
	}

	testCases := []struct {
		total    int
		workers  int
		expected []int
	}{
		{total: 10, workers: 3, expected: []int{4, 3, 3}},
		{total: 6, workers: 3, expected: []int{2, 2, 2}},
		{total: 2, workers: 5, expected: []int{1, 1}},
		{total: 1, workers: 1, expected: []int{1}},
		{total: 0, workers: 4, expected: nil},
	}

	for _, test := range testCases {
		slices := partition(people(test.total), test.workers)

		var sizes []int
		next := int64(0)
		for _, slice := range slices {
			sizes = append(sizes, len(slice))
			// contiguous and in order
			for _, p := range slice {
				require.Equal(t, next, p.ID)
				next++
			}
		}
		require.Equal(t, test.expected, sizes, "total=%d workers=%d", test.total, test.workers)
	}
}
