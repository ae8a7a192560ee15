package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"votolocal-backend/lib/testutil"
)

func newTestQueries(t *testing.T) *Queries {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/hydrate/db",
		DbSchema: Schema,
	})
	t.Cleanup(cleanup)
	return New(res.DB)
}

func TestBacklogPaging(t *testing.T) {
	ctx := context.Background()
	qry := newTestQueries(t)

	for i := 0; i < 5; i++ {
		_, err := qry.CreatePerson(ctx, CreatePersonParams{
			Name:       fmt.Sprintf("PESSOA %d", i),
			BirthDate:  "01/02/2000",
			MotherName: fmt.Sprintf("MAE %d", i),
			CityID:     2304400,
			Hydrate:    true,
		})
		require.NoError(t, err)
	}
	// a different city and an already-hydrated row must never page in
	_, err := qry.CreatePerson(ctx, CreatePersonParams{
		Name: "OUTRA CIDADE", BirthDate: "01/02/2000", MotherName: "MAE",
		CityID: 2611606, Hydrate: true,
	})
	require.NoError(t, err)
	done, err := qry.CreatePerson(ctx, CreatePersonParams{
		Name: "JA HIDRATADA", BirthDate: "01/02/2000", MotherName: "MAE",
		CityID: 2304400, Hydrate: true,
	})
	require.NoError(t, err)
	require.NoError(t, qry.MarkPersonHydrated(ctx, done))

	page1, err := qry.ListBacklogPage(ctx, ListBacklogPageParams{CityID: 2304400, Limit: 3, Offset: 0})
	require.NoError(t, err)
	require.Len(t, page1, 3)

	page2, err := qry.ListBacklogPage(ctx, ListBacklogPageParams{CityID: 2304400, Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page2, 2)

	page3, err := qry.ListBacklogPage(ctx, ListBacklogPageParams{CityID: 2304400, Limit: 3, Offset: 6})
	require.NoError(t, err)
	require.Empty(t, page3)

	for _, p := range append(page1, page2...) {
		require.NotEqual(t, "OUTRA CIDADE", p.Name)
		require.NotEqual(t, "JA HIDRATADA", p.Name)
	}
}

func TestUpsertVoterLocationIdempotent(t *testing.T) {
	ctx := context.Background()
	qry := newTestQueries(t)

	id, err := qry.CreatePerson(ctx, CreatePersonParams{
		Name: "MARIA SILVA", BirthDate: "01/02/2000", MotherName: "ANA SILVA",
		CityID: 2304400, Hydrate: true,
	})
	require.NoError(t, err)

	first := UpsertVoterLocationParams{
		PersonID:     id,
		Enrollment:   "123456789012",
		Zone:         "007",
		Section:      "0012",
		PollingPlace: "ESCOLA X",
		Address:      "RUA A, 100",
		Municipality: "FORTALEZA",
		Neighborhood: "CENTRO",
		Country:      "BRASIL",
		Biometrics:   true,
		UpdatedAt:    1000,
	}
	require.NoError(t, qry.UpsertVoterLocation(ctx, first))

	// a retried write replaces rather than duplicating
	second := first
	second.Zone = "009"
	second.UpdatedAt = 2000
	require.NoError(t, qry.UpsertVoterLocation(ctx, second))

	got, err := qry.GetVoterLocation(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "009", got.Zone)
	require.Equal(t, int64(2000), got.UpdatedAt)
	require.Equal(t, "123456789012", got.Enrollment)
	require.True(t, got.Biometrics)
}

func TestMarkPersonHydrated(t *testing.T) {
	ctx := context.Background()
	qry := newTestQueries(t)

	id, err := qry.CreatePerson(ctx, CreatePersonParams{
		Name: "MARIA SILVA", BirthDate: "01/02/2000", MotherName: "ANA SILVA",
		CityID: 2304400, Hydrate: true,
	})
	require.NoError(t, err)

	require.NoError(t, qry.MarkPersonHydrated(ctx, id))

	got, err := qry.GetPerson(ctx, id)
	require.NoError(t, err)
	require.False(t, got.Hydrate)
}
