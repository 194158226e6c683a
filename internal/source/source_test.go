package source_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/source"
)

func TestBuildKnownSources(t *testing.T) {
	t.Parallel()

	opts := source.Options{City: "Tbilisi", Country: "GE", UserAgent: "eventscout-test"}
	for _, id := range []domain.SourceID{domain.SourceRA, domain.SourceTKT, domain.SourceBandsintown} {
		adapter, err := source.Build(id, opts)
		require.NoError(t, err)
		require.Equal(t, id, adapter.ID())

		city, country := adapter.Location()
		require.Equal(t, "Tbilisi", city)
		require.Equal(t, "GE", country)
	}
}

func TestBuildUnknownSource(t *testing.T) {
	t.Parallel()

	_, err := source.Build("songkick", source.Options{})
	require.Error(t, err)
}

func TestBandsintownURLsAndPattern(t *testing.T) {
	t.Parallel()

	adapter := source.NewBandsintown(source.Options{City: "Tbilisi", Country: "GE"})

	require.Contains(t, adapter.ListingURL(2), "city_id=611717")
	require.Contains(t, adapter.ListingURL(2), "page=2")
	require.Equal(t, "https://www.bandsintown.com/e/104857623", adapter.DetailURL("104857623"))

	body := `<a href="/e/104857623">gig</a> <a href="/a/339515">artist page</a>`
	matches := adapter.CandidatePattern().FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 1)
	require.Equal(t, "104857623", matches[0][1])
}

func TestBandsintownHasNoQueryAPI(t *testing.T) {
	t.Parallel()

	adapter, err := source.Build(domain.SourceBandsintown, source.Options{})
	require.NoError(t, err)

	_, ok := adapter.(source.APIQuerier)
	require.False(t, ok, "bandsintown details must come from the rendered page")
}
