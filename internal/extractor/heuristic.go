package extractor

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heuristic selectors, deliberately conservative. They target the few
// patterns the supported sites share: a heading for the title, a venue
// link, a time element, and artist-hinting attributes.
const (
	heuristicTitleSelector  = "h1, h2"
	heuristicVenueSelector  = `[data-test="venue"], a[href*="/clubs/"], a[href*="/venues/"]`
	heuristicArtistSelector = `[data-test="artist"], [class*="artist"], a[href*="/dj/"]`
	heuristicTimeSelector   = "time"
	heuristicImageSelector  = "img"
)

// extractHeuristic assembles a best-effort field map from the rendered
// page. It never fails: missing fields are simply absent, and a page that
// cannot be fetched yields an empty map.
func (e *Extractor) extractHeuristic(ctx context.Context, page *detailPage) map[string]any {
	fields := map[string]any{}

	doc, err := page.document(ctx, e.fetcher)
	if err != nil {
		return fields
	}

	if title := strings.TrimSpace(doc.Find(heuristicTitleSelector).First().Text()); title != "" {
		fields["name"] = title
	}

	if venue := strings.TrimSpace(doc.Find(heuristicVenueSelector).First().Text()); venue != "" {
		fields["venue"] = venue
	}

	timeEl := doc.Find(heuristicTimeSelector).First()
	if datetime, exists := timeEl.Attr("datetime"); exists && strings.TrimSpace(datetime) != "" {
		fields["startDate"] = strings.TrimSpace(datetime)
	} else if text := strings.TrimSpace(timeEl.Text()); text != "" {
		fields["startDate"] = text
	}

	var artists []string
	seen := map[string]struct{}{}
	doc.Find(heuristicArtistSelector).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		artists = append(artists, name)
	})
	if len(artists) > 0 {
		fields["artists"] = artists
	}

	if src, exists := doc.Find(heuristicImageSelector).First().Attr("src"); exists && src != "" {
		fields["image"] = src
	}

	return fields
}
