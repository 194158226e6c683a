package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// Asset hosts for resolving relative image and content paths.
const (
	raAssetBase  = "https://ra.co"
	tktAssetBase = "https://static.tkt.ge/"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// raAPIRecord is the shape of one event from the RA GraphQL API.
type raAPIRecord struct {
	Title     string `mapstructure:"title"`
	Date      string `mapstructure:"date"`
	StartTime string `mapstructure:"startTime"`
	EndTime   string `mapstructure:"endTime"`
	Venue     struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"venue"`
	Artists []struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"artists"`
	Images []struct {
		Filename string `mapstructure:"filename"`
	} `mapstructure:"images"`
	Content    string `mapstructure:"content"`
	ContentURL string `mapstructure:"contentUrl"`
}

// tktAPIRecord is the shape of one show from the tkt.ge gateway API.
type tktAPIRecord struct {
	Name         string `mapstructure:"name"`
	FromDate     string `mapstructure:"fromDate"`
	Description  string `mapstructure:"description"`
	DesktopImage string `mapstructure:"desktopImage"`
	Venues       []struct {
		Name       string `mapstructure:"name"`
		EventInfos []struct {
			EventDate string `mapstructure:"eventDate"`
		} `mapstructure:"eventInfos"`
	} `mapstructure:"venues"`
}

// pageRecord is the shared shape produced by the embedded-markup and
// heuristic strategies.
type pageRecord struct {
	Name        string   `mapstructure:"name"`
	StartDate   string   `mapstructure:"startDate"`
	EndDate     string   `mapstructure:"endDate"`
	Venue       string   `mapstructure:"venue"`
	Image       string   `mapstructure:"image"`
	Artists     []string `mapstructure:"artists"`
	Description string   `mapstructure:"description"`
	TicketURL   string   `mapstructure:"ticketUrl"`
}

// decode maps a raw field map onto a typed record, ignoring unknown
// fields (the canonical schema is closed).
func decode(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err = decoder.Decode(fields); err != nil {
		return fmt.Errorf("decode raw fields: %w", err)
	}
	return nil
}

// applyRA maps an RA API payload onto the canonical event.
func applyRA(event *domain.CanonicalEvent, fields map[string]any) error {
	var rec raAPIRecord
	if err := decode(fields, &rec); err != nil {
		return err
	}

	event.Title = strPtr(rec.Title)
	event.Date = ParseDate(rec.Date)
	event.StartTime = ParseTime(rec.StartTime)
	event.EndTime = ParseTime(rec.EndTime)
	event.Venue = strPtr(rec.Venue.Name)
	event.Description = strPtr(rec.Content)

	for _, artist := range rec.Artists {
		if artist.Name != "" {
			event.Artists = append(event.Artists, artist.Name)
		}
	}

	// Unwrap the single-element image list; filenames are site-relative.
	if len(rec.Images) > 0 && rec.Images[0].Filename != "" {
		event.Image = strPtr(resolveAssetURL(raAssetBase, rec.Images[0].Filename))
	}

	return nil
}

// applyTKT maps a tkt.ge show payload onto the canonical event. The show
// page doubles as the ticket page.
func applyTKT(event *domain.CanonicalEvent, fields map[string]any) error {
	var rec tktAPIRecord
	if err := decode(fields, &rec); err != nil {
		return err
	}

	event.Title = strPtr(rec.Name)

	rawDate := rec.FromDate
	if rawDate == "" && len(rec.Venues) > 0 && len(rec.Venues[0].EventInfos) > 0 {
		rawDate = rec.Venues[0].EventInfos[0].EventDate
	}
	event.Date = ParseDate(rawDate)
	event.StartTime = ParseTime(rawDate)

	if len(rec.Venues) > 0 {
		event.Venue = strPtr(rec.Venues[0].Name)
	}
	if rec.DesktopImage != "" {
		event.Image = strPtr(resolveAssetURL(tktAssetBase, rec.DesktopImage))
	}
	event.Description = strPtr(stripTags(rec.Description))
	event.TicketURL = strPtr(event.SourceURL)

	return nil
}

// applyPage maps a markup or heuristic payload onto the canonical event.
func applyPage(event *domain.CanonicalEvent, fields map[string]any) error {
	var rec pageRecord
	if err := decode(fields, &rec); err != nil {
		return err
	}

	event.Title = strPtr(rec.Name)
	event.Date = ParseDate(rec.StartDate)
	event.StartTime = ParseTime(rec.StartDate)
	event.EndTime = ParseTime(rec.EndDate)
	event.Venue = strPtr(rec.Venue)
	event.Image = strPtr(rec.Image)
	event.Description = strPtr(rec.Description)
	event.TicketURL = strPtr(rec.TicketURL)

	for _, artist := range rec.Artists {
		if artist != "" {
			event.Artists = append(event.Artists, artist)
		}
	}

	return nil
}

// resolveAssetURL joins a site-relative asset path with its host.
func resolveAssetURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// stripTags removes HTML tags from gateway descriptions.
func stripTags(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// strPtr returns a pointer to s, or nil when s is empty.
func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
