package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDSelector matches schema.org structured data blocks.
const jsonLDSelector = `script[type="application/ld+json"]`

var errNoEventMarkup = errors.New("no event-like structured markup on page")

// extractEmbeddedMarkup scans the rendered detail page for schema.org
// blocks and flattens the first event-like one into a raw field map.
func (e *Extractor) extractEmbeddedMarkup(
	ctx context.Context,
	page *detailPage,
) (map[string]any, error) {
	doc, err := page.document(ctx, e.fetcher)
	if err != nil {
		return nil, err
	}

	var event map[string]any
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var block any
		if jsonErr := json.Unmarshal([]byte(sel.Text()), &block); jsonErr != nil {
			return true // malformed block, keep scanning
		}
		if found := pickEventNode(block); found != nil {
			event = found
			return false
		}
		return true
	})

	if event == nil {
		return nil, errNoEventMarkup
	}
	return flattenJSONLD(event), nil
}

// pickEventNode walks a decoded JSON-LD value (object, array, or @graph
// container) and returns the first node with an event-like @type.
func pickEventNode(block any) map[string]any {
	switch node := block.(type) {
	case map[string]any:
		if isEventType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"].([]any); ok {
			return pickEventNode(graph)
		}
	case []any:
		for _, item := range node {
			if found := pickEventNode(item); found != nil {
				return found
			}
		}
	}
	return nil
}

// isEventType accepts Event and its schema.org subtypes (MusicEvent,
// TheaterEvent, Festival, ...). @type may be a string or a list.
func isEventType(t any) bool {
	switch typed := t.(type) {
	case string:
		return typed == "Event" || typed == "Festival" || strings.HasSuffix(typed, "Event")
	case []any:
		for _, item := range typed {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

// flattenJSONLD normalizes the nested JSON-LD shape into the flat raw
// field map shared with the heuristic strategy. Values stay raw strings;
// the normalizer owns coercion and date parsing.
func flattenJSONLD(event map[string]any) map[string]any {
	fields := map[string]any{}

	if name := stringValue(event["name"]); name != "" {
		fields["name"] = name
	}
	if start := stringValue(event["startDate"]); start != "" {
		fields["startDate"] = start
	}
	if end := stringValue(event["endDate"]); end != "" {
		fields["endDate"] = end
	}
	if desc := stringValue(event["description"]); desc != "" {
		fields["description"] = desc
	}
	if venue := locationName(event["location"]); venue != "" {
		fields["venue"] = venue
	}
	if image := imageURL(event["image"]); image != "" {
		fields["image"] = image
	}
	if artists := performerNames(event["performer"]); len(artists) > 0 {
		fields["artists"] = artists
	}
	if ticket := offerURL(event["offers"]); ticket != "" {
		fields["ticketUrl"] = ticket
	}
	if pageURL := stringValue(event["url"]); pageURL != "" {
		fields["url"] = pageURL
	}

	return fields
}

// stringValue unwraps a JSON-LD scalar: a plain string, the first element
// of a list, or an {"@value": ...} wrapper.
func stringValue(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		if len(typed) > 0 {
			return stringValue(typed[0])
		}
	case map[string]any:
		return stringValue(typed["@value"])
	}
	return ""
}

// locationName resolves location.name or location.address.name.
func locationName(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		if len(typed) > 0 {
			return locationName(typed[0])
		}
	case map[string]any:
		if name := stringValue(typed["name"]); name != "" {
			return name
		}
		if addr, ok := typed["address"].(map[string]any); ok {
			return stringValue(addr["name"])
		}
	}
	return ""
}

// imageURL unwraps a string, list, or ImageObject image reference.
func imageURL(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		if len(typed) > 0 {
			return imageURL(typed[0])
		}
	case map[string]any:
		return stringValue(typed["url"])
	}
	return ""
}

// performerNames flattens performer objects or strings to plain names.
func performerNames(v any) []string {
	var names []string
	appendName := func(item any) {
		switch p := item.(type) {
		case string:
			if name := strings.TrimSpace(p); name != "" {
				names = append(names, name)
			}
		case map[string]any:
			if name := stringValue(p["name"]); name != "" {
				names = append(names, name)
			}
		}
	}

	switch typed := v.(type) {
	case []any:
		for _, item := range typed {
			appendName(item)
		}
	default:
		appendName(typed)
	}
	return names
}

// offerURL resolves offers.url from an object or list of offers.
func offerURL(v any) string {
	switch typed := v.(type) {
	case []any:
		if len(typed) > 0 {
			return offerURL(typed[0])
		}
	case map[string]any:
		return stringValue(typed["url"])
	}
	return ""
}
