package tre

import (
	"fmt"
	"regexp"
	"strings"

	"votolocal-backend/lib/htmlutil"
	"votolocal-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// labelSimilarityThreshold is how close a scraped label must be to a
// vocabulary entry (Jaro-Winkler) when no prefix match exists.
const labelSimilarityThreshold = 0.92

type labelTarget struct {
	label string
	dst   *string
}

// extract maps the result surface's label/value paragraphs into a
// VoterLocation. Zone and section share one paragraph and are pulled out
// by pattern, everything else goes through vocabulary matching. The
// biometrics marker is detected anywhere in the page text.
func (c *Client) extract(doc *goquery.Document) (*VoterLocation, error) {
	labels := c.profile.Labels
	record := &VoterLocation{}

	zoneRe := regexp.MustCompile(regexp.QuoteMeta(labels.Zone) + `:\s*(\d+)`)
	sectionRe := regexp.MustCompile(regexp.QuoteMeta(labels.Section) + `:\s*(\d+)`)

	targets := []labelTarget{
		{labels.Enrollment, &record.Enrollment},
		{labels.PollingPlace, &record.PollingPlace},
		{labels.Address, &record.Address},
		{labels.Municipality, &record.Municipality},
		{labels.Neighborhood, &record.Neighborhood},
		{labels.Country, &record.Country},
	}

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if len(p.Nodes) == 0 {
			return
		}
		text := htmlutil.CleanText(htmlutil.GetText(p.Nodes[0]))

		if m := zoneRe.FindStringSubmatch(text); m != nil {
			record.Zone = m[1]
		}
		if m := sectionRe.FindStringSubmatch(text); m != nil {
			record.Section = m[1]
		}

		label, value, ok := htmlutil.SplitLabelValue(text)
		if !ok || value == "" {
			return
		}
		if dst := matchLabel(label, targets); dst != nil && *dst == "" {
			*dst = value
		}
	})

	record.Biometrics = strings.Contains(htmlutil.CleanText(doc.Text()), c.profile.BiometricsMarker)

	// a "found" page without an enrollment id means the result surface
	// did not load as expected, not a true not-found
	if record.Enrollment == "" {
		return nil, fmt.Errorf("result surface is missing the %q field", labels.Enrollment)
	}
	return record, nil
}

func matchLabel(label string, targets []labelTarget) *string {
	normalized := textutil.NormalizeName(label)
	if normalized == "" {
		return nil
	}

	var best *string
	var bestScore float64
	for _, t := range targets {
		want := textutil.NormalizeName(t.label)
		if normalized == want || strings.HasPrefix(normalized, want+" ") {
			return t.dst
		}
		score := matchr.JaroWinkler(normalized, want, false)
		if score > bestScore {
			bestScore = score
			best = t.dst
		}
	}
	if bestScore >= labelSimilarityThreshold {
		return best
	}
	return nil
}
