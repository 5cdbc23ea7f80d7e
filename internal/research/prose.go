// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"regexp"
	"strings"

	"github.com/pdiddy/stackscout/pkg/types"
)

// parseProse is the lossy decoder for semi-structured answers: search models
// often ignore "return JSON" instructions and respond with an enumerated
// list of technologies in Markdown-ish prose. Best effort only; zero
// extracted options is a normal outcome, never an error, and no other
// component may depend on the patterns used here.
//
// The expected shape per item is roughly:
//
//	1. **Name** - short description
//	   Pros:
//	   - fast
//	   - well documented
//	   Cons:
//	   - young ecosystem
//	   Popularity: widely adopted
//	   Learn more: https://example.com
var (
	// itemMarker matches enumerated-list item starts: "1. ", "2) ", "3: ".
	itemMarker = regexp.MustCompile(`(?m)^\s*\d+[.):]\s+`)

	// headerLine captures a name and optional inline description from the
	// first line of a segment, tolerating Markdown bold markers.
	headerLine = regexp.MustCompile(`^\*{0,2}([^*:\n-]+)\*{0,2}\s*(?:[-:]\s*(.*))?$`)

	prosHeading       = regexp.MustCompile(`(?i)\bpros\b\**\s*:`)
	consHeading       = regexp.MustCompile(`(?i)\bcons\b\**\s*:`)
	popularityLine    = regexp.MustCompile(`(?im)^\s*\**popularity\**\s*:\**\s*(.+)$`)
	learnMoreLine     = regexp.MustCompile(`(?im)^\s*\**learn more\**\s*:\**\s*(.+)$`)
	urlPattern        = regexp.MustCompile(`https?://[^\s)\]]+`)
	sectionTerminator = regexp.MustCompile(`(?i)\b(?:pros|cons|popularity|learn more)\b\**\s*:`)
)

func parseProse(raw string) []types.TechOption {
	segments := splitItems(raw)

	var options []types.TechOption
	for _, seg := range segments {
		opt, ok := parseSegment(seg)
		if !ok {
			continue
		}
		options = append(options, opt)
	}
	return options
}

// splitItems splits the answer on enumerated-list markers and drops the
// preamble before the first item.
func splitItems(raw string) []string {
	locs := itemMarker.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	var segments []string
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := strings.TrimSpace(raw[loc[1]:end])
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func parseSegment(seg string) (types.TechOption, bool) {
	lines := strings.SplitN(seg, "\n", 2)
	first := strings.TrimSpace(lines[0])

	m := headerLine.FindStringSubmatch(first)
	if m == nil {
		return types.TechOption{}, false
	}
	name := strings.TrimSpace(strings.Trim(m[1], "*"))
	if name == "" {
		return types.TechOption{}, false
	}

	opt := types.TechOption{
		Name:        name,
		Description: strings.TrimSpace(m[2]),
	}

	rest := ""
	if len(lines) > 1 {
		rest = lines[1]
	}

	// A description may also sit on its own line before the Pros block.
	if opt.Description == "" {
		opt.Description = leadingText(rest)
	}

	opt.Pros = bulletBlock(rest, prosHeading)
	opt.Cons = bulletBlock(rest, consHeading)

	if pm := popularityLine.FindStringSubmatch(rest); pm != nil {
		opt.Popularity = strings.TrimSpace(pm[1])
	}
	if lm := learnMoreLine.FindStringSubmatch(rest); lm != nil {
		if u := urlPattern.FindString(lm[1]); u != "" {
			opt.LearnMore = u
		}
	}

	return opt, true
}

// leadingText returns the free text before the first labeled section.
func leadingText(rest string) string {
	end := len(rest)
	if loc := sectionTerminator.FindStringIndex(rest); loc != nil {
		end = loc[0]
	}
	return strings.TrimSpace(strings.ReplaceAll(rest[:end], "\n", " "))
}

// bulletBlock extracts the bullet lines following a section heading, up to
// the next labeled section or a blank line.
func bulletBlock(rest string, heading *regexp.Regexp) []string {
	loc := heading.FindStringIndex(rest)
	if loc == nil {
		return nil
	}

	block := rest[loc[1]:]
	var items []string
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(items) > 0 {
				break
			}
			continue
		}
		if sectionTerminator.MatchString(trimmed) {
			break
		}

		item := trimBullet(trimmed)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// trimBullet strips a leading list marker ("-", "*", "•") from a line.
func trimBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	// A bare marker with no text contributes nothing.
	if line == "-" || line == "*" || line == "•" {
		return ""
	}
	return line
}
