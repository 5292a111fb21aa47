package adapter

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/constants"
)

// The common platform vocabulary every adapter normalizes into. Tokens
// outside the taxonomy pass through verbatim, lower-cased.
const (
	PlatformConsole = "console"
	PlatformPC      = "pc"
	PlatformCloud   = "cloud"
)

var platformLabels = map[string]string{
	PlatformConsole: "Console",
	PlatformPC:      "PC",
	PlatformCloud:   "Cloud",
}

// NormalizeToken maps one platform token into the taxonomy. Unrecognized
// tokens are kept verbatim, lower-cased.
func NormalizeToken(token string) string {
	lowered := strings.ToLower(strings.TrimSpace(token))
	switch {
	case lowered == "":
		return ""
	case strings.Contains(lowered, "cloud"):
		return PlatformCloud
	case strings.Contains(lowered, "pc"), strings.Contains(lowered, "windows"):
		return PlatformPC
	case strings.Contains(lowered, "xbox"), strings.Contains(lowered, "console"):
		return PlatformConsole
	default:
		return lowered
	}
}

// TokensFromText scans free text for platform keywords. Only taxonomy
// platforms are inferred from prose; arbitrary words are not signals.
func TokensFromText(text string) []string {
	lowered := strings.ToLower(text)
	var tokens []string
	if containsAny(lowered, "windows", "pc", "play anywhere") {
		tokens = append(tokens, PlatformPC)
	}
	if containsAny(lowered, "xbox series", "xbox one", "console") {
		tokens = append(tokens, PlatformConsole)
	}
	if containsAny(lowered, "cloud", "xcloud") {
		tokens = append(tokens, PlatformCloud)
	}
	return tokens
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// SortPlatforms renders a platform set in the fixed display order: console,
// pc, cloud, then anything else alphabetically.
func SortPlatforms(set map[string]struct{}) []string {
	ordered := make([]string, 0, len(set))
	for _, known := range []string{PlatformConsole, PlatformPC, PlatformCloud} {
		if _, ok := set[known]; ok {
			ordered = append(ordered, known)
		}
	}

	var extras []string
	for token := range set {
		switch token {
		case PlatformConsole, PlatformPC, PlatformCloud, "":
		default:
			extras = append(extras, token)
		}
	}
	sort.Strings(extras)
	return append(ordered, extras...)
}

// NormalizePlatforms normalizes and orders a list of raw tokens.
func NormalizePlatforms(tokens []string) []string {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if normalized := NormalizeToken(token); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return SortPlatforms(set)
}

// PlatformLabel renders a platform token for humans.
func PlatformLabel(token string) string {
	if label, ok := platformLabels[token]; ok {
		return label
	}
	if token == "" {
		return ""
	}
	return strings.ToUpper(token[:1]) + token[1:]
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// ExtractYear finds the first plausible 4-digit release year in text.
// Returns 0 when none is in [1970, current year].
func ExtractYear(text string) int {
	for _, match := range yearPattern.FindAllString(text, -1) {
		year := 0
		for _, c := range match {
			year = year*10 + int(c-'0')
		}
		if YearInRange(year) {
			return year
		}
	}
	return 0
}

// YearInRange bounds a release year to [1970, current year].
func YearInRange(year int) bool {
	return year >= constants.MinReleaseYear && year <= time.Now().UTC().Year()
}
