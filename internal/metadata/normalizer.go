package metadata

import (
	"regexp"
	"strings"
)

// The artist sentinel used when cleanup leaves nothing behind.
const UnknownArtist = "Various Artists"

// rewriteRule is one ordered pattern → replacement step of the artist
// cleanup. Rules are plain data so curated tables can extend them.
type rewriteRule struct {
	pattern *regexp.Regexp
	replace string
}

// Default regex rules applied to artist names, in order. They collapse
// collaboration connectors to a comma-separated multi-artist form and fold
// well-known channel spellings onto one canonical name.
var defaultArtistRules = []struct{ Pattern, Replace string }{
	{`(?i)\s*\(feat\..+?\)`, ""},
	{`\s*&\s*`, ", "},
	{`(?i)\s+vs\.?\s+`, ", "},
	{`(?i)\s+x\.?\s+`, ", "},
	{`(?i)^makko.*`, "makko"},
	{`(?i)^bosse.*`, "Bosse"},
	{`(?i).*ski aggu.*`, "Ski Aggu"},
	{`(?i)^lea$`, "LEA"},
	{`(?i)^sido.*`, "Sido"},
	{`(?i)^bausa.*`, "BAUSA"},
	{`(?i)^kygo.*`, "Kygo"},
	{`(?i)^zartmann.*`, "Zartmann"},
	{`(?i)^möwe.*`, "MÖWE"},
	{`(?i)^robin\s*schulz.*`, "Robin Schulz"},
	{`(?i).*pashanim.*`, "Pashanim"},
	{`(?i).*01099.*`, "01099"},
	{`(?i)^dante.*`, "Dante YN"},
}

// Manually curated spelling corrections, keyed by the lowercased name.
// Values are returned verbatim, casing as curated.
var defaultArtistOverrides = map[string]string{
	"makko":        "makko",
	"bosse":        "Bosse",
	"bosseaxel":    "Bosse",
	"zartmann":     "Zartmann",
	"dante":        "Dante YN",
	"dante yn":     "Dante YN",
	"kygo":         "Kygo",
	"kygomusic":    "Kygo",
	"möwe":         "MÖWE",
	"mowe":         "MÖWE",
	"robin schulz": "Robin Schulz",
	"robinschulz":  "Robin Schulz",
	"lea":          "LEA",
	"badchieff":    "Badchieff",
	"aggu31":       "Ski Aggu",
	"bausa":        "BAUSA",
	"bausashaus":   "BAUSA",
	"sido":         "Sido",
	"01099":        "01099",
}

// Platform channel-name conventions stripped before anything else.
var (
	topicSuffixPattern = regexp.MustCompile(`(?i)\s*[-–—]\s*topic\s*$`)
	vevoSuffixPattern  = regexp.MustCompile(`(?i)vevo$`)
)

// Separators that delimit a multi-artist credit. Only the first artist is
// kept: the library files under a single primary artist.
var multiArtistSeparator = regexp.MustCompile(`(?i)\s*(?:,|&|\bfeat\.?\b|\bft\.?\b|\bwith\b)\s*`)

// Title cleanup patterns, applied in order (see CleanTitle).
var (
	titleFeatPattern      = regexp.MustCompile(`(?i)[\(\[]?\s*(feat\.?|ft\.?|featuring)\s+[^\)\]]+[\)\]]?`)
	titleCoArtistPattern  = regexp.MustCompile(`^([A-Za-z0-9ÄÖÜäöüß& .,'"!?]{1,30})\s*[-–—|:]+\s*`)
	titleSeparatorPattern = regexp.MustCompile(`\s*[-–—|:]+\s*`)
	titleBracketPattern   = regexp.MustCompile(`(?i)[\(\[][^\)\]]*[\)\]]`)
	titleNoisePattern     = regexp.MustCompile(`(?i)\b(official|video|audio|visualizer|lyrics?|HD|4k|remastered|radio edit|live( at)?( .*)?)\b`)
	multiSpacePattern     = regexp.MustCompile(`\s{2,}`)
)

// Patterns removed from a combined "Artist - Title" string before splitting.
var (
	splitPrefixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\s+`),
		regexp.MustCompile(`^\[[^\]]*\]\s*`),
		regexp.MustCompile(`(?i)^new\s+`),
	}
	splitSuffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\(official[^\)]*\)`),
		regexp.MustCompile(`\s*\[[^\]]*\]$`),
		regexp.MustCompile(`(?i)\s*lyrics$`),
		regexp.MustCompile(`(?i)\s*\(prod[^\)]*\)`),
		regexp.MustCompile(`(?i)\s*\(ft[^\)]*\)`),
		regexp.MustCompile(`(?i)\s*\(feat[^\)]*\)`),
		regexp.MustCompile(`\s*HD$`),
	}
)

// Normalizer cleans raw artist and title strings through ordered regex rules
// and curated override tables. It is pure and safe for concurrent use; the
// tables are compiled once at construction and never mutated.
type Normalizer struct {
	overrides map[string]string
	rules     []rewriteRule
}

// NewNormalizer builds a Normalizer from the default tables, extended by the
// given curated overrides and extra rules (both may be nil). Extra rules run
// after the defaults, preserving rule order.
func NewNormalizer(overrides map[string]string, rules []struct{ Pattern, Replace string }) (*Normalizer, error) {
	n := &Normalizer{overrides: make(map[string]string, len(defaultArtistOverrides)+len(overrides))}
	for k, v := range defaultArtistOverrides {
		n.overrides[strings.ToLower(k)] = v
	}
	for k, v := range overrides {
		n.overrides[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, r := range append(append([]struct{ Pattern, Replace string }{}, defaultArtistRules...), rules...) {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		n.rules = append(n.rules, rewriteRule{pattern: re, replace: r.Replace})
	}
	return n, nil
}

// CleanArtist normalizes a raw artist or uploader name. The result is never
// empty: cleanup that removes everything falls back to UnknownArtist.
func (n *Normalizer) CleanArtist(raw string) string {
	name := strings.TrimSpace(raw)

	// Channel conventions first: "Artist - Topic", "ArtistVEVO".
	name = topicSuffixPattern.ReplaceAllString(name, "")
	name = vevoSuffixPattern.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if hit, ok := n.overrides[strings.ToLower(name)]; ok {
		return hit
	}

	for _, rule := range n.rules {
		name = rule.pattern.ReplaceAllString(name, rule.replace)
	}
	name = strings.TrimSpace(name)

	// Rules may have normalized the name onto a curated key.
	if hit, ok := n.overrides[strings.ToLower(name)]; ok {
		return hit
	}

	name = PrimaryArtist(name)
	name = sanitizeName(name)
	if name == "" {
		return UnknownArtist
	}
	return titleCase(name)
}

// PrimaryArtist returns the first artist of a multi-artist credit
// ("A, B", "A & B", "A feat. B"). Collaborations are not preserved.
func PrimaryArtist(name string) string {
	if loc := multiArtistSeparator.FindStringIndex(name); loc != nil && loc[0] > 0 {
		name = name[:loc[0]]
	}
	return strings.TrimSpace(name)
}

// CleanTitle strips platform boilerplate from a raw video title. When artist
// is known, a leading "Artist - " prefix is removed as well. All steps are
// best-effort regex heuristics; a title genuinely containing a noise word
// (e.g. "Official") will be over-stripped, which is accepted. The original
// string is returned whenever cleanup leaves nothing behind.
func (n *Normalizer) CleanTitle(raw string, artist string) string {
	original := strings.TrimSpace(raw)
	if original == "" {
		return ""
	}
	cleaned := original

	// 1. Featured-artist parentheticals.
	cleaned = strings.TrimSpace(titleFeatPattern.ReplaceAllString(cleaned, ""))

	// 2. Leading artist prefix, if the artist is known.
	if artist != "" {
		prefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(strings.TrimSpace(artist)) + `\s*[-–—|:]*\s*`)
		cleaned = strings.TrimSpace(prefix.ReplaceAllString(cleaned, ""))
	}

	// 3. A short leading co-artist token before a separator ("HAYLA – Title").
	cleaned = strings.TrimSpace(titleCoArtistPattern.ReplaceAllString(cleaned, ""))

	// 4. Canonical " - " separator, collapsed whitespace.
	cleaned = titleSeparatorPattern.ReplaceAllString(cleaned, " - ")
	cleaned = strings.Trim(multiSpacePattern.ReplaceAllString(cleaned, " "), " -")

	// 5. Remaining bracketed content is assumed to be platform annotation.
	cleaned = strings.TrimSpace(titleBracketPattern.ReplaceAllString(cleaned, ""))

	// 6. Boilerplate words.
	cleaned = strings.TrimSpace(titleNoisePattern.ReplaceAllString(cleaned, ""))

	// 7. Final whitespace pass.
	cleaned = strings.Trim(multiSpacePattern.ReplaceAllString(cleaned, " "), " -")

	if cleaned == "" {
		return original
	}
	return cleaned
}

// SplitArtistTitle splits a combined "Artist - Title [noise]" string into its
// parts. When no separator is found the whole input is treated as the title
// and the artist is returned empty.
func (n *Normalizer) SplitArtistTitle(raw string) (artist, title string) {
	s := strings.TrimSpace(raw)
	for _, p := range splitPrefixPatterns {
		s = p.ReplaceAllString(s, "")
	}
	for _, p := range splitSuffixPatterns {
		s = p.ReplaceAllString(s, "")
	}

	parts := regexp.MustCompile(`\s*-\s*`).Split(s, 2)
	if len(parts) == 2 && parts[0] != "" {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", strings.TrimSpace(s)
}

// sanitizeName removes characters that are illegal in library paths.
func sanitizeName(s string) string {
	replacer := strings.NewReplacer(
		"/", "", "\\", "", ":", "", "*", "", "?", "",
		"\"", "", "<", "", ">", "", "|", "",
	)
	return strings.TrimSpace(replacer.Replace(s))
}

// titleCase capitalizes each word, leaving words that already carry
// uppercase (LEA, MÖWE, 01099) untouched.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == strings.ToLower(w) {
			r := []rune(w)
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
