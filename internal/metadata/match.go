package metadata

import "strings"

// Candidate is the provider-agnostic view of one search hit, as far as the
// shared matching loop is concerned.
type Candidate struct {
	Title  string
	Artist string
}

// Scoring carries a provider's empirically tuned matching parameters. The
// values are configuration, not principle; do not tune them without evidence.
type Scoring struct {
	// Weights for the normal tier. Should sum to 1 together.
	TitleWeight  float64
	ArtistWeight float64
	// Threshold a normal-tier score must reach to be accepted.
	Threshold float64

	// When the artist similarity reaches ExactArtistSim, an exact artist is
	// treated as strong independent evidence: weighting switches to 50/50
	// and the looser RelaxedThreshold applies. Zero disables the tier.
	ExactArtistSim   float64
	RelaxedThreshold float64

	// Flat bonus added when the artist matches exactly (case-insensitive).
	// Used by the discography catalog instead of the two-tier weighting.
	ExactArtistBonus float64
}

// CandidateScore is the transient result of scoring one candidate.
type CandidateScore struct {
	Index     int
	TitleSim  float64
	ArtistSim float64
	Weighted  float64
	Threshold float64
}

// Score computes the weighted score and applicable threshold for one
// title/artist similarity pair.
func (s Scoring) Score(titleSim, artistSim float64) (weighted, threshold float64) {
	if s.ExactArtistSim > 0 && artistSim >= s.ExactArtistSim {
		return titleSim*0.5 + artistSim*0.5, s.RelaxedThreshold
	}
	return titleSim*s.TitleWeight + artistSim*s.ArtistWeight, s.Threshold
}

// BestMatch scores every candidate against the cleaned title/artist pair and
// returns the single highest-scoring one, accepted only if it clears its
// applicable threshold.
func BestMatch(s Scoring, cleanTitle, cleanArtist string, candidates []Candidate) (CandidateScore, bool) {
	var best CandidateScore
	found := false

	for i, c := range candidates {
		titleSim := Similarity(cleanTitle, c.Title)
		artistSim := Similarity(cleanArtist, c.Artist)
		weighted, threshold := s.Score(titleSim, artistSim)

		if s.ExactArtistBonus > 0 && equalFold(cleanArtist, c.Artist) {
			weighted += s.ExactArtistBonus
		}

		if weighted < threshold {
			continue
		}
		if !found || weighted > best.Weighted {
			best = CandidateScore{
				Index:     i,
				TitleSim:  titleSim,
				ArtistSim: artistSim,
				Weighted:  weighted,
				Threshold: threshold,
			}
			found = true
		}
	}

	return best, found
}

func equalFold(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}
