package metadata

import (
	"math"
	"testing"
)

func TestScoringTwoTier(t *testing.T) {
	s := Scoring{
		TitleWeight:      0.65,
		ArtistWeight:     0.35,
		Threshold:        0.7,
		ExactArtistSim:   0.9,
		RelaxedThreshold: 0.5,
	}

	// Below the exact-artist tier: weighted 0.65/0.35 with the strict threshold.
	weighted, threshold := s.Score(0.8, 0.5)
	if want := 0.8*0.65 + 0.5*0.35; math.Abs(weighted-want) > 1e-9 {
		t.Errorf("normal tier weighted = %v, want %v", weighted, want)
	}
	if threshold != 0.7 {
		t.Errorf("normal tier threshold = %v, want 0.7", threshold)
	}

	// At the exact-artist tier: 50/50 and the relaxed threshold.
	weighted, threshold = s.Score(0.6, 1.0)
	if want := 0.6*0.5 + 1.0*0.5; math.Abs(weighted-want) > 1e-9 {
		t.Errorf("exact tier weighted = %v, want %v", weighted, want)
	}
	if threshold != 0.5 {
		t.Errorf("exact tier threshold = %v, want 0.5", threshold)
	}
}

func TestBestMatchExactArtistRescuesLooseTitle(t *testing.T) {
	s := Scoring{
		TitleWeight:      0.65,
		ArtistWeight:     0.35,
		Threshold:        0.7,
		ExactArtistSim:   0.9,
		RelaxedThreshold: 0.5,
	}

	// The remix title alone would fail the strict threshold; the exact artist
	// moves it to the relaxed tier and it passes.
	candidates := []Candidate{
		{Title: "Mein Block (Extended Club Remix)", Artist: "Ski Aggu"},
	}

	best, ok := BestMatch(s, "Mein Block", "Ski Aggu", candidates)
	if !ok {
		t.Fatal("expected a match via the relaxed tier")
	}
	if best.Index != 0 {
		t.Errorf("Index = %d, want 0", best.Index)
	}
	if best.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want relaxed 0.5", best.Threshold)
	}
}

func TestBestMatchRejectsBelowThreshold(t *testing.T) {
	s := Scoring{TitleWeight: 0.65, ArtistWeight: 0.35, Threshold: 0.7}

	candidates := []Candidate{
		{Title: "Completely Different Song", Artist: "Somebody Else"},
	}

	if _, ok := BestMatch(s, "Mein Block", "Ski Aggu", candidates); ok {
		t.Error("expected no match for an unrelated candidate")
	}
}

func TestBestMatchPicksHighestQualifier(t *testing.T) {
	s := Scoring{TitleWeight: 0.7, ArtistWeight: 0.3, Threshold: 0.6}

	candidates := []Candidate{
		{Title: "Astronaut (Live)", Artist: "Sido"},
		{Title: "Astronaut", Artist: "Sido"},
		{Title: "Astronauts", Artist: "Sido"},
	}

	best, ok := BestMatch(s, "Astronaut", "Sido", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if best.Index != 1 {
		t.Errorf("Index = %d, want the exact title at 1", best.Index)
	}
	if best.Weighted != 1.0 {
		t.Errorf("Weighted = %v, want 1.0", best.Weighted)
	}
}

func TestBestMatchExactArtistBonus(t *testing.T) {
	s := Scoring{TitleWeight: 0.7, ArtistWeight: 0.3, Threshold: 0.95, ExactArtistBonus: 0.1}

	// Weighted score alone is below the threshold; the exact-artist bonus
	// lifts it over.
	candidates := []Candidate{
		{Title: "Astronaut!", Artist: "Sido"},
	}

	titleSim := Similarity("Astronaut", "Astronaut!")
	base := titleSim*0.7 + 1.0*0.3
	if base >= s.Threshold {
		t.Fatalf("test premise broken: base score %v already clears %v", base, s.Threshold)
	}

	best, ok := BestMatch(s, "Astronaut", "Sido", candidates)
	if !ok {
		t.Fatal("expected the bonus to rescue the match")
	}
	if math.Abs(best.Weighted-(base+0.1)) > 1e-9 {
		t.Errorf("Weighted = %v, want %v", best.Weighted, base+0.1)
	}
}

func TestBestMatchNoBonusForEmptyArtist(t *testing.T) {
	s := Scoring{TitleWeight: 0.7, ArtistWeight: 0.3, Threshold: 0.95, ExactArtistBonus: 0.1}

	candidates := []Candidate{{Title: "Astronaut", Artist: ""}}

	// Similarity("", "") is 1.0 but the bonus must not fire for empty names.
	best, ok := BestMatch(s, "Astronaut", "", candidates)
	if !ok {
		t.Fatal("expected a match on title alone")
	}
	if best.Weighted != 1.0 {
		t.Errorf("Weighted = %v, want 1.0 without bonus", best.Weighted)
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	s := Scoring{TitleWeight: 0.7, ArtistWeight: 0.3, Threshold: 0.6}
	if _, ok := BestMatch(s, "x", "y", nil); ok {
		t.Error("expected no match for empty candidate list")
	}
}
