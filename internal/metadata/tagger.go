package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.senan.xyz/taglib"

	"ytcurator/pkg/utils"
)

// WriteFile writes the reconciled record into an audio file's tags, cover
// art included. The record is complete by construction, so every standard
// tag gets a value.
func WriteFile(path string, rec Reconciled) error {
	tags := map[string][]string{
		taglib.Title:       {rec.Title},
		taglib.Artist:      {rec.Artist},
		taglib.Album:       {rec.Album},
		taglib.AlbumArtist: {rec.AlbumArtist},
		taglib.TrackNumber: {strconv.Itoa(rec.TrackNumber)},
		taglib.Date:        {strconv.Itoa(rec.Year)},
		taglib.Genre:       {rec.Genre},
	}
	if rec.Lyrics != "" {
		// Unsynchronized lyrics property; taglib maps it onto the
		// container-specific frame.
		tags["LYRICS"] = []string{rec.Lyrics}
	}

	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}

	if len(rec.CoverData) > 0 {
		if err := taglib.WriteImage(path, rec.CoverData); err != nil {
			return fmt.Errorf("failed to write cover to %s: %w", path, err)
		}
	}
	return nil
}

// LibrarySubDir returns the "AlbumArtist/Album" subdirectory a reconciled
// track files under.
func LibrarySubDir(rec Reconciled) string {
	artist := rec.AlbumArtist
	if artist == "" {
		artist = rec.Artist
	}
	if artist == "" {
		artist = UnknownArtist
	}
	album := rec.Album
	if album == "" {
		album = "Single"
	}
	return filepath.Join(utils.SanitizeFilename(artist), utils.SanitizeFilename(album))
}
