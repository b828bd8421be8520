package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTorrentFileWanted(t *testing.T) {
	assert.True(t, (&TorrentFile{Priority: 1}).Wanted())
	assert.True(t, (&TorrentFile{Priority: 7}).Wanted())
	assert.False(t, (&TorrentFile{Priority: 0}).Wanted())
}

func TestWantedFiles(t *testing.T) {
	torrent := Torrent{
		Files: []TorrentFile{
			{Index: 0, Path: "a/movie.mkv", Priority: 1},
			{Index: 1, Path: "a/info.nfo", Priority: 0},
			{Index: 2, Path: "a/cover.jpg", Priority: 4},
		},
	}

	wanted := torrent.WantedFiles()
	assert.Len(t, wanted, 2)
	assert.Equal(t, int64(0), wanted[0].Index)
	assert.Equal(t, int64(2), wanted[1].Index)
}

func TestTorrentTags(t *testing.T) {
	torrent := Torrent{Tags: []string{"tv", "Sonarr"}}

	assert.True(t, torrent.HasAllTags("tv", "sonarr"))
	assert.False(t, torrent.HasAllTags("tv", "radarr"))
	assert.True(t, torrent.HasAnyTag("radarr", "tv"))
	assert.False(t, torrent.HasAnyTag("radarr"))
}

func TestTorrentRegexMatch(t *testing.T) {
	torrent := Torrent{Name: "Some.Release.2026.1080p.WEB"}

	assert.True(t, torrent.RegexMatch("(?i)some\\.release"))
	assert.False(t, torrent.RegexMatch("2160p"))
	assert.False(t, torrent.RegexMatch("("))

	assert.True(t, torrent.RegexMatchAny("2160p, 1080p"))
	assert.False(t, torrent.RegexMatchAny("2160p, 720p"))

	assert.True(t, torrent.RegexMatchAll("1080p, WEB"))
	assert.False(t, torrent.RegexMatchAll("1080p, BluRay"))
}
