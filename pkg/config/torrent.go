package config

import (
	"strings"

	"github.com/autobrr/tcm/pkg/regex"
	"github.com/autobrr/tcm/pkg/sliceutils"
)

// TorrentFile is a single entry of a torrent's file list. Priority is the
// client-side download priority; 0 means the file is skipped. The skip state
// is owned by the remote client and only changed through client calls.
type TorrentFile struct {
	Index    int64  `json:"Index"`
	Path     string `json:"Path"`
	Size     int64  `json:"Size"`
	Priority int64  `json:"Priority"`
}

// Wanted reports whether the client intends to download the file.
func (f *TorrentFile) Wanted() bool {
	return f.Priority > 0
}

type Torrent struct {
	// torrent
	Hash            string        `json:"Hash"`
	Name            string        `json:"Name"`
	Path            string        `json:"Path"`
	TotalBytes      int64         `json:"TotalBytes"`
	DownloadedBytes int64         `json:"DownloadedBytes"`
	State           string        `json:"State"`
	Files           []TorrentFile `json:"Files"`
	Tags            []string      `json:"Tags"`
	Downloaded      bool          `json:"Downloaded"`
	Seeding         bool          `json:"Seeding"`
	Ratio           float32       `json:"Ratio"`
	AddedSeconds    int64         `json:"AddedSeconds"`
	AddedHours      float32       `json:"AddedHours"`
	AddedDays       float32       `json:"AddedDays"`
	Label           string        `json:"Label"`
	Seeds           int64         `json:"Seeds"`
	Peers           int64         `json:"Peers"`
	IsPrivate       bool          `json:"IsPrivate"`
	IsPublic        bool          `json:"IsPublic"`

	// tracker
	TrackerName   string `json:"TrackerName"`
	TrackerStatus string `json:"TrackerStatus"`

	regexPattern *regex.Pattern
}

// WantedFiles returns the files the client still intends to download.
func (t *Torrent) WantedFiles() []TorrentFile {
	var files []TorrentFile
	for _, f := range t.Files {
		if f.Wanted() {
			files = append(files, f)
		}
	}

	return files
}

func (t *Torrent) HasAllTags(tags ...string) bool {
	for _, v := range tags {
		if !sliceutils.StringSliceContains(t.Tags, v, true) {
			return false
		}
	}

	return true
}

func (t *Torrent) HasAnyTag(tags ...string) bool {
	for _, v := range tags {
		if sliceutils.StringSliceContains(t.Tags, v, true) {
			return true
		}
	}

	return false
}

// RegexMatch checks the torrent name against pattern
func (t *Torrent) RegexMatch(pattern string) bool {
	// Compile pattern if needed
	if t.regexPattern == nil || t.regexPattern.Expression.String() != pattern {
		compiled, err := regex.Compile(pattern)
		if err != nil {
			return false
		}
		t.regexPattern = compiled
	}

	match, err := regex.Check(t.Name, t.regexPattern)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAny checks if the torrent name matches any of the comma-separated patterns
func (t *Torrent) RegexMatchAny(patternsStr string) bool {
	var compiledPatterns []*regex.Pattern
	for _, p := range strings.Split(patternsStr, ",") {
		compiled, err := regex.Compile(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	match, err := regex.CheckAny(t.Name, compiledPatterns)
	if err != nil {
		return false
	}
	return match
}

// RegexMatchAll checks if the torrent name matches all of the comma-separated patterns
func (t *Torrent) RegexMatchAll(patternsStr string) bool {
	var compiledPatterns []*regex.Pattern
	for _, p := range strings.Split(patternsStr, ",") {
		compiled, err := regex.Compile(strings.TrimSpace(p))
		if err != nil {
			return false
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	match, err := regex.CheckAll(t.Name, compiledPatterns)
	if err != nil {
		return false
	}
	return match
}
