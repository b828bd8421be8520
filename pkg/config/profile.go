package config

// ProfileConfiguration holds the match-lists and expressions applied to a
// client's torrents. Forbidden and Unwanted entries are either filename
// suffixes (".exe") or "regex:" prefixed patterns. Ignore and Remove hold
// expressions evaluated against the torrent.
type ProfileConfiguration struct {
	Forbidden  []string
	Unwanted   []string
	Ignore     []string
	Remove     []string
	DeleteData *bool `yaml:"delete_data" koanf:"delete_data"`
}
