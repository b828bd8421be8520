package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse([]string{".exe", "  .nfo  ", "", "regex:(?i)sample"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = Parse([]string{"regex:("})
	assert.Error(t, err)
}

func TestSetMatch(t *testing.T) {
	s, err := Parse([]string{".exe", "rarbg.txt", "regex:(?i)password\\.txt$"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantRule string
		wantOk   bool
	}{
		{name: "suffix match", path: "Some.Release/setup.exe", wantRule: ".exe", wantOk: true},
		{name: "suffix match is case-insensitive", path: "Some.Release/SETUP.EXE", wantRule: ".exe", wantOk: true},
		{name: "filename suffix", path: "Some.Release/RARBG.txt", wantRule: "rarbg.txt", wantOk: true},
		{name: "regex match", path: "Some.Release/Password.txt", wantRule: "regex:(?i)password\\.txt$", wantOk: true},
		{name: "no match", path: "Some.Release/movie.mkv", wantOk: false},
		{name: "suffix only matches end of path", path: "Some.Release/exe/movie.mkv", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := s.Match(tt.path)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestSetMatchFirstRuleWins(t *testing.T) {
	s, err := Parse([]string{".txt", "rarbg.txt"})
	require.NoError(t, err)

	rule, ok := s.Match("Some.Release/rarbg.txt")
	require.True(t, ok)
	assert.Equal(t, ".txt", rule)
}

func TestEmptySet(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, ok := s.Match("anything")
	assert.False(t, ok)
}
