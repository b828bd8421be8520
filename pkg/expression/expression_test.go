package expression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/tcm/pkg/config"
)

func TestCompile(t *testing.T) {
	exp, err := Compile(&config.ProfileConfiguration{
		Ignore: []string{`IsPrivate == true`},
		Remove: []string{`Label == "trash"`, `Ratio > 4.0 && AddedDays >= 30.0`},
	})
	require.NoError(t, err)
	assert.Len(t, exp.Ignores, 1)
	assert.Len(t, exp.Removes, 2)

	_, err = Compile(&config.ProfileConfiguration{
		Ignore: []string{`NoSuchField == 1`},
	})
	assert.Error(t, err)

	_, err = Compile(&config.ProfileConfiguration{
		Remove: []string{`Label`},
	})
	assert.Error(t, err, "expressions must evaluate to a boolean")
}

func TestCheckTorrentSingleMatch(t *testing.T) {
	exp, err := Compile(&config.ProfileConfiguration{
		Ignore: []string{`IsPrivate == true`, `HasAnyTag("keep")`},
	})
	require.NoError(t, err)

	ctx := context.Background()

	match, err := CheckTorrentSingleMatch(ctx, &config.Torrent{IsPrivate: true}, exp.Ignores)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = CheckTorrentSingleMatch(ctx, &config.Torrent{Tags: []string{"keep"}}, exp.Ignores)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = CheckTorrentSingleMatch(ctx, &config.Torrent{}, exp.Ignores)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCheckTorrentSingleMatchWithReason(t *testing.T) {
	exp, err := Compile(&config.ProfileConfiguration{
		Remove: []string{`Label == "trash"`, `RegexMatch("(?i)sample")`},
	})
	require.NoError(t, err)

	ctx := context.Background()

	match, reason, err := CheckTorrentSingleMatchWithReason(ctx, &config.Torrent{Name: "Some.Release.SAMPLE"}, exp.Removes)
	require.NoError(t, err)
	assert.True(t, match)
	assert.Equal(t, `RegexMatch("(?i)sample")`, reason)

	match, reason, err = CheckTorrentSingleMatchWithReason(ctx, &config.Torrent{Label: "movies"}, exp.Removes)
	require.NoError(t, err)
	assert.False(t, match)
	assert.Empty(t, reason)
}
