package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/scylladb/go-set/strset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/notification"
)

type fakeClient struct {
	ignored map[string]bool
	removes map[string]string

	removedTorrents map[string]bool
	skippedFiles    map[string][]int64

	connectCalls int
	removeErr    error
	skipErr      error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		ignored:         map[string]bool{},
		removes:         map[string]string{},
		removedTorrents: map[string]bool{},
		skippedFiles:    map[string][]int64{},
	}
}

func (f *fakeClient) Type() string { return "fake" }

func (f *fakeClient) Connect(_ context.Context) error {
	f.connectCalls++
	return nil
}

func (f *fakeClient) GetTorrents(_ context.Context) (map[string]config.Torrent, error) {
	return nil, nil
}

func (f *fakeClient) RemoveTorrent(_ context.Context, t *config.Torrent, deleteData bool) (bool, error) {
	if f.removeErr != nil {
		return false, f.removeErr
	}
	f.removedTorrents[t.Hash] = deleteData
	return true, nil
}

func (f *fakeClient) SkipFiles(_ context.Context, t *config.Torrent, indices []int64) error {
	if f.skipErr != nil {
		return f.skipErr
	}
	f.skippedFiles[t.Hash] = append(f.skippedFiles[t.Hash], indices...)
	return nil
}

func (f *fakeClient) ShouldIgnore(_ context.Context, t *config.Torrent) (bool, error) {
	return f.ignored[t.Hash], nil
}

func (f *fakeClient) ShouldRemove(_ context.Context, t *config.Torrent) (bool, string, error) {
	reason, ok := f.removes[t.Hash]
	return ok, reason, nil
}

type fakeSender struct {
	fields []notification.Field
	sent   bool
}

func (f *fakeSender) CanSend() bool { return false }

func (f *fakeSender) Send(_ string, _ string, _ string, _ time.Duration, _ []notification.Field, _ bool) error {
	f.sent = true
	return nil
}

func (f *fakeSender) BuildField(action notification.Action, options notification.BuildOptions) notification.Field {
	field := notification.Field{Name: options.Torrent.Name, Value: "skip"}
	if action == notification.ActionRemove {
		field.Value = "remove"
	}
	f.fields = append(f.fields, field)
	return field
}

func (f *fakeSender) Name() string { return "fake" }

func testProfile(t *testing.T) *clientProfile {
	t.Helper()

	cp, err := compileProfile(&config.ProfileConfiguration{
		Forbidden: []string{".exe", ".bat", "regex:(?i)password\\.txt$"},
		Unwanted:  []string{".nfo", ".txt", ".jpg"},
	})
	require.NoError(t, err)

	return cp
}

func testTorrents() map[string]config.Torrent {
	return map[string]config.Torrent{
		"hash-infected": {
			Hash:            "hash-infected",
			Name:            "Some.Release",
			DownloadedBytes: 1024,
			Files: []config.TorrentFile{
				{Index: 0, Path: "Some.Release/movie.mkv", Priority: 1},
				{Index: 1, Path: "Some.Release/setup.exe", Priority: 1},
			},
		},
		"hash-noisy": {
			Hash: "hash-noisy",
			Name: "Other.Release",
			Files: []config.TorrentFile{
				{Index: 0, Path: "Other.Release/movie.mkv", Priority: 1},
				{Index: 1, Path: "Other.Release/info.nfo", Priority: 1},
				{Index: 2, Path: "Other.Release/cover.jpg", Priority: 4},
				{Index: 3, Path: "Other.Release/already-skipped.txt", Priority: 0},
			},
		},
		"hash-clean": {
			Hash: "hash-clean",
			Name: "Clean.Release",
			Files: []config.TorrentFile{
				{Index: 0, Path: "Clean.Release/album.flac", Priority: 1},
			},
		},
	}
}

func TestScrubRemovesForbiddenTorrent(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	noti := &fakeSender{}
	torrents := testTorrents()

	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), noti, nil)

	assert.Equal(t, 1, s.Removed)
	assert.Equal(t, 0, s.Errors)
	assert.Equal(t, int64(1024), s.ReclaimedBytes)

	deleteData, removed := c.removedTorrents["hash-infected"]
	assert.True(t, removed, "torrent with forbidden file should be removed")
	assert.True(t, deleteData, "data should be deleted by default")
	assert.NotContains(t, torrents, "hash-infected")

	// removal wins, no files flagged on the removed torrent
	assert.NotContains(t, c.skippedFiles, "hash-infected")
}

func TestScrubForbiddenIgnoresPriority(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	torrents := map[string]config.Torrent{
		"hash-dormant": {
			Hash: "hash-dormant",
			Name: "Dormant.Release",
			Files: []config.TorrentFile{
				{Index: 0, Path: "Dormant.Release/keygen.exe", Priority: 0},
			},
		},
	}

	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, nil)

	assert.Equal(t, 1, s.Removed, "forbidden files force removal even when already skipped")
	assert.Contains(t, c.removedTorrents, "hash-dormant")
}

func TestScrubFlagsUnwantedFiles(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	noti := &fakeSender{}
	torrents := testTorrents()

	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), noti, nil)

	// info.nfo and cover.jpg, already-skipped.txt is priority 0 already
	assert.Equal(t, 2, s.SkippedFiles)
	assert.ElementsMatch(t, []int64{1, 2}, c.skippedFiles["hash-noisy"])

	// clean torrent is left alone
	assert.NotContains(t, c.removedTorrents, "hash-clean")
	assert.NotContains(t, c.skippedFiles, "hash-clean")
}

func TestScrubIdempotent(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	torrents := testTorrents()

	scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, nil)

	// replay the client-side effects of the first pass
	noisy := torrents["hash-noisy"]
	for i := range noisy.Files {
		for _, idx := range c.skippedFiles["hash-noisy"] {
			if noisy.Files[i].Index == idx {
				noisy.Files[i].Priority = 0
			}
		}
	}
	torrents["hash-noisy"] = noisy

	c2 := newFakeClient()
	s := scrubEligibleTorrents(context.Background(), log, c2, torrents, testProfile(t), &fakeSender{}, nil)

	assert.Equal(t, 0, s.Removed)
	assert.Equal(t, 0, s.SkippedFiles)
	assert.Empty(t, c2.removedTorrents)
	assert.Empty(t, c2.skippedFiles)
}

func TestScrubSeenCache(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	torrents := testTorrents()

	seen := strset.New()
	scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, seen)

	// evaluated torrents are cached, removed ones are gone from the map
	assert.True(t, seen.Has("hash-noisy"))
	assert.True(t, seen.Has("hash-clean"))
	assert.False(t, seen.Has("hash-infected"))

	c2 := newFakeClient()
	s := scrubEligibleTorrents(context.Background(), log, c2, torrents, testProfile(t), &fakeSender{}, seen)

	assert.Equal(t, 0, s.Removed+s.SkippedFiles+s.Errors)
	assert.Empty(t, c2.skippedFiles)
}

func TestScrubSkipsTorrentWithoutFiles(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	torrents := map[string]config.Torrent{
		"hash-pending": {Hash: "hash-pending", Name: "Pending.Release"},
	}

	seen := strset.New()
	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, seen)

	assert.Equal(t, 0, s.Removed+s.SkippedFiles+s.Errors)
	// re-evaluated once metadata arrives
	assert.False(t, seen.Has("hash-pending"))
}

func TestScrubDryRun(t *testing.T) {
	flagDryRun = true
	defer func() { flagDryRun = false }()

	log := logger.GetLogger("test")
	c := newFakeClient()
	torrents := testTorrents()

	seen := strset.New()
	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, seen)

	// actions are reported but nothing touches the client
	assert.Equal(t, 1, s.Removed)
	assert.Equal(t, 2, s.SkippedFiles)
	assert.Empty(t, c.removedTorrents)
	assert.Empty(t, c.skippedFiles)

	// dry-run passes never mark torrents as evaluated
	assert.False(t, seen.Has("hash-noisy"))
}

func TestScrubRemoveExpression(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	c.removes["hash-clean"] = `Label == "trash"`
	torrents := testTorrents()

	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, nil)

	assert.Equal(t, 2, s.Removed)
	assert.Contains(t, c.removedTorrents, "hash-clean")
}

func TestScrubIgnoredTorrent(t *testing.T) {
	log := logger.GetLogger("test")
	c := newFakeClient()
	c.ignored["hash-infected"] = true
	torrents := testTorrents()

	s := scrubEligibleTorrents(context.Background(), log, c, torrents, testProfile(t), &fakeSender{}, nil)

	assert.Equal(t, 1, s.Ignored)
	assert.Equal(t, 0, s.Removed)
	assert.NotContains(t, c.removedTorrents, "hash-infected")
}

func TestCompileProfileDeleteData(t *testing.T) {
	keep := false

	cp, err := compileProfile(&config.ProfileConfiguration{DeleteData: &keep})
	require.NoError(t, err)
	assert.False(t, cp.deleteData)

	cp, err = compileProfile(&config.ProfileConfiguration{})
	require.NoError(t, err)
	assert.True(t, cp.deleteData, "data removal defaults to on")
}

func TestCompileProfileBadRegex(t *testing.T) {
	_, err := compileProfile(&config.ProfileConfiguration{
		Forbidden: []string{"regex:["},
	})
	assert.Error(t, err)
}
