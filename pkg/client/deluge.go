package client

import (
	"context"
	"fmt"
	"time"

	delugeclient "github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/expression"
	"github.com/autobrr/tcm/pkg/logger"
)

/* Struct */

type Deluge struct {
	Host     *string `validate:"required"`
	Port     *uint   `validate:"required"`
	Login    *string `validate:"required"`
	Password *string `validate:"required"`
	V2       bool

	// internal
	log        *logrus.Entry
	clientType string
	client     *delugeclient.LabelPlugin
	client1    *delugeclient.Client
	client2    *delugeclient.ClientV2

	// internal compiled profile expressions
	exp *expression.Expressions
}

/* Initializer */

func NewDeluge(name string, exp *expression.Expressions) (Interface, error) {
	tc := Deluge{
		log:        logger.GetLogger(name),
		clientType: "Deluge",
		exp:        exp,
	}

	// load config
	if err := config.K.Unmarshal(fmt.Sprintf("clients%s%s", config.Delimiter, name), &tc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// validate config
	if errs := config.ValidateStruct(tc); errs != nil {
		return nil, fmt.Errorf("validate config: %v", errs)
	}

	// init client
	settings := delugeclient.Settings{
		Hostname: *tc.Host,
		Port:     *tc.Port,
		Login:    *tc.Login,
		Password: *tc.Password,
	}

	if tc.V2 {
		tc.client2 = delugeclient.NewV2(settings)
	} else {
		tc.client1 = delugeclient.NewV1(settings)
	}

	return &tc, nil
}

/* Interface  */

func (c *Deluge) Type() string {
	return c.clientType
}

func (c *Deluge) Connect(ctx context.Context) error {
	var err error

	// connect to deluge daemon
	c.log.Tracef("Connecting to %s:%d", *c.Host, *c.Port)

	if c.V2 {
		err = c.client2.Connect(ctx)
	} else {
		err = c.client1.Connect(ctx)
	}

	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// retrieve & set common label client
	var lc *delugeclient.LabelPlugin

	if c.V2 {
		lc, err = c.client2.LabelPlugin(ctx)
	} else {
		lc, err = c.client1.LabelPlugin(ctx)
	}

	if err != nil {
		return fmt.Errorf("get label plugin: %w", err)
	}

	// retrieve daemon version
	daemonVersion, err := lc.DaemonVersion(ctx)
	if err != nil {
		return fmt.Errorf("get daemon version: %w", err)
	}
	c.log.Debugf("Daemon Version: %v", daemonVersion)

	c.client = lc
	return nil
}

func (c *Deluge) GetTorrents(ctx context.Context) (map[string]config.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.TorrentsStatus(ctx, delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// retrieve torrent labels
	labels, err := c.client.GetTorrentsLabels(delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("get torrent labels: %w", err)
	}
	c.log.Tracef("Retrieved labels for %d torrents", len(labels))

	// build torrent list
	torrents := make(map[string]config.Torrent)
	for h, t := range t {
		// build files slice, pairing each entry with its priority
		var files []config.TorrentFile
		for i, f := range t.Files {
			var priority int64 = 1
			if i < len(t.FilePriorities) {
				priority = t.FilePriorities[i]
			}

			files = append(files, config.TorrentFile{
				Index:    int64(i),
				Path:     f.Path,
				Size:     f.Size,
				Priority: priority,
			})
		}

		// get torrent label
		label := ""
		if l, ok := labels[h]; ok {
			label = l
		}

		// create torrent object
		torrent := config.Torrent{
			Hash:            h,
			Name:            t.Name,
			Path:            t.DownloadLocation,
			TotalBytes:      t.TotalSize,
			DownloadedBytes: t.TotalDone,
			State:           t.State,
			Files:           files,
			Downloaded:      t.TotalDone == t.TotalSize,
			Seeding:         t.IsSeed,
			Ratio:           t.Ratio,
			AddedSeconds:    t.ActiveTime,
			AddedHours:      float32(t.ActiveTime) / 60 / 60,
			AddedDays:       float32(t.ActiveTime) / 60 / 60 / 24,
			Label:           label,
			IsPrivate:       t.Private,
			IsPublic:        !t.Private,
			Seeds:           t.TotalSeeds,
			Peers:           t.TotalPeers,
			// tracker
			TrackerName:   t.TrackerHost,
			TrackerStatus: t.TrackerStatus,
		}

		torrents[h] = torrent
	}

	return torrents, nil
}

func (c *Deluge) RemoveTorrent(ctx context.Context, torrent *config.Torrent, deleteData bool) (bool, error) {
	// pause torrent
	if err := c.client.PauseTorrents(ctx, torrent.Hash); err != nil {
		return false, fmt.Errorf("pause torrent: %v: %w", torrent.Hash, err)
	}

	time.Sleep(1 * time.Second)

	// resume torrent
	if err := c.client.ResumeTorrents(ctx, torrent.Hash); err != nil {
		return false, fmt.Errorf("resume torrent: %v: %w", torrent.Hash, err)
	}

	// sleep before re-announcing torrent
	time.Sleep(2 * time.Second)

	// re-announce torrent
	if err := c.client.ForceReannounce(ctx, []string{torrent.Hash}); err != nil {
		return false, fmt.Errorf("re-announce torrent: %v: %w", torrent.Hash, err)
	}

	// sleep before removing torrent
	time.Sleep(2 * time.Second)

	// remove
	if ok, err := c.client.RemoveTorrent(ctx, torrent.Hash, deleteData); err != nil {
		return false, fmt.Errorf("remove torrent: %v: %w", torrent.Hash, err)
	} else if !ok {
		return false, fmt.Errorf("remove torrent: %v", torrent.Hash)
	}

	return true, nil
}

func (c *Deluge) SkipFiles(ctx context.Context, torrent *config.Torrent, indices []int64) error {
	if len(indices) == 0 {
		return nil
	}

	// deluge takes the full priority vector, preserve unmatched entries
	priorities := buildPriorityVector(torrent.Files, indices)

	rpc := &delugeRPC{
		host:     *c.Host,
		port:     *c.Port,
		login:    *c.Login,
		password: *c.Password,
		v2:       c.V2,
	}

	if err := rpc.setFilePriorities(ctx, torrent.Hash, priorities); err != nil {
		return fmt.Errorf("set file priorities for %s: %w", torrent.Hash, err)
	}

	c.log.Debugf("Set %d file(s) to skip for torrent %s", len(indices), torrent.Hash)
	return nil
}

// buildPriorityVector maps the torrent's current file priorities into the
// full vector the daemon expects, with the given indices zeroed.
func buildPriorityVector(files []config.TorrentFile, indices []int64) []int64 {
	priorities := make([]int64, len(files))
	for i, f := range files {
		priorities[i] = f.Priority
	}
	for _, idx := range indices {
		if idx >= 0 && idx < int64(len(priorities)) {
			priorities[idx] = 0
		}
	}

	return priorities
}

/* Filters */

func (c *Deluge) ShouldIgnore(ctx context.Context, t *config.Torrent) (bool, error) {
	match, err := expression.CheckTorrentSingleMatch(ctx, t, c.exp.Ignores)
	if err != nil {
		return true, fmt.Errorf("check ignore expression: %v: %w", t.Hash, err)
	}

	return match, nil
}

func (c *Deluge) ShouldRemove(ctx context.Context, t *config.Torrent) (bool, string, error) {
	match, reason, err := expression.CheckTorrentSingleMatchWithReason(ctx, t, c.exp.Removes)
	if err != nil {
		return false, "", fmt.Errorf("check remove expression: %v: %w", t.Hash, err)
	}

	return match, reason, nil
}
