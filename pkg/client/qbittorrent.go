package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/expression"
	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/sliceutils"
)

/* Struct */

type QBittorrent struct {
	Url      *string `validate:"required"`
	User     string
	Password string

	// internal
	log        *logrus.Entry
	clientType string
	client     *qbit.Client

	// internal compiled profile expressions
	exp *expression.Expressions
}

/* Initializer */

func NewQBittorrent(name string, exp *expression.Expressions) (Interface, error) {
	tc := QBittorrent{
		log:        logger.GetLogger(name),
		clientType: "qBittorrent",
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
	tc.client = qbit.NewClient(qbit.Config{
		Host:          *tc.Url,
		Username:      tc.User,
		Password:      tc.Password,
		TLSSkipVerify: true,
		BasicUser:     tc.User,
		BasicPass:     tc.Password,
		Log:           nil,
	})

	return &tc, nil
}

/* Interface  */

func (c *QBittorrent) Type() string {
	return c.clientType
}

func (c *QBittorrent) Connect(context.Context) error {
	// login
	if err := c.client.Login(); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// retrieve api version
	apiVersion, err := c.client.GetWebAPIVersion()
	if err != nil {
		return fmt.Errorf("get api version: %w", err)
	}

	c.log.Debugf("API Version: %v", apiVersion)
	return nil
}

func (c *QBittorrent) GetTorrents(ctx context.Context) (map[string]config.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.GetTorrentsCtx(ctx, qbit.TorrentFilterOptions{IncludeTrackers: true})
	if err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// build torrent list
	torrents := make(map[string]config.Torrent)
	for _, t := range t {
		// get additional torrent details
		td, err := c.client.GetTorrentPropertiesCtx(ctx, t.Hash)
		if err != nil {
			return nil, fmt.Errorf("get torrent properties: %v: %w", t.Hash, err)
		}

		tf, err := c.client.GetFilesInformationCtx(ctx, t.Hash)
		if err != nil {
			return nil, fmt.Errorf("get torrent files: %v: %w", t.Hash, err)
		}

		// parse tracker details
		trackerName := ""
		trackerStatus := ""

		trackers := t.Trackers

		// in qBittorrent v5.1+ includeTrackers populates trackers, for older versions fetch per torrent
		if len(t.Trackers) == 0 {
			ts, err := c.client.GetTorrentTrackersCtx(ctx, t.Hash)
			if err != nil {
				return nil, fmt.Errorf("get torrent trackers: %v: %w", t.Hash, err)
			}
			trackers = ts
		}

		for _, tracker := range trackers {
			// skip disabled trackers
			if strings.Contains(tracker.Url, "[DHT]") || strings.Contains(tracker.Url, "[LSD]") ||
				strings.Contains(tracker.Url, "[PeX]") {
				continue
			}

			// use status of first enabled tracker
			trackerName = parseTrackerDomain(tracker.Url)
			trackerStatus = tracker.Message
			break
		}

		// added time
		addedTimeSecs := int64(time.Since(time.Unix(int64(td.AdditionDate), 0)).Seconds())

		// torrent files
		var files []config.TorrentFile
		for _, f := range *tf {
			files = append(files, config.TorrentFile{
				Index:    int64(f.Index),
				Path:     f.Name,
				Size:     f.Size,
				Priority: int64(f.Priority),
			})
		}

		// create torrent
		var tags []string
		if t.Tags == "" {
			tags = []string{}
		} else {
			tags = strings.Split(t.Tags, ", ")
		}

		torrent := config.Torrent{
			Hash:            t.Hash,
			Name:            t.Name,
			Path:            td.SavePath,
			TotalBytes:      t.Size,
			DownloadedBytes: td.TotalDownloaded,
			State:           string(t.State),
			Files:           files,
			Tags:            tags,
			Downloaded: !sliceutils.StringSliceContains([]string{
				"downloading",
				"stalledDL",
				"queuedDL",
				"pausedDL",
				"checkingDL",
			}, string(t.State), true),
			Seeding: sliceutils.StringSliceContains([]string{
				"uploading",
				"stalledUP",
			}, string(t.State), true),
			Ratio:        float32(td.ShareRatio),
			AddedSeconds: addedTimeSecs,
			AddedHours:   float32(addedTimeSecs) / 60 / 60,
			AddedDays:    float32(addedTimeSecs) / 60 / 60 / 24,
			Label:        t.Category,
			Seeds:        int64(td.SeedsTotal),
			Peers:        int64(td.PeersTotal),
			IsPrivate:    td.IsPrivate,
			IsPublic:     !td.IsPrivate,
			// tracker
			TrackerName:   trackerName,
			TrackerStatus: trackerStatus,
		}

		torrents[t.Hash] = torrent
	}

	return torrents, nil
}

func (c *QBittorrent) RemoveTorrent(ctx context.Context, torrent *config.Torrent, deleteData bool) (bool, error) {
	// pause torrent
	if err := c.client.PauseCtx(ctx, []string{torrent.Hash}); err != nil {
		return false, fmt.Errorf("pause torrent: %v: %w", torrent.Hash, err)
	}

	time.Sleep(1 * time.Second)

	// remove
	if err := c.client.DeleteTorrentsCtx(ctx, []string{torrent.Hash}, deleteData); err != nil {
		return false, fmt.Errorf("delete torrent: %v: %w", torrent.Hash, err)
	}

	return true, nil
}

func (c *QBittorrent) SkipFiles(ctx context.Context, torrent *config.Torrent, indices []int64) error {
	if len(indices) == 0 {
		return nil
	}

	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		ids = append(ids, strconv.FormatInt(idx, 10))
	}

	if err := c.client.SetFilePriorityCtx(ctx, torrent.Hash, strings.Join(ids, "|"), 0); err != nil {
		return fmt.Errorf("set file priority: %v: %w", torrent.Hash, err)
	}

	c.log.Debugf("Set %d file(s) to skip for torrent %s", len(indices), torrent.Hash)
	return nil
}

/* Filters */

func (c *QBittorrent) ShouldIgnore(ctx context.Context, t *config.Torrent) (bool, error) {
	match, err := expression.CheckTorrentSingleMatch(ctx, t, c.exp.Ignores)
	if err != nil {
		return true, fmt.Errorf("check ignore expression: %v: %w", t.Hash, err)
	}

	return match, nil
}

func (c *QBittorrent) ShouldRemove(ctx context.Context, t *config.Torrent) (bool, string, error) {
	match, reason, err := expression.CheckTorrentSingleMatchWithReason(ctx, t, c.exp.Removes)
	if err != nil {
		return false, "", fmt.Errorf("check remove expression: %v: %w", t.Hash, err)
	}

	return match, reason, nil
}
