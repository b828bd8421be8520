package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tcm/pkg/client"
	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/expression"
	"github.com/autobrr/tcm/pkg/notification"
	"github.com/autobrr/tcm/pkg/rules"
)

/* Client / profile loading */

func validateClientEnabled(clientConfig map[string]interface{}) error {
	v, ok := clientConfig["enabled"]
	if !ok {
		return errors.New("no enabled setting found")
	}

	if enabled, ok := v.(bool); !ok || !enabled {
		return errors.New("client is not enabled")
	}

	return nil
}

func getClientConfigString(key string, clientConfig map[string]interface{}) (*string, error) {
	v, ok := clientConfig[key]
	if !ok {
		return nil, fmt.Errorf("no %q setting found", key)
	}

	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%q setting is not a string", key)
	}

	return &s, nil
}

func getProfile(profileName string) (*config.ProfileConfiguration, error) {
	profile, ok := config.Config.Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("no profile configuration found for: %q", profileName)
	}

	return &profile, nil
}

// clientProfile is a profile with its match-lists compiled.
type clientProfile struct {
	forbidden  *rules.Set
	unwanted   *rules.Set
	deleteData bool
}

func compileProfile(profile *config.ProfileConfiguration) (*clientProfile, error) {
	forbidden, err := rules.Parse(profile.Forbidden)
	if err != nil {
		return nil, fmt.Errorf("parse forbidden rules: %w", err)
	}

	unwanted, err := rules.Parse(profile.Unwanted)
	if err != nil {
		return nil, fmt.Errorf("parse unwanted rules: %w", err)
	}

	deleteData := true
	if profile.DeleteData != nil {
		deleteData = *profile.DeleteData
	}

	return &clientProfile{
		forbidden:  forbidden,
		unwanted:   unwanted,
		deleteData: deleteData,
	}, nil
}

// loadClient builds the torrent client and its compiled profile from config.
func loadClient(clientName string) (client.Interface, *clientProfile, error) {
	clientConfig, ok := config.Config.Clients[clientName]
	if !ok {
		return nil, nil, fmt.Errorf("no client configuration found for: %q", clientName)
	}

	// validate client is enabled
	if err := validateClientEnabled(clientConfig); err != nil {
		return nil, nil, fmt.Errorf("validate client is enabled: %w", err)
	}

	// retrieve client type
	clientType, err := getClientConfigString("type", clientConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("determine client type: %w", err)
	}

	// retrieve client profile
	profileName, err := getClientConfigString("profile", clientConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("determine client profile: %w", err)
	}

	profile, err := getProfile(*profileName)
	if err != nil {
		return nil, nil, err
	}

	if flagProfileName != "" {
		if profile, err = getProfile(flagProfileName); err != nil {
			return nil, nil, err
		}
	}

	// compile profile match-lists
	cp, err := compileProfile(profile)
	if err != nil {
		return nil, nil, fmt.Errorf("compile profile: %w", err)
	}

	// compile profile expressions
	exp, err := expression.Compile(profile)
	if err != nil {
		return nil, nil, fmt.Errorf("compile profile expressions: %w", err)
	}

	// load client object
	c, err := client.NewClient(*clientType, clientName, exp)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize client: %w", err)
	}

	return c, cp, nil
}

/* Evaluation pass */

type scrubSummary struct {
	Ignored      int
	Removed      int
	SkippedFiles int
	Errors       int

	ReclaimedBytes int64
	Fields         []notification.Field
}

// scrubEligibleTorrents runs one evaluation pass over torrents. A torrent
// with a forbidden file (or matching a remove expression) is removed as a
// whole; otherwise its unwanted files still wanted by the client are flagged
// to be skipped. Removal wins over skip-flagging, one action per torrent per
// pass. Torrent hashes evaluated with nothing left to do are added to seen
// (when given) and not re-evaluated on later passes.
func scrubEligibleTorrents(ctx context.Context, log *logrus.Entry, c client.Interface,
	torrents map[string]config.Torrent, cp *clientProfile, noti notification.Sender, seen *strset.Set) *scrubSummary {
	s := new(scrubSummary)

	for h, t := range torrents {
		if seen != nil && seen.Has(h) {
			continue
		}

		// should we ignore this torrent?
		if ignore, err := c.ShouldIgnore(ctx, &t); err != nil {
			log.WithError(err).Errorf("Failed determining whether to ignore: %+v", t)
			s.Errors++
			continue
		} else if ignore {
			log.Tracef("Ignoring torrent %s: %s", h, t.Name)
			s.Ignored++
			continue
		}

		// metadata may not have arrived yet
		if len(t.Files) == 0 {
			log.Tracef("No files known for torrent %s: %s", h, t.Name)
			continue
		}

		// a forbidden file forces removal of the whole torrent
		removeReason := ""
		for _, f := range t.Files {
			if rule, ok := cp.forbidden.Match(f.Path); ok {
				removeReason = fmt.Sprintf("file %q matched forbidden rule %q", f.Path, rule)
				break
			}
		}

		// remove expressions are an additional removal trigger
		if removeReason == "" {
			if remove, reason, err := c.ShouldRemove(ctx, &t); err != nil {
				log.WithError(err).Errorf("Failed determining whether to remove: %+v", t)
				s.Errors++
				continue
			} else if remove {
				removeReason = fmt.Sprintf("matched remove expression %q", reason)
			}
		}

		if removeReason != "" {
			log.Info("-----")
			log.Infof("Removing: %q - %s", t.Name, humanize.IBytes(uint64(t.DownloadedBytes)))
			log.Infof("Reason: %s", removeReason)

			if !flagDryRun {
				if removed, err := c.RemoveTorrent(ctx, &t, cp.deleteData); err != nil {
					log.WithError(err).Errorf("Failed removing torrent: %+v", t)
					s.Errors++
					continue
				} else if !removed {
					log.Error("Failed removing torrent...")
					s.Errors++
					continue
				}

				if cp.deleteData {
					log.Info("Removed with data")
				} else {
					log.Info("Removed (kept data on disk)")
				}
			} else {
				log.Warn("Dry-run enabled, skipping remove...")
			}

			s.Removed++
			s.ReclaimedBytes += t.DownloadedBytes
			s.Fields = append(s.Fields, noti.BuildField(notification.ActionRemove, notification.BuildOptions{
				Torrent:       t,
				RemovalReason: removeReason,
			}))

			delete(torrents, h)
			continue
		}

		// flag unwanted files still wanted by the client to be skipped
		var (
			indices      []int64
			skippedFiles []string
		)

		for _, f := range t.Files {
			if !f.Wanted() {
				continue
			}

			if rule, ok := cp.unwanted.Match(f.Path); ok {
				log.Debugf("Unwanted file %q matched rule %q", f.Path, rule)
				indices = append(indices, f.Index)
				skippedFiles = append(skippedFiles, f.Path)
			}
		}

		if len(indices) > 0 {
			log.Info("-----")
			log.Infof("Skipping %d file(s) for: %q", len(indices), t.Name)
			for _, f := range skippedFiles {
				log.Infof("-> %s", f)
			}

			if !flagDryRun {
				if err := c.SkipFiles(ctx, &t, indices); err != nil {
					log.WithError(err).Errorf("Failed skipping files for torrent: %+v", t)
					s.Errors++
					continue
				}
			} else {
				log.Warn("Dry-run enabled, files not flagged...")
			}

			s.SkippedFiles += len(indices)
			s.Fields = append(s.Fields, noti.BuildField(notification.ActionSkip, notification.BuildOptions{
				Torrent:      t,
				SkippedFiles: skippedFiles,
			}))
		}

		if seen != nil && !flagDryRun {
			seen.Add(h)
		}
	}

	return s
}

func logSummary(log *logrus.Entry, s *scrubSummary) {
	log.Info("-----")
	log.Infof("Ignored torrents: %d", s.Ignored)
	log.WithField("reclaimed_space", humanize.IBytes(uint64(s.ReclaimedBytes))).
		Infof("Removed torrents: %d, flagged files: %d, %d failures", s.Removed, s.SkippedFiles, s.Errors)
}

func sendSummary(log *logrus.Entry, noti notification.Sender, clientName string, start time.Time, s *scrubSummary) {
	if !noti.CanSend() {
		log.Debug("Notifications disabled, skipping...")
		return
	}

	sendErr := noti.Send(
		"Torrent Content Check",
		fmt.Sprintf("Removed **%d** torrent(s), flagged **%d** file(s) to skip", s.Removed, s.SkippedFiles),
		clientName,
		time.Since(start),
		s.Fields,
		flagDryRun,
	)
	if sendErr != nil {
		log.WithError(sendErr).Error("Failed sending notification")
	}
}
