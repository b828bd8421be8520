package client

import (
	"context"

	"github.com/autobrr/tcm/pkg/config"
)

type Interface interface {
	Type() string
	Connect(ctx context.Context) error
	GetTorrents(ctx context.Context) (map[string]config.Torrent, error)
	RemoveTorrent(ctx context.Context, torrent *config.Torrent, deleteData bool) (bool, error)
	SkipFiles(ctx context.Context, torrent *config.Torrent, indices []int64) error

	ShouldIgnore(ctx context.Context, t *config.Torrent) (bool, error)
	ShouldRemove(ctx context.Context, t *config.Torrent) (bool, string, error)
}
