package notification

import (
	"time"

	"github.com/autobrr/tcm/pkg/config"
)

type Action int

const (
	ActionRemove Action = iota + 1
	ActionSkip
)

type Sender interface {
	CanSend() bool
	Send(title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) error
	BuildField(action Action, options BuildOptions) Field
	Name() string
}

type Field struct {
	Name  string
	Value string
}

type BuildOptions struct {
	Torrent config.Torrent

	RemovalReason string
	SkippedFiles  []string
}
