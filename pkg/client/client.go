package client

import (
	"fmt"
	"strings"

	"github.com/autobrr/tcm/pkg/expression"
)

func NewClient(clientType string, clientName string, exp *expression.Expressions) (Interface, error) {
	switch strings.ToLower(clientType) {
	case "deluge":
		return NewDeluge(clientName, exp)
	case "qbittorrent":
		return NewQBittorrent(clientName, exp)
	default:
		return nil, fmt.Errorf("unsupported client type: %q", clientType)
	}
}
