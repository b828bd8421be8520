package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lucperkins/rek"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/tcm/pkg/httputils"
	"github.com/autobrr/tcm/pkg/logger"
)

// Pinger notifies an external healthcheck endpoint (healthchecks.io style)
// after each successful pass.
type Pinger struct {
	url  string
	http *http.Client
	log  *logrus.Entry
}

func New(url string) *Pinger {
	return &Pinger{
		url:  url,
		http: httputils.NewRetryableHttpClient(10*time.Second, ratelimit.New(1, ratelimit.WithoutSlack)),
		log:  logger.GetLogger("healthcheck"),
	}
}

func (p *Pinger) Enabled() bool {
	return p != nil && p.url != ""
}

func (p *Pinger) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	resp, err := rek.Get(p.url,
		rek.Client(p.http),
		rek.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("ping healthcheck: %w", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ping healthcheck: %s", resp.Status())
	}

	p.log.Tracef("Pinged healthcheck endpoint: %s", p.url)
	return nil
}
