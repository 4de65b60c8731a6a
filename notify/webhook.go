package notify

import (
	"context"
	"fmt"
	"time"

	iface "FrameClassifier/interface"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Webhook posts reports to a remote display. Show never blocks: the
// poster goroutine only ever sends the newest pending report.
type Webhook struct {
	url     string
	client  *resty.Client
	log     *zap.Logger
	pending chan iface.Report
}

func NewWebhook(url string, timeout time.Duration, log *zap.Logger) *Webhook {
	if log == nil {
		log = zap.NewNop()
	}
	return &Webhook{
		url:     url,
		client:  resty.New().SetTimeout(timeout),
		log:     log,
		pending: make(chan iface.Report, 1),
	}
}

func (w *Webhook) Show(r iface.Report) {
	for {
		select {
		case w.pending <- r:
			return
		default:
		}
		select {
		case <-w.pending:
		default:
		}
	}
}

// Run posts pending reports until ctx is cancelled.
func (w *Webhook) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-w.pending:
			if err := w.post(ctx, r); err != nil && ctx.Err() == nil {
				w.log.Warn("webhook delivery failed", zap.String("url", w.url), zap.String("frame", r.FrameID), zap.Error(err))
			}
		}
	}
}

func (w *Webhook) post(ctx context.Context, r iface.Report) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(r).
		Post(w.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}
	return nil
}
