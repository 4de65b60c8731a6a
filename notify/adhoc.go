// Package notify talks to remote HTTP services: a registry that tracks live
// classifier instances and webhooks that display predictions.
package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TimeOutSeconds = 5

type RegisterRequest struct {
	Id        string   `json:"id"`
	IP        string   `json:"ip"`
	HTTPPort  int      `json:"httpPort"`
	RPCPort   int      `json:"rpcPort"`
	Backend   string   `json:"backend"`
	Labels    []string `json:"labels"`
	TimeStamp int64    `json:"timestamp"`
}

type RegisterResponse struct {
	Id      string `json:"id"`
	Success bool   `json:"success"`
}

type RegServerConfig struct {
	Port int
	Addr string
}

func (reg *RegServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%d/api/register", reg.Addr, reg.Port)
}

// GetOutboundIP returns the local address used to reach the internet.
// Nothing is sent; dialing UDP only resolves the route.
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

type Registrar struct {
	client   *resty.Client
	cfg      RegServerConfig
	log      *zap.Logger
	request  RegisterRequest
	Interval time.Duration
}

func NewRegistrar(cfg RegServerConfig, req RegisterRequest, log *zap.Logger) *Registrar {
	if req.Id == "" {
		req.Id = uuid.NewString()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{
		client:   resty.New().SetTimeout(TimeOutSeconds * time.Second),
		cfg:      cfg,
		log:      log,
		request:  req,
		Interval: TimeOutSeconds * time.Second,
	}
}

func (r *Registrar) ID() string {
	return r.request.Id
}

func (r *Registrar) register(ctx context.Context) error {
	var respBody RegisterResponse
	req := r.request
	req.TimeStamp = time.Now().Unix()
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&respBody).
		Post(r.cfg.URL())
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned error: %s, body: %s", resp.Status(), resp.String())
	}
	if !respBody.Success {
		return fmt.Errorf("registration of %s rejected", req.Id)
	}
	return nil
}

// SendAliveMessage registers now and then on every tick until ctx ends.
// Failures are logged; the next tick tries again.
func (r *Registrar) SendAliveMessage(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		if err := r.register(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("registration failed", zap.String("url", r.cfg.URL()), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			r.log.Info("SendAliveMessage context cancelled, exiting goroutine.")
			return
		case <-ticker.C:
		}
	}
}
