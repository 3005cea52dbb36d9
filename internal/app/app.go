package app

import (
	"context"
	"crypto/md5" //nolint:gosec // matches the checksum the storage service reports
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samvad-hq/saucerest/internal/config"
	"github.com/samvad-hq/saucerest/internal/domain"
	"github.com/samvad-hq/saucerest/internal/logger"
	"github.com/samvad-hq/saucerest/internal/storage"
	"github.com/samvad-hq/saucerest/pkg/httpclient"
	"github.com/samvad-hq/saucerest/pkg/metrics"
	"github.com/samvad-hq/saucerest/pkg/publishers"
	"github.com/samvad-hq/saucerest/pkg/retry"
	"github.com/samvad-hq/saucerest/pkg/saucerest"
)

// App wires the API client with retries, the upload ledger, request metrics
// and job-event publishers for the command line.
type App struct {
	cfg      *config.Config
	client   *saucerest.Client
	ledger   storage.Ledger
	policy   retry.Policy
	registry *prometheus.Registry
	fanout   *publishers.Fanout
	log      logger.Logger
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	transport httpclient.Transport
	ledger    storage.Ledger
	fanout    *publishers.Fanout
}

// WithTransport replaces the network transport of the API client.
func WithTransport(t httpclient.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLedger replaces the configured upload ledger.
func WithLedger(l storage.Ledger) Option {
	return func(o *options) { o.ledger = l }
}

// WithFanout replaces the publishers loaded from publishers_file.
func WithFanout(f *publishers.Fanout) Option {
	return func(o *options) { o.fanout = f }
}

// New builds an App from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	reqMetrics, err := metrics.NewRequestMetrics(registry)
	if err != nil {
		return nil, err
	}

	clientOpts := []saucerest.Option{
		saucerest.WithLogger(log),
		saucerest.WithObserver(reqMetrics),
	}
	if o.transport != nil {
		clientOpts = append(clientOpts, saucerest.WithTransport(o.transport))
	}
	client, err := saucerest.New(
		saucerest.Credentials{Username: cfg.Username, AccessKey: cfg.AccessKey},
		saucerest.ClientConfig{
			BaseURL:        cfg.BaseURL,
			UserAgent:      cfg.UserAgent,
			ConnectTimeout: cfg.ConnectTimeout,
			ReadTimeout:    cfg.ReadTimeout,
		},
		clientOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	ledger := o.ledger
	if ledger == nil {
		ledger, err = storage.NewLedger(cfg.LedgerType, cfg.LedgerPath, storage.Options{
			RecordTTL:       cfg.LedgerTTL,
			CleanupInterval: cfg.LedgerCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
	}
	log.DebugObj("ledger initialized", "ledger_config", map[string]any{
		"type":                     cfg.LedgerType,
		"path":                     cfg.LedgerPath,
		"ttl_seconds":              int(cfg.LedgerTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.LedgerCleanupInterval.Seconds()),
	})

	fanout := o.fanout
	if fanout == nil {
		fanout, err = loadFanout(ctx, cfg.PublishersFile, log)
		if err != nil {
			ledger.Close()
			return nil, err
		}
	}

	return &App{
		cfg:      cfg,
		client:   client,
		ledger:   ledger,
		policy:   retry.NewPolicy(cfg.RetryMax, cfg.RetryMinInterval, cfg.RetryMaxInterval),
		registry: registry,
		fanout:   fanout,
		log:      log,
	}, nil
}

// loadFanout builds publishers from path. An empty path disables notifications.
func loadFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil, log), nil
	}

	catalog, err := publishers.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := catalog.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":      pubCfg.ID,
			"type":    pubCfg.Type,
			"actions": pubCfg.Actions,
		})
	}
	log.DebugObj("job event publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients, log), nil
}

// Client exposes the underlying API client.
func (a *App) Client() *saucerest.Client { return a.client }

// Gatherer exposes the request metrics.
func (a *App) Gatherer() prometheus.Gatherer { return a.registry }

// Close releases the ledger and publishers and writes the metrics textfile.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := metrics.WriteTextfile(a.cfg.MetricsTextfile, a.registry); err != nil {
		errs = append(errs, err)
	}
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Call runs op under the retry policy.
func (a *App) Call(ctx context.Context, op func(context.Context, *saucerest.Client) (json.RawMessage, error)) (json.RawMessage, error) {
	return retry.DoValue(ctx, a.policy, func(ctx context.Context) (json.RawMessage, error) {
		return op(ctx, a.client)
	})
}

// SetJobStatus marks the job passed or failed and announces it.
func (a *App) SetJobStatus(ctx context.Context, jobID string, passed bool) (json.RawMessage, error) {
	action := domain.JobActionFail
	if passed {
		action = domain.JobActionPass
	}
	out, err := a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
		if passed {
			return c.JobPassed(ctx, jobID)
		}
		return c.JobFailed(ctx, jobID)
	})
	if err != nil {
		return nil, err
	}
	a.announce(ctx, publishers.NewJobEvent(a.client.Username(), jobID, action).WithPassed(passed))
	return out, nil
}

// UpdateJob changes job attributes and announces it.
func (a *App) UpdateJob(ctx context.Context, jobID string, updates map[string]any) (json.RawMessage, error) {
	out, err := a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
		return c.UpdateJobInfo(ctx, jobID, updates)
	})
	if err != nil {
		return nil, err
	}
	evt := publishers.NewJobEvent(a.client.Username(), jobID, domain.JobActionUpdate)
	evt.Updates = updates
	if p, ok := updates["passed"].(bool); ok {
		evt = evt.WithPassed(p)
	}
	a.announce(ctx, evt)
	return out, nil
}

// StopJob stops the job and announces it.
func (a *App) StopJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	out, err := a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
		return c.StopJob(ctx, jobID)
	})
	if err != nil {
		return nil, err
	}
	a.announce(ctx, publishers.NewJobEvent(a.client.Username(), jobID, domain.JobActionStop))
	return out, nil
}

// DeleteJob deletes the job and announces it.
func (a *App) DeleteJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	out, err := a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
		return c.DeleteJob(ctx, jobID)
	})
	if err != nil {
		return nil, err
	}
	a.announce(ctx, publishers.NewJobEvent(a.client.Username(), jobID, domain.JobActionDelete))
	return out, nil
}

// announce publishes evt; failures are logged and never fail the caller.
func (a *App) announce(ctx context.Context, evt publishers.JobEvent) {
	if a.fanout.Size() == 0 {
		return
	}
	delivered, err := a.fanout.Publish(ctx, evt)
	if err != nil {
		a.log.WarnObj("job event publish failed", "job_event", map[string]any{
			"job_id":    evt.JobID,
			"action":    evt.Action,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	a.log.DebugObj("job event published", "job_event", map[string]any{
		"job_id":    evt.JobID,
		"action":    evt.Action,
		"delivered": delivered,
	})
}

// UploadOutcome describes what UploadFile did.
type UploadOutcome struct {
	Name    string `json:"name"`
	MD5     string `json:"md5"`
	Size    int64  `json:"size"`
	Skipped bool   `json:"skipped"`
}

// UploadFile uploads the local file at path under its base name. When the
// ledger holds a live record with the same checksum and overwrite is false,
// nothing is sent.
func (a *App) UploadFile(ctx context.Context, path string, overwrite bool) (UploadOutcome, error) {
	name := filepath.Base(path)
	sum, size, err := fileMD5(path)
	if err != nil {
		return UploadOutcome{}, err
	}

	if !overwrite {
		rec, found, err := a.ledger.Lookup(name)
		if err != nil {
			a.log.WarnObj("ledger lookup failed", "ledger_error", map[string]any{"name": name, "error": err.Error()})
		} else if found && strings.EqualFold(rec.MD5, sum) {
			a.log.InfoObj("upload skipped, file unchanged", "ledger_hit", rec)
			return UploadOutcome{Name: name, MD5: rec.MD5, Size: rec.Size, Skipped: true}, nil
		}
	}

	var uploadOpts []saucerest.UploadOption
	if overwrite {
		uploadOpts = append(uploadOpts, saucerest.WithOverwrite(true))
	}
	res, err := retry.DoValue(ctx, a.policy, func(ctx context.Context) (saucerest.UploadResult, error) {
		return a.client.UploadLocalFile(ctx, path, uploadOpts...)
	})
	if err != nil {
		// The stored copy is unknown after a failed upload.
		if ferr := a.ledger.Forget(name); ferr != nil {
			a.log.WarnObj("ledger forget failed", "ledger_error", map[string]any{"name": name, "error": ferr.Error()})
		}
		return UploadOutcome{}, err
	}
	if !strings.EqualFold(res.MD5, sum) {
		a.log.WarnObj("uploaded checksum differs from local file", "upload_checksum", map[string]any{
			"name":   name,
			"local":  sum,
			"remote": res.MD5,
		})
	}

	if err := a.ledger.Record(domain.UploadRecord{
		Name:       name,
		MD5:        res.MD5,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}); err != nil {
		a.log.WarnObj("ledger record failed", "ledger_error", map[string]any{"name": name, "error": err.Error()})
	}
	return UploadOutcome{Name: name, MD5: res.MD5, Size: size}, nil
}

// Download saves the resource at sourcePath to dest. A partially written
// file is removed when the transfer fails, unless dest existed beforehand.
func (a *App) Download(ctx context.Context, sourcePath, dest string) error {
	_, statErr := os.Stat(dest)
	existed := statErr == nil
	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		return a.client.Download(ctx, sourcePath, dest)
	})
	if err != nil && !existed {
		removePartial(dest)
	}
	return err
}

// DownloadAsset saves a job asset ("log", "video" or "har") and returns the
// written path. When dest is a directory the file is <jobID>.<ext> inside it.
// A partially written asset is removed on failure unless it existed beforehand.
func (a *App) DownloadAsset(ctx context.Context, jobID, kind, dest string) (string, error) {
	var (
		fetch func(context.Context, string, string) (string, error)
		ext   string
	)
	switch kind {
	case "log":
		fetch, ext = a.client.DownloadLog, ".log"
	case "video":
		fetch, ext = a.client.DownloadVideo, ".flv"
	case "har":
		fetch, ext = a.client.DownloadHAR, ".har"
	default:
		return "", fmt.Errorf("unknown asset kind %q", kind)
	}

	path := saucerest.AssetDestination(dest, jobID, ext)
	_, statErr := os.Stat(path)
	existed := statErr == nil

	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		_, err := fetch(ctx, jobID, path)
		return err
	})
	if err != nil {
		if !existed {
			removePartial(path)
		}
		return "", err
	}
	return path, nil
}

func removePartial(path string) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		_ = os.Remove(path)
	}
}

func fileMD5(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash upload source: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
