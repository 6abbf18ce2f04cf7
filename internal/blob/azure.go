// Package blob uploads dish images to an Azure-style blob container.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var ErrNotConfigured = errors.New("blob storage is not configured")

type Config struct {
	Account   string
	Container string
	SASToken  string
	// BaseURL replaces https://<account>.blob.core.windows.net when set.
	BaseURL string
}

// Uploader PUTs block blobs with a SAS token and returns their public URL.
type Uploader struct {
	endpoint  string
	container string
	sas       string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[string]
	logger    zerolog.Logger
}

func NewUploader(cfg Config, client *http.Client, logger zerolog.Logger) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/")
	if endpoint == "" && cfg.Account != "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.Account)
	}
	logger = logger.With().Str("component", "blob").Logger()

	u := &Uploader{
		endpoint:  endpoint,
		container: cfg.Container,
		sas:       strings.TrimPrefix(cfg.SASToken, "?"),
		client:    client,
		logger:    logger,
	}
	u.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "blob-upload",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})
	return u
}

func (u *Uploader) Configured() bool {
	return u.endpoint != "" && u.container != "" && u.sas != ""
}

// DishImageName names the blob of a menu item image.
func DishImageName(itemID string, at time.Time) string {
	return fmt.Sprintf("dish_%s_%d.jpg", itemID, at.UnixMilli())
}

// Upload stores body under name and returns the public URL without the SAS.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if !u.Configured() {
		return "", ErrNotConfigured
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	publicURL := fmt.Sprintf("%s/%s/%s", u.endpoint, u.container, url.PathEscape(name))

	return u.breaker.Execute(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, publicURL+"?"+u.sas, body)
		if err != nil {
			return "", err
		}
		req.Header.Set("x-ms-blob-type", "BlockBlob")
		req.Header.Set("Content-Type", contentType)

		resp, err := u.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", name, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("upload %s: unexpected status %d", name, resp.StatusCode)
		}
		return publicURL, nil
	})
}
