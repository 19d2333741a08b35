// Package media uploads locally staged files to the media CDN.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/tubesocial/internal/platform/signing"
)

const defaultEndpoint = "https://api.cloudinary.com/v1_1"

// Config is built once at startup and handed to NewUploader.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// Endpoint overrides the CDN API base URL; used by tests.
	Endpoint string
	Timeout  time.Duration
}

// Enabled reports whether enough credentials are present to upload.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Result is the subset of the CDN response the service hands back to clients.
type Result struct {
	PublicID     string `json:"public_id"`
	URL          string `json:"url"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
}

var ErrNotConfigured = errors.New("media uploader is not configured")

type Uploader struct {
	cfg    Config
	signer *signing.Signer
	client *http.Client
	log    *zap.Logger
	now    func() time.Time
}

func NewUploader(cfg Config, log *zap.Logger) *Uploader {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{
		cfg:    cfg,
		signer: signing.New(cfg.APISecret),
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
		now:    time.Now,
	}
}

// Upload sends the file at localPath to the CDN. The local file is a
// temporary staging copy and is removed once Upload returns, whether the
// upload succeeded or not.
func (u *Uploader) Upload(ctx context.Context, localPath string) (res Result, err error) {
	if strings.TrimSpace(localPath) == "" {
		return Result{}, errors.New("local path is required")
	}
	defer func() {
		if rmErr := os.Remove(localPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			u.log.Warn("media: remove staged file", zap.String("path", localPath), zap.Error(rmErr))
		}
	}()
	if !u.cfg.Enabled() {
		return Result{}, ErrNotConfigured
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, err
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(u.now().Unix(), 10),
		"folder":    u.cfg.Folder,
	}
	sig := u.signer.Sign(params)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	// The writer goroutine owns f. Closing pr unblocks it if the CDN stops
	// reading early; f is closed before the staged file is removed.
	written := make(chan struct{})
	go func() {
		defer close(written)
		err := writeForm(mw, f, filepath.Base(localPath), params, u.cfg.APIKey, sig)
		_ = f.Close()
		pw.CloseWithError(err)
	}()
	defer func() {
		_ = pr.Close()
		<-written
	}()

	url := fmt.Sprintf("%s/%s/auto/upload", strings.TrimRight(u.cfg.Endpoint, "/"), u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Result{}, fmt.Errorf("media upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("media upload: decode response: %w", err)
	}
	u.log.Info("media uploaded", zap.String("public_id", res.PublicID), zap.Int64("bytes", res.Bytes))
	return res, nil
}

func writeForm(mw *multipart.Writer, src io.Reader, filename string, params map[string]string, apiKey, sig string) error {
	for k, v := range params {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for k, v := range map[string]string{
		"api_key":             apiKey,
		"signature":           sig,
		"signature_algorithm": signing.Algorithm,
	} {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}
