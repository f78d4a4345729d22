package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/apierr"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// ErrNotFound reports that the provider no longer knows the video id.
var ErrNotFound = errors.New("video not found")

// Client talks to the Cloudflare Stream API. Video bytes never pass through
// this service on the resumable path; we only open the upload channel and
// hand the one-time URL back to the browser.
type Client interface {
	CreateUploadSession(ctx context.Context, ownerEmail string, uploadLength int64) (*UploadSession, error)
	Upload(ctx context.Context, r io.Reader, filename, contentType, ownerEmail string) (string, error)
	Delete(ctx context.Context, videoID string) error
	GetVideo(ctx context.Context, videoID string) (*VideoStatus, error)
	PlaybackURL(videoID string) string
	ThumbnailURL(videoID string, offset float64) string
}

type Config struct {
	AccountID          string
	APIToken           string
	CustomerSubdomain  string
	BaseURL            string
	Timeout            time.Duration
	MaxDurationSeconds int
	UploadExpiry       time.Duration
	UploadOrigins      []string
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("missing Stream API token")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		if strings.TrimSpace(cfg.AccountID) == "" {
			return nil, fmt.Errorf("missing Stream account id")
		}
		cfg.BaseURL = "https://api.cloudflare.com/client/v4/accounts/" + cfg.AccountID + "/stream"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxDurationSeconds <= 0 {
		cfg.MaxDurationSeconds = 120
	}
	if cfg.UploadExpiry <= 0 {
		cfg.UploadExpiry = time.Hour
	}
	return &client{
		log:  log.With("client", "StreamClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- Upload session (tus) --------------------

type UploadSession struct {
	VideoID   string
	UploadURL string
}

// CreateUploadSession opens a direct-creator tus channel. The response
// carries no body we care about; everything is in the headers.
func (c *client) CreateUploadSession(ctx context.Context, ownerEmail string, uploadLength int64) (*UploadSession, error) {
	if uploadLength <= 0 {
		return nil, fmt.Errorf("uploadLength required")
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "?direct_user=true"
	req, err := http.NewRequestWithContext(defaultCtx(ctx), "POST", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Upload-Length", strconv.FormatInt(uploadLength, 10))
	if ownerEmail != "" {
		req.Header.Set("Upload-Creator", ownerEmail)
	}
	req.Header.Set("Upload-Metadata", c.uploadMetadata())

	resp, err := c.do(req, "create_upload_session")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, apierr.Newf(http.StatusBadGateway, "stream_upload_session_failed",
			"stream create upload session http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return nil, apierr.Newf(http.StatusBadGateway, "stream_upload_session_failed",
			"stream create upload session returned no Location header")
	}
	videoID := strings.TrimSpace(resp.Header.Get("stream-media-id"))
	if videoID == "" {
		// Older responses only carry the id as the URL's trailing segment.
		parts := strings.Split(strings.TrimRight(location, "/"), "/")
		videoID = parts[len(parts)-1]
	}
	if videoID == "" {
		return nil, apierr.Newf(http.StatusBadGateway, "stream_upload_session_failed",
			"stream create upload session returned no video id")
	}

	return &UploadSession{VideoID: videoID, UploadURL: location}, nil
}

// uploadMetadata encodes the tus Upload-Metadata header: comma separated
// "key base64(value)" pairs.
func (c *client) uploadMetadata() string {
	pairs := []string{
		metadataPair("maxDurationSeconds", strconv.Itoa(c.cfg.MaxDurationSeconds)),
		metadataPair("expiry", time.Now().Add(c.cfg.UploadExpiry).UTC().Format(time.RFC3339)),
	}
	if len(c.cfg.UploadOrigins) > 0 {
		pairs = append(pairs, metadataPair("allowedorigins", strings.Join(c.cfg.UploadOrigins, ",")))
	}
	return strings.Join(pairs, ",")
}

func metadataPair(key, value string) string {
	return key + " " + base64.StdEncoding.EncodeToString([]byte(value))
}

// -------------------- Single-shot upload --------------------

// Upload sends the whole file in one multipart request and returns the
// provider-assigned video id.
func (c *client) Upload(ctx context.Context, r io.Reader, filename, contentType, ownerEmail string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reader required")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "upload.mp4"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("maxDurationSeconds", strconv.Itoa(c.cfg.MaxDurationSeconds)); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	u := strings.TrimRight(c.cfg.BaseURL, "/")
	req, err := http.NewRequestWithContext(defaultCtx(ctx), "POST", u, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if ownerEmail != "" {
		req.Header.Set("Upload-Creator", ownerEmail)
	}

	out, err := doEnvelope[videoResult](c, req, "upload")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.UID) == "" {
		return "", apierr.Newf(http.StatusBadGateway, "stream_upload_failed",
			"stream upload returned no video id")
	}
	return out.UID, nil
}

// -------------------- Status / delete --------------------

type VideoStatus struct {
	VideoID       string
	ReadyToStream bool
	Duration      float64
	Thumbnail     string
	Preview       string
}

func (c *client) GetVideo(ctx context.Context, videoID string) (*VideoStatus, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, fmt.Errorf("videoID required")
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + videoID
	req, err := http.NewRequestWithContext(defaultCtx(ctx), "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	out, err := doEnvelope[videoResult](c, req, "get_video")
	if err != nil {
		return nil, err
	}
	return &VideoStatus{
		VideoID:       out.UID,
		ReadyToStream: out.ReadyToStream,
		Duration:      out.Duration,
		Thumbnail:     out.Thumbnail,
		Preview:       out.Preview,
	}, nil
}

func (c *client) Delete(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return fmt.Errorf("videoID required")
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + videoID
	req, err := http.NewRequestWithContext(defaultCtx(ctx), "DELETE", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.do(req, "delete")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// A video that is already gone counts as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return apierr.Newf(http.StatusBadGateway, "stream_delete_failed",
			"stream delete http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// -------------------- Playback URLs --------------------

func (c *client) PlaybackURL(videoID string) string {
	if c.cfg.CustomerSubdomain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.cloudflarestream.com/%s/iframe", c.cfg.CustomerSubdomain, videoID)
}

func (c *client) ThumbnailURL(videoID string, offset float64) string {
	if c.cfg.CustomerSubdomain == "" {
		return ""
	}
	u := fmt.Sprintf("https://%s.cloudflarestream.com/%s/thumbnails/thumbnail.jpg", c.cfg.CustomerSubdomain, videoID)
	if offset > 0 {
		u += fmt.Sprintf("?time=%ss", strconv.FormatFloat(offset, 'f', -1, 64))
	}
	return u
}

// -------------------- helpers --------------------

type videoResult struct {
	UID           string  `json:"uid"`
	ReadyToStream bool    `json:"readyToStream"`
	Duration      float64 `json:"duration"`
	Thumbnail     string  `json:"thumbnail"`
	Preview       string  `json:"preview"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Success bool         `json:"success"`
	Result  T            `json:"result"`
	Errors  []apiMessage `json:"errors"`
}

// do executes the request and records per-operation telemetry when metrics
// are enabled.
func (c *client) do(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if metrics := observability.Current(); metrics != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		metrics.ObserveStreamRequest(op, status, time.Since(start))
	}
	return resp, err
}

// doEnvelope runs the request and unwraps the standard Cloudflare v4
// response envelope, folding API-level errors into one message.
func doEnvelope[T any](c *client, req *http.Request, op string) (*T, error) {
	resp, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("stream %s: %w", op, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		msg := joinMessages(env.Errors)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, apierr.Newf(http.StatusBadGateway, "stream_"+op+"_failed",
			"stream %s http %d: %s", op, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("stream %s decode: %w", op, decodeErr)
	}
	return &env.Result, nil
}

func joinMessages(msgs []apiMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Message) != "" {
			parts = append(parts, m.Message)
		}
	}
	return strings.Join(parts, "; ")
}

func defaultCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
