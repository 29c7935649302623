package fetch

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nao1215/colortag/internal/model"
	"golang.org/x/crypto/sha3"

	// Register WebP alongside the JPEG/PNG/GIF/BMP/TIFF decoders imaging pulls in.
	_ "golang.org/x/image/webp"
)

// Defaults used by New.
const (
	// DefaultTimeout is the per-request deadline.
	DefaultTimeout = 20 * time.Second

	// DefaultGridSize is the edge of the square pixel grid.
	DefaultGridSize = 150

	// DefaultMaxBodySize caps the response body at 20MB.
	DefaultMaxBodySize int64 = 20 * 1024 * 1024

	// DefaultUserAgent mimics a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// HostOverride customizes requests to one host (and its subdomains).
type HostOverride struct {
	Referer   string
	UserAgent string
	Headers   map[string]string
}

// Fetcher downloads and normalizes images.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	gridSize    int
	maxBodySize int64
	userAgent   string
	referer     string
	hosts       map[string]HostOverride
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithGridSize sets the edge length of the downsampled square grid.
func WithGridSize(n int) Option {
	return func(f *Fetcher) {
		f.gridSize = n
	}
}

// WithMaxBodySize limits the number of body bytes read per image.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithReferer sets a fixed Referer header instead of deriving one per URL.
func WithReferer(referer string) Option {
	return func(f *Fetcher) {
		f.referer = referer
	}
}

// WithHostOverrides sets per-host request settings keyed by hostname.
func WithHostOverrides(hosts map[string]HostOverride) Option {
	return func(f *Fetcher) {
		f.hosts = hosts
	}
}

// WithHTTPClient replaces the HTTP client. The client's own timeout is left
// untouched; the fetcher applies its deadline through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with defaults for any unset option.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		gridSize:    DefaultGridSize,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxBodySize <= 0 {
		f.maxBodySize = DefaultMaxBodySize
	}
	if f.gridSize <= 0 {
		f.gridSize = DefaultGridSize
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	return f
}

// GridSize returns the edge length of the pixel grid.
func (f *Fetcher) GridSize() int {
	return f.gridSize
}

// Fetch downloads the image at rawURL and returns it as a normalized grid.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.SourceImage, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	img, err := f.normalize(rawURL, body)
	if err != nil {
		return nil, err
	}

	sum := sha3.Sum256(body)
	img.Digest = hex.EncodeToString(sum[:])

	f.logger.Debug("fetched image",
		"url", rawURL,
		"format", img.Format,
		"source_width", img.SourceWidth,
		"source_height", img.SourceHeight,
		"bytes", len(body),
	)
	return img, nil
}

// download performs the GET and returns the body bytes.
func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, f.maxBodySize)}
	}
	return body, nil
}

// setHeaders applies User-Agent, Referer and host overrides.
func (f *Fetcher) setHeaders(req *http.Request) {
	ua := f.userAgent
	referer := f.referer
	if referer == "" {
		referer = DeriveReferer(req.URL.String())
	}

	override, ok := f.override(req.URL.Hostname())
	if ok {
		if override.UserAgent != "" {
			ua = override.UserAgent
		}
		if override.Referer != "" {
			referer = override.Referer
		}
	}

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if ok {
		for k, v := range override.Headers {
			req.Header.Set(k, v)
		}
	}
}

// override finds the most specific host override for host.
func (f *Fetcher) override(host string) (HostOverride, bool) {
	host = strings.ToLower(host)
	for {
		if o, ok := f.hosts[host]; ok {
			return o, true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return HostOverride{}, false
		}
		host = host[i+1:]
	}
}

// normalize decodes the body, flattens alpha onto white and downsamples.
func (f *Fetcher) normalize(rawURL string, body []byte) (*model.SourceImage, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, &DecodeError{URL: rawURL, Err: err}
	}

	decoded, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{URL: rawURL, Err: err}
	}

	bounds := decoded.Bounds()
	if bounds.Empty() {
		return nil, &DecodeError{URL: rawURL, Err: errors.New("image has no pixels")}
	}

	flat := imaging.Overlay(
		imaging.New(bounds.Dx(), bounds.Dy(), color.White),
		decoded,
		image.Pt(0, 0),
		1.0,
	)
	grid := imaging.Resize(flat, f.gridSize, f.gridSize, imaging.Box)

	return &model.SourceImage{
		URL:          rawURL,
		Format:       format,
		Width:        grid.Bounds().Dx(),
		Height:       grid.Bounds().Dy(),
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Pixels:       Pixels(grid),
	}, nil
}

// Pixels flattens an NRGBA image into row-major RGB samples, ignoring alpha.
func Pixels(img *image.NRGBA) []model.RGB {
	b := img.Bounds()
	out := make([]model.RGB, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			out = append(out, model.RGB{R: row[x], G: row[x+1], B: row[x+2]})
		}
	}
	return out
}

// isTimeout reports whether err was caused by a deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
