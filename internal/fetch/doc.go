// Package fetch downloads product images and normalizes them into a fixed
// RGB pixel grid for color extraction.
//
// A Fetch call performs exactly one HTTP GET (no retries), bounded by the
// configured timeout and body size. The response body is decoded with
// EXIF auto-orientation, flattened onto white to discard alpha, and
// downsampled to a square grid so that clustering cost is independent of
// the served resolution.
//
// Failures are reported as two typed errors:
//   - *FetchError for network errors, timeouts and non-2xx responses
//   - *DecodeError when the body is not a decodable image
//
// Design decision: Many image CDNs reject requests without a browser-like
// User-Agent or a Referer pointing at the storefront. When no Referer is
// configured it is derived from the registrable domain of the image URL, so
// image.example.co.jp is fetched with Referer https://www.example.co.jp/.
package fetch
