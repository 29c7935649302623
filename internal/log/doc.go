// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// # Security Features
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (bearer tokens, JWTs, keys)
//   - Signed URL query parameters (X-Amz-Signature, token, sig, ...)
//   - Credentials embedded in URL user info
//
// Image URLs exported from storefronts are often pre-signed CDN links, so
// every URL valued attribute is scrubbed even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Info("fetching image",
//	    "url", "https://cdn.example.com/a.jpg?X-Amz-Signature=abc", // signature is masked
//	)
//	slog.SetDefault(logger)
//
// # Log files
//
// NewFileWriter returns a size-rotated writer for long batch runs:
//
//	w := log.NewFileWriter("colortag.log")
//	defer w.Close()
//	logger := log.NewSecureLogger(w, false)
package log
