// Package http exposes the delivery pipeline over net/http.
//
// Routes, after locale resolution:
//   - Pages: GET /{locale}/{path...}, unprefixed for the default locale
//   - Tag listings: GET /{locale}/tags/{tag} and GET /tags/{tag}
//   - Preview: GET /preview?token=...&secret=...
//   - Revalidation: POST /api/revalidate, guarded by the X-Revalidate-Secret header
//   - Block menu: GET /api/blocks
//
// Host applications can mount Server.Handler on their own mux.
package http
