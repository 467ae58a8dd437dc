// Package bilibili is a small client for the Bilibili web API endpoints the
// exporter needs: login state, the followings list and per-account stats.
//
// Every call goes through GetJSON, which sends the session cookies, unwraps
// the {code, message, data} envelope and retries failed attempts with
// exponential backoff (500ms, then x3). A 429 answer lowers the shared
// concurrency ceiling when adaptive throttling is on.
package bilibili
