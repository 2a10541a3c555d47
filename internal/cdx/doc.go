// Package cdx talks to the Wayback Machine CDX index API.
//
// The index is queried once per run and returned as a flat list of
// Records, one per archived URL. Each record describes the observation
// window (first and last capture timestamps) and how many distinct
// content variants the archive holds for that URL.
//
// # Wire format
//
// The CDX endpoint returns a JSON array of arrays. The first row lists
// the field names, every following row is one record with fields in the
// same positions:
//
//	[["original","mimetype","timestamp","endtimestamp","groupcount","uniqcount"],
//	 ["http://example.com/a.pdf","application/pdf","20090101000000","20230601000000","12","3"]]
//
// Timestamps are fixed-width 14-digit strings (YYYYMMDDhhmmss), so
// lexicographic order is chronological order.
//
// # Retries
//
// Transport failures and 5xx responses are retried with a fixed delay;
// 4xx responses fail immediately.
package cdx
