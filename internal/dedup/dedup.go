// Package dedup removes content-identical variants of a downloaded
// file, keeping the freshest copy.
package dedup

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"gocloud.dev/blob"

	"github.com/CyberFazaN/wayback-fetcher/internal/fetcher"
	"github.com/CyberFazaN/wayback-fetcher/internal/layout"
)

type groupKey struct {
	sum  string
	base string
}

type member struct {
	key  string
	role string
}

// Plan inspects successful download results and returns the keys of
// duplicate files to delete. Results are grouped by (content hash,
// suffix-free base key); within each group the freshest variant
// survives and the rest are scheduled for deletion.
//
// Freshness: "current" outranks every snapshot, snapshots rank by their
// timestamp, and an unrecognized role ranks below the oldest snapshot.
// Ties keep the earlier-discovered file.
func Plan(results []fetcher.Result) []string {
	groups := make(map[groupKey][]member)
	var order []groupKey

	for _, r := range results {
		if !r.OK || r.Key == "" || r.Sum == "" {
			continue
		}

		base, role := r.BaseKey, r.Role
		if base == "" {
			base, role = layout.ExtractBaseAndRole(r.Key)
		}

		k := groupKey{sum: r.Sum, base: base}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], member{key: r.Key, role: role})
	}

	var toDelete []string
	for _, k := range order {
		files := groups[k]
		if len(files) < 2 {
			continue
		}

		sort.SliceStable(files, func(i, j int) bool {
			return freshness(files[i].role) > freshness(files[j].role)
		})

		for _, f := range files[1:] {
			toDelete = append(toDelete, f.key)
		}
	}
	return toDelete
}

// freshness ranks a role for the keep decision.
func freshness(role string) float64 {
	if role == fetcher.RoleCurrent {
		return math.Inf(1)
	}
	if n, err := strconv.ParseUint(role, 10, 64); err == nil {
		return float64(n)
	}
	return 0
}

// Failure records one key that could not be deleted.
type Failure struct {
	Key string
	Err error
}

// Delete removes the given keys from the bucket. A failing deletion is
// collected and the remaining keys are still attempted.
func Delete(ctx context.Context, bucket *blob.Bucket, keys []string, log *slog.Logger) []Failure {
	var failures []Failure
	for _, key := range keys {
		log.Debug("deleting duplicate", "key", key)
		if err := bucket.Delete(ctx, key); err != nil {
			log.Warn("delete failed", "key", key, "error", err)
			failures = append(failures, Failure{Key: key, Err: err})
		}
	}
	return failures
}
