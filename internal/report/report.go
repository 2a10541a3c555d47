// Package report persists run metadata (index dumps, download
// failures) into the output bucket as CSV and/or JSON.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"
)

// Formats selects which metadata formats to write.
type Formats struct {
	CSV  bool
	JSON bool
}

// ParseFormats parses a format flag value: "csv", "json" or "both".
func ParseFormats(s string) (Formats, error) {
	switch s {
	case "csv":
		return Formats{CSV: true}, nil
	case "json":
		return Formats{JSON: true}, nil
	case "both":
		return Formats{CSV: true, JSON: true}, nil
	default:
		return Formats{}, fmt.Errorf("report: unknown format %q (want csv, json or both)", s)
	}
}

// Save writes one metadata collection under <name>.csv and/or
// <name>.json. Rows are field maps; fields are emitted in header
// order, missing fields as empty strings.
func Save(ctx context.Context, bucket *blob.Bucket, name string, headers []string, rows []map[string]string, f Formats) error {
	if f.CSV {
		if err := saveCSV(ctx, bucket, name+".csv", headers, rows); err != nil {
			return err
		}
	}
	if f.JSON {
		if err := saveJSON(ctx, bucket, name+".json", rows); err != nil {
			return err
		}
	}
	return nil
}

func saveCSV(ctx context.Context, bucket *blob.Bucket, key string, headers []string, rows []map[string]string) error {
	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", key, err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(headers); err != nil {
		w.Close()
		return fmt.Errorf("report: write %s: %w", key, err)
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row[h]
		}
		if err := cw.Write(record); err != nil {
			w.Close()
			return fmt.Errorf("report: write %s: %w", key, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		w.Close()
		return fmt.Errorf("report: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", key, err)
	}
	return nil
}

func saveJSON(ctx context.Context, bucket *blob.Bucket, key string, rows []map[string]string) error {
	if rows == nil {
		rows = []map[string]string{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal %s: %w", key, err)
	}
	if err := bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("report: write %s: %w", key, err)
	}
	return nil
}
