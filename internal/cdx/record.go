package cdx

import "strconv"

// IndexFields are the CDX fields requested from the API, in the order
// they are requested. Metadata dumps reuse this order as their header row.
var IndexFields = []string{"original", "mimetype", "timestamp", "endtimestamp", "groupcount", "uniqcount"}

// Record is one archived-URL observation from the CDX index.
type Record struct {
	// Original is the URL as it was captured.
	Original string

	// Mimetype is the content type the archive recorded.
	Mimetype string

	// Timestamp is the first capture, as a 14-digit YYYYMMDDhhmmss string.
	Timestamp string

	// EndTimestamp is the last capture. Always >= Timestamp.
	EndTimestamp string

	// GroupCount is the total number of captures.
	GroupCount int

	// UniqueCount is the number of distinct content variants captured.
	UniqueCount int
}

// MultiVariant reports whether the archive holds more than one distinct
// content version of this URL.
func (r Record) MultiVariant() bool {
	return r.UniqueCount >= 2
}

// Row returns the record as a field map keyed by IndexFields, for the
// serialization sink.
func (r Record) Row() map[string]string {
	return map[string]string{
		"original":     r.Original,
		"mimetype":     r.Mimetype,
		"timestamp":    r.Timestamp,
		"endtimestamp": r.EndTimestamp,
		"groupcount":   strconv.Itoa(r.GroupCount),
		"uniqcount":    strconv.Itoa(r.UniqueCount),
	}
}

// recordFromRow maps one positional CDX row onto a Record. Missing or
// malformed count fields parse as zero, matching what the API sends for
// records it has no grouping information for.
func recordFromRow(fields []string, row []string) Record {
	var r Record
	for i, name := range fields {
		if i >= len(row) {
			break
		}
		switch name {
		case "original":
			r.Original = row[i]
		case "mimetype":
			r.Mimetype = row[i]
		case "timestamp":
			r.Timestamp = row[i]
		case "endtimestamp":
			r.EndTimestamp = row[i]
		case "groupcount":
			r.GroupCount, _ = strconv.Atoi(row[i])
		case "uniqcount":
			r.UniqueCount, _ = strconv.Atoi(row[i])
		}
	}
	return r
}
