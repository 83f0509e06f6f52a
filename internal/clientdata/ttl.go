package clientdata

import "time"

// TTL defaults for cached upstream data, added to time.Now() when storing to
// calculate expires_at. They apply when the repository is constructed without
// an explicit TTL.
const (
	// TTLMetricsDocument covers raw upstream documents. The upstream API
	// recomputes metrics roughly hourly, so anything fresher is wasted fetches.
	TTLMetricsDocument = time.Hour

	// TTLAnalysisSnapshot matches the document TTL: a snapshot is only valid
	// for the document it was derived from.
	TTLAnalysisSnapshot = time.Hour
)

var defaultTTLs = map[string]time.Duration{
	"iris_documents":     TTLMetricsDocument,
	"analysis_snapshots": TTLAnalysisSnapshot,
}
