// Package types defines the network record model shared between trace
// ingestion, analysis and reporting.
//
// Records mirror what a DevTools-protocol style network event stream
// reports per request. Two unit conventions apply throughout:
//   - StartTime, EndTime and ResponseReceivedTime are wall-clock seconds.
//   - RequestTiming offsets are milliseconds relative to request start.
package types

import (
	"encoding/json"
	"net/url"
)

// SchemaVersion is bumped whenever the JSONL trace line layout changes
// incompatibly. Readers skip lines carrying a different version.
const SchemaVersion = 1

// ResourceType classifies what a request fetched, as reported by the
// instrumentation layer. Empty means unknown.
type ResourceType string

const (
	ResourceDocument    ResourceType = "Document"
	ResourceStylesheet  ResourceType = "Stylesheet"
	ResourceImage       ResourceType = "Image"
	ResourceMedia       ResourceType = "Media"
	ResourceFont        ResourceType = "Font"
	ResourceScript      ResourceType = "Script"
	ResourceTextTrack   ResourceType = "TextTrack"
	ResourceXHR         ResourceType = "XHR"
	ResourceFetch       ResourceType = "Fetch"
	ResourceEventSource ResourceType = "EventSource"
	ResourceWebSocket   ResourceType = "WebSocket"
	ResourceManifest    ResourceType = "Manifest"
	ResourceOther       ResourceType = "Other"
)

// TimingUnavailable marks a RequestTiming offset for which the network
// stack reported no data (e.g. connectStart on a reused connection).
const TimingUnavailable = -1

// RequestTiming carries the protocol-level sub-timings of one request.
// Every field is a millisecond offset relative to the request start, or
// TimingUnavailable. Capture is lossy across browsers and network stacks,
// so consumers must treat any negative value as absent rather than error.
type RequestTiming struct {
	ConnectStart      float64 `json:"connect_start"`
	ConnectEnd        float64 `json:"connect_end"`
	SSLStart          float64 `json:"ssl_start"`
	SSLEnd            float64 `json:"ssl_end"`
	SendStart         float64 `json:"send_start"`
	SendEnd           float64 `json:"send_end"`
	ReceiveHeadersEnd float64 `json:"receive_headers_end"`
}

// NewRequestTiming returns a timing with every offset unavailable.
func NewRequestTiming() *RequestTiming {
	return &RequestTiming{
		ConnectStart:      TimingUnavailable,
		ConnectEnd:        TimingUnavailable,
		SSLStart:          TimingUnavailable,
		SSLEnd:            TimingUnavailable,
		SendStart:         TimingUnavailable,
		SendEnd:           TimingUnavailable,
		ReceiveHeadersEnd: TimingUnavailable,
	}
}

// UnmarshalJSON decodes a timing object defaulting absent fields to
// TimingUnavailable. Without this, a field the producer omitted would
// decode to 0, which is a valid offset and would poison estimates.
func (t *RequestTiming) UnmarshalJSON(data []byte) error {
	type alias RequestTiming
	tmp := alias(*NewRequestTiming())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*t = RequestTiming(tmp)
	return nil
}

// NetworkRecord is one observed HTTP resource fetch. Immutable for the
// duration of an analysis call; the analysis package never writes to it.
type NetworkRecord struct {
	RequestID        string `json:"request_id"`
	ConnectionID     string `json:"connection_id"`
	ConnectionReused bool   `json:"connection_reused"`
	// Protocol as negotiated on the wire, e.g. "h2" or "http/1.1".
	Protocol     string       `json:"protocol,omitempty"`
	URL          string       `json:"url"`
	ResourceType ResourceType `json:"resource_type,omitempty"`
	// TransferSize is bytes over the wire; 0 for cached or failed fetches.
	TransferSize int64 `json:"transfer_size"`
	// Seconds. EndTime >= StartTime for any finished record.
	StartTime            float64        `json:"start_time"`
	EndTime              float64        `json:"end_time"`
	ResponseReceivedTime float64        `json:"response_received_time"`
	StatusCode           int            `json:"status_code"`
	Failed               bool           `json:"failed,omitempty"`
	Finished             bool           `json:"finished"`
	Timing               *RequestTiming `json:"timing,omitempty"`
}

// SecurityOrigin returns scheme://host[:port] for the record's URL, or ""
// when the URL does not resolve to one (data: URIs, unparseable URLs).
func (r *NetworkRecord) SecurityOrigin() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Scheme returns the lowercase URL scheme, or "" when unparseable.
func (r *NetworkRecord) Scheme() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// IsSecure reports whether the record went over TLS.
func (r *NetworkRecord) IsSecure() bool {
	s := r.Scheme()
	return s == "https" || s == "wss"
}

// TraceMeta is the per-line metadata envelope half. PageTag identifies the
// page-load session a record belongs to; FinalURL is the navigation's
// post-redirect URL when the producer knows it.
type TraceMeta struct {
	TimestampUTC  string `json:"timestamp_utc,omitempty"`
	PageTag       string `json:"page_tag,omitempty"`
	FinalURL      string `json:"final_url,omitempty"`
	SchemaVersion int    `json:"schema_version"`
}

// TraceEnvelope is one JSONL trace line: metadata plus a single record.
type TraceEnvelope struct {
	Meta   *TraceMeta     `json:"meta"`
	Record *NetworkRecord `json:"record"`
}
