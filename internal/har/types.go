package har

// HAR is an HTTP Archive (HAR 1.2) document. Only the fields needed to
// rebuild resource and navigation timing are decoded.
type HAR struct {
	Log *Log `json:"log"`
}

// Log contains the HTTP archive data
type Log struct {
	Version string   `json:"version"`
	Creator *Creator `json:"creator"`
	Pages   []*Page  `json:"pages,omitempty"`
	Entries []*Entry `json:"entries"`
}

// Creator describes the application that created the archive
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Page describes a page within the archive
type Page struct {
	ID              string       `json:"id"`
	StartedDateTime string       `json:"startedDateTime"`
	Title           string       `json:"title"`
	PageTimings     *PageTimings `json:"pageTimings"`
}

// PageTimings holds page milestones in milliseconds since the page started.
// A value of -1 means the milestone is not available.
type PageTimings struct {
	OnContentLoad float64 `json:"onContentLoad,omitempty"`
	OnLoad        float64 `json:"onLoad,omitempty"`
}

// Entry describes a single HTTP request/response pair
type Entry struct {
	PageRef         string    `json:"pageref,omitempty"`
	StartedDateTime string    `json:"startedDateTime"`
	Time            float64   `json:"time"`
	Request         *Request  `json:"request"`
	Response        *Response `json:"response"`
	Timings         *Timings  `json:"timings"`

	// Chromium extension: document, script, stylesheet, image, ...
	ResourceType string `json:"_resourceType,omitempty"`
}

// Request describes an HTTP request
type Request struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// Response describes an HTTP response. BodySize is the encoded (on the
// wire) body size, -1 when unknown.
type Response struct {
	Status      int      `json:"status"`
	HeadersSize int64    `json:"headersSize"`
	BodySize    int64    `json:"bodySize"`
	Content     *Content `json:"content"`

	// Chromium extension: bytes received over the network, 0 for cache hits.
	TransferSize int64 `json:"_transferSize,omitempty"`
}

// Content describes the decoded response body
type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Timings describes timing phases of an entry in milliseconds, -1 when a
// phase does not apply.
type Timings struct {
	Blocked float64 `json:"blocked,omitempty"`
	DNS     float64 `json:"dns,omitempty"`
	Connect float64 `json:"connect,omitempty"`
	Send    float64 `json:"send,omitempty"`
	Wait    float64 `json:"wait,omitempty"`
	Receive float64 `json:"receive,omitempty"`
}
