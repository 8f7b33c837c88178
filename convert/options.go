package convert

// RequestOption mutates a conversion request.
type RequestOption func(*Request)

// WithExportAreaPage toggles full-page export.
func WithExportAreaPage(on bool) RequestOption {
	return func(r *Request) { r.ExportAreaPage = on }
}

// WithMetadata sets converter-specific metadata for the request.
func WithMetadata(metadata map[string]string) RequestOption {
	return func(r *Request) {
		if len(metadata) == 0 {
			r.Metadata = nil
			return
		}
		r.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			r.Metadata[k] = v
		}
	}
}

// NewRequest builds a request that exports the full page area, which is
// what the rewriter expects, then applies opts.
func NewRequest(input, output string, opts ...RequestOption) Request {
	req := Request{Input: input, Output: output, ExportAreaPage: true}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
