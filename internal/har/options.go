package har

// ConvertOptions selects which archive entries become resource timings.
type ConvertOptions struct {
	// PageRef selects the page to rebuild (empty = first page, or every
	// entry when the archive has no pages).
	PageRef string
	// IncludeHosts specifies which hosts to include (empty = all hosts)
	IncludeHosts []string
	// ExcludeHosts specifies which hosts to exclude
	ExcludeHosts []string
}
