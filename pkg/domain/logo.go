package domain

// Domain identifies one organization. It is unique per fetch task and is used
// verbatim as the base name of the downloaded logo file.
type Domain string

// String implements fmt.Stringer.
func (d Domain) String() string { return string(d) }

// LogoCandidate is a resolved logo URL together with the domain it belongs to.
// It only lives for the duration of a single fetch task.
type LogoCandidate struct {
	Domain Domain
	URL    string
}

// DownloadOutcome is the result of fetching the logo of a single domain.
// It is created once per domain and never modified afterwards.
type DownloadOutcome struct {
	// Domain is the domain the outcome belongs to.
	Domain Domain `json:"domain"`
	// Success reports whether a logo file was written.
	Success bool `json:"success"`
	// Path is the saved file path; empty when Success is false.
	Path string `json:"path,omitempty"`
	// Err holds the reason of a failure, if any.
	Err error `json:"-"`
}

// FetchSummary aggregates the outcomes of a complete fetch phase.
type FetchSummary struct {
	// Total is the number of domains that were processed.
	Total int
	// Successful is the number of domains for which a logo file was written.
	Successful int
	// Failed lists the domains without a logo file, in input order.
	Failed []Domain
	// Outcomes holds one outcome per input domain, in input order.
	Outcomes []DownloadOutcome
}

// Percent returns the share of successful domains in percent.
// It is zero when no domain was processed.
func (s FetchSummary) Percent() float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.Successful) / float64(s.Total) * 100
}
