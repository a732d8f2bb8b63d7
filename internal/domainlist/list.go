package domainlist

import (
	"logogrouper/pkg/domain"
	"logogrouper/pkg/serrors"
)

// Entry is one data row of a domain list.
type Entry struct {
	// Raw is the value as read, trimmed of surrounding whitespace.
	Raw string
	// Domain is the normalized domain; empty when Err is set.
	Domain domain.Domain
	// Err is why the row was rejected, if it was.
	Err error
}

// List holds every data row of a domain list, in input order.
type List struct {
	Entries []Entry
}

// Domains returns the accepted domains, each once, in order of first
// appearance. These are the fetch tasks.
func (l List) Domains() []domain.Domain {
	seen := make(map[domain.Domain]struct{}, len(l.Entries))
	domains := make([]domain.Domain, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.Err != nil {
			continue
		}
		if _, ok := seen[e.Domain]; ok {
			continue
		}
		seen[e.Domain] = struct{}{}
		domains = append(domains, e.Domain)
	}

	return domains
}

// Rejected returns the number of rows that did not hold a valid domain.
func (l List) Rejected() int {
	n := 0
	for _, e := range l.Entries {
		if e.Err != nil {
			n++
		}
	}

	return n
}

// Summarize maps fetch outcomes back onto the rows of the list. Every row
// gets exactly one outcome: repeated domains share the outcome of their fetch
// task and rejected rows fail with their rejection reason. The summary thus
// counts input rows, and its failures list them in input order.
func (l List) Summarize(outcomes []domain.DownloadOutcome) domain.FetchSummary {
	byDomain := make(map[domain.Domain]domain.DownloadOutcome, len(outcomes))
	for _, o := range outcomes {
		byDomain[o.Domain] = o
	}

	summary := domain.FetchSummary{
		Total:    len(l.Entries),
		Outcomes: make([]domain.DownloadOutcome, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		var outcome domain.DownloadOutcome
		switch o, ok := byDomain[e.Domain]; {
		case e.Err != nil:
			outcome = domain.DownloadOutcome{Domain: domain.Domain(e.Raw), Err: e.Err}
		case ok:
			outcome = o
		default:
			outcome = domain.DownloadOutcome{
				Domain: e.Domain,
				Err:    serrors.With(serrors.ErrInternal, "domain %s was not fetched", e.Domain),
			}
		}

		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Success {
			summary.Successful++
		} else {
			summary.Failed = append(summary.Failed, outcome.Domain)
		}
	}

	return summary
}
