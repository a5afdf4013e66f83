package leads

import (
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// DedupKey identifies the entity behind a lead: the LinkedIn URL, falling back
// to the provider person id. An empty key means the lead is unidentifiable.
func DedupKey(lead domain.Lead) string {
	keys := dedupKeys(lead)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// dedupKeys lists every identity a lead carries, LinkedIn URL first.
func dedupKeys(lead domain.Lead) []string {
	keys := make([]string, 0, 2)
	if linkedIn := strings.TrimSpace(lead.LinkedInURL); linkedIn != "" {
		keys = append(keys, "li:"+strings.ToLower(strings.TrimRight(linkedIn, "/")))
	}
	if id := strings.TrimSpace(lead.ApolloPersonID); id != "" {
		keys = append(keys, "id:"+id)
	}
	return keys
}

// RejectReason explains why Add refused a lead.
type RejectReason string

const (
	Accepted      RejectReason = ""
	RejectInvalid RejectReason = "invalid"
	RejectNoKey   RejectReason = "unidentifiable"
	RejectDup     RejectReason = "duplicate"
	RejectFull    RejectReason = "target_reached"
)

// Accumulator collects valid, unique leads up to a target count. Accepted
// leads are never modified afterwards. Not safe for concurrent use.
type Accumulator struct {
	target int
	seen   map[string]struct{}
	leads  []domain.Lead
}

// NewAccumulator creates an accumulator; target <= 0 means unbounded.
func NewAccumulator(target int) *Accumulator {
	return &Accumulator{
		target: target,
		seen:   make(map[string]struct{}),
	}
}

func (a *Accumulator) Add(lead domain.Lead) RejectReason {
	if a.Full() {
		return RejectFull
	}
	if !IsValid(lead) {
		return RejectInvalid
	}
	keys := dedupKeys(lead)
	if len(keys) == 0 {
		return RejectNoKey
	}
	// A lead matching an accepted one on either identity is a duplicate,
	// whichever of the two arrived with fewer keys.
	for _, key := range keys {
		if _, ok := a.seen[key]; ok {
			return RejectDup
		}
	}
	for _, key := range keys {
		a.seen[key] = struct{}{}
	}
	a.leads = append(a.leads, lead)
	return Accepted
}

func (a *Accumulator) Full() bool {
	return a.target > 0 && len(a.leads) >= a.target
}

func (a *Accumulator) Len() int {
	return len(a.leads)
}

// Leads returns a copy of the accepted leads in acceptance order.
func (a *Accumulator) Leads() []domain.Lead {
	return append([]domain.Lead(nil), a.leads...)
}

// LinkedInURLs lists the non-empty LinkedIn URLs of the accepted leads.
func (a *Accumulator) LinkedInURLs() []string {
	return LinkedInURLs(a.leads)
}

func LinkedInURLs(leads []domain.Lead) []string {
	urls := make([]string, 0, len(leads))
	for _, lead := range leads {
		if lead.LinkedInURL != "" {
			urls = append(urls, lead.LinkedInURL)
		}
	}
	return urls
}
