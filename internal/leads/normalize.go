package leads

import (
	"math"
	"net/url"
	"strings"

	"github.com/iago/outreach-leadgen/internal/apollo"
	"github.com/iago/outreach-leadgen/internal/domain"
)

// Normalize maps a provider record into a Lead. Missing fields become empty
// strings; it never fails.
func Normalize(person apollo.Person) domain.Lead {
	lead := domain.Lead{
		FullName:        fullName(person),
		Title:           cleanText(person.Title),
		Location:        Location(person.City, person.State, person.Country),
		LinkedInURL:     strings.TrimSpace(person.LinkedInURL),
		CompanyName:     cleanText(person.OrganizationName),
		Source:          domain.LeadSourceApollo,
		ApolloPersonID:  strings.TrimSpace(person.ID),
		ConfidenceScore: domain.DefaultLeadConfidence,
	}

	if org := person.Organization; org != nil {
		if name := cleanText(org.Name); name != "" {
			lead.CompanyName = name
		}
		lead.CompanyIndustry = cleanText(org.Industry)
		lead.CompanyWebsite = Website(org.PrimaryDomain)
		if lead.CompanyWebsite == "" {
			lead.CompanyWebsite = Website(org.WebsiteURL)
		}
		if org.EstimatedNumEmployees != nil {
			lead.CompanyEmployeeRange = EmployeeBucket(int(math.Round(*org.EstimatedNumEmployees)))
		}
	}
	return lead
}

// IsValid reports whether the lead carries the minimal quality signal.
func IsValid(lead domain.Lead) bool {
	return strings.TrimSpace(lead.Title) != "" && strings.TrimSpace(lead.CompanyName) != ""
}

// EmployeeBucket maps a head count to its display range.
func EmployeeBucket(count int) string {
	switch {
	case count <= 10:
		return "1-10"
	case count <= 50:
		return "11-50"
	case count <= 200:
		return "51-200"
	case count <= 500:
		return "201-500"
	default:
		return "500+"
	}
}

// Website turns a bare domain or URL into an https:// site URL.
func Website(domainOrURL string) string {
	value := strings.TrimSpace(domainOrURL)
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		if parsed, err := url.Parse(value); err == nil && parsed.Host != "" {
			value = parsed.Host
		} else {
			_, rest, _ := strings.Cut(value, "://")
			value = rest
		}
	}
	value = strings.TrimPrefix(value, "//")
	value = strings.TrimRight(value, "/")
	if value == "" {
		return ""
	}
	return "https://" + strings.ToLower(value)
}

// Location joins the non-empty parts with ", ".
func Location(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := cleanText(part); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return strings.Join(out, ", ")
}

func fullName(person apollo.Person) string {
	if name := cleanText(person.Name); name != "" {
		return name
	}
	return cleanText(person.FirstName + " " + person.LastName)
}

func cleanText(value string) string {
	value = strings.ReplaceAll(value, "\u00a0", " ")
	return strings.Join(strings.Fields(value), " ")
}
