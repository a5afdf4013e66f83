package apollo

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Organization struct {
	Name                  string   `json:"name"`
	WebsiteURL            string   `json:"website_url"`
	PrimaryDomain         string   `json:"primary_domain"`
	Industry              string   `json:"industry"`
	EstimatedNumEmployees *float64 `json:"estimated_num_employees"`
}

// Person is one provider search record after the inner/outer merge.
type Person struct {
	ID               string        `json:"id"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	Name             string        `json:"name"`
	Title            string        `json:"title"`
	City             string        `json:"city"`
	State            string        `json:"state"`
	Country          string        `json:"country"`
	LinkedInURL      string        `json:"linkedin_url"`
	OrganizationName string        `json:"organization_name"`
	Organization     *Organization `json:"organization"`
}

type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// RecordSource tells where in the response body the records were found.
type RecordSource string

const (
	SourceNone        RecordSource = "none"
	SourceTopLevel    RecordSource = "people"
	SourceDataWrapper RecordSource = "data.people"
	SourceAlternate   RecordSource = "contacts"
)

type SearchPage struct {
	People     []Person
	Pagination Pagination
	Source     RecordSource
}

// rawRecord carries the outer record fields plus the optional nested person.
type rawRecord struct {
	Person
	Inner *Person `json:"person"`
}

type searchEnvelope struct {
	People     []rawRecord `json:"people"`
	Contacts   []rawRecord `json:"contacts"`
	Pagination *Pagination `json:"pagination"`
	Data       *struct {
		People     []rawRecord `json:"people"`
		Pagination *Pagination `json:"pagination"`
	} `json:"data"`
}

// locatedRecords is the tagged result of looking for records in an envelope.
type locatedRecords struct {
	source  RecordSource
	records []rawRecord
}

func locateRecords(envelope searchEnvelope) locatedRecords {
	switch {
	case envelope.People != nil:
		return locatedRecords{source: SourceTopLevel, records: envelope.People}
	case envelope.Data != nil && envelope.Data.People != nil:
		return locatedRecords{source: SourceDataWrapper, records: envelope.Data.People}
	case envelope.Contacts != nil:
		return locatedRecords{source: SourceAlternate, records: envelope.Contacts}
	default:
		return locatedRecords{source: SourceNone}
	}
}

func decodeSearchPage(body []byte) (SearchPage, error) {
	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return SearchPage{}, fmt.Errorf("decode search response: %w", err)
	}

	located := locateRecords(envelope)
	page := SearchPage{
		People: make([]Person, 0, len(located.records)),
		Source: located.source,
	}
	for _, record := range located.records {
		page.People = append(page.People, mergeRecord(record))
	}

	switch {
	case envelope.Pagination != nil:
		page.Pagination = *envelope.Pagination
	case envelope.Data != nil && envelope.Data.Pagination != nil:
		page.Pagination = *envelope.Data.Pagination
	}
	return page, nil
}

// mergeRecord prefers populated values from the nested person and backfills
// empty ones from the outer record.
func mergeRecord(record rawRecord) Person {
	if record.Inner == nil {
		return record.Person
	}
	merged := *record.Inner
	outer := record.Person

	merged.ID = firstNonEmpty(merged.ID, outer.ID)
	merged.FirstName = firstNonEmpty(merged.FirstName, outer.FirstName)
	merged.LastName = firstNonEmpty(merged.LastName, outer.LastName)
	merged.Name = firstNonEmpty(merged.Name, outer.Name)
	merged.Title = firstNonEmpty(merged.Title, outer.Title)
	merged.City = firstNonEmpty(merged.City, outer.City)
	merged.State = firstNonEmpty(merged.State, outer.State)
	merged.Country = firstNonEmpty(merged.Country, outer.Country)
	merged.LinkedInURL = firstNonEmpty(merged.LinkedInURL, outer.LinkedInURL)
	merged.OrganizationName = firstNonEmpty(merged.OrganizationName, outer.OrganizationName)

	switch {
	case merged.Organization == nil && outer.Organization != nil:
		org := *outer.Organization
		merged.Organization = &org
	case merged.Organization != nil && outer.Organization != nil:
		org := *merged.Organization
		org.Name = firstNonEmpty(org.Name, outer.Organization.Name)
		org.WebsiteURL = firstNonEmpty(org.WebsiteURL, outer.Organization.WebsiteURL)
		org.PrimaryDomain = firstNonEmpty(org.PrimaryDomain, outer.Organization.PrimaryDomain)
		org.Industry = firstNonEmpty(org.Industry, outer.Organization.Industry)
		if org.EstimatedNumEmployees == nil {
			org.EstimatedNumEmployees = outer.Organization.EstimatedNumEmployees
		}
		merged.Organization = &org
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
