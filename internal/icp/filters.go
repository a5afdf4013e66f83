package icp

import (
	"regexp"
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// industryTagPattern matches provider industry identifiers (24 hex chars).
var industryTagPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// Filters is the provider search-filter object. Absent and empty are treated
// differently by the provider, so empty values are never serialized.
type Filters struct {
	PersonTitles              []string `json:"person_titles,omitempty"`
	PersonSeniorities         []string `json:"person_seniorities,omitempty"`
	PersonDepartments         []string `json:"person_department_or_subdepartments,omitempty"`
	PersonLocations           []string `json:"person_locations,omitempty"`
	OrganizationEmployeeRange []string `json:"organization_num_employees_ranges,omitempty"`
	OrganizationIndustryTags  []string `json:"organization_industry_tag_ids,omitempty"`
	OrganizationKeywordTags   []string `json:"q_organization_keyword_tags,omitempty"`
	Keywords                  string   `json:"q_keywords,omitempty"`
}

// Empty reports whether no filter dimension is set.
func (f Filters) Empty() bool {
	return len(f.PersonTitles) == 0 &&
		len(f.PersonSeniorities) == 0 &&
		len(f.PersonDepartments) == 0 &&
		len(f.PersonLocations) == 0 &&
		len(f.OrganizationEmployeeRange) == 0 &&
		len(f.OrganizationIndustryTags) == 0 &&
		len(f.OrganizationKeywordTags) == 0 &&
		f.Keywords == ""
}

// Dimensions lists the JSON names of the populated filter fields.
func (f Filters) Dimensions() []string {
	var out []string
	add := func(name string, set bool) {
		if set {
			out = append(out, name)
		}
	}
	add("person_titles", len(f.PersonTitles) > 0)
	add("person_seniorities", len(f.PersonSeniorities) > 0)
	add("person_department_or_subdepartments", len(f.PersonDepartments) > 0)
	add("person_locations", len(f.PersonLocations) > 0)
	add("organization_num_employees_ranges", len(f.OrganizationEmployeeRange) > 0)
	add("organization_industry_tag_ids", len(f.OrganizationIndustryTags) > 0)
	add("q_organization_keyword_tags", len(f.OrganizationKeywordTags) > 0)
	add("q_keywords", f.Keywords != "")
	return out
}

// MapFilters derives the provider filters for one widening step. Each step
// keeps every relaxation of the steps before it.
func MapFilters(profile domain.Icp, step domain.WideningStep) Filters {
	level := stepLevel(step)
	var filters Filters

	if profile.Positions != nil {
		if level == 0 {
			filters.PersonTitles = union(profile.Positions.TitlesStrict)
		} else {
			filters.PersonTitles = union(profile.Positions.TitlesStrict, profile.Positions.TitlesBroad)
		}
		if level < stepLevel(domain.StepRelaxSeniority) {
			filters.PersonSeniorities = union(profile.Positions.Seniority)
			filters.PersonDepartments = union(profile.Positions.Departments)
		}
	}

	if profile.Geo != nil && level < stepLevel(domain.StepRelaxGeo) {
		filters.PersonLocations = union(profile.Geo.Countries, profile.Geo.Regions, profile.Geo.Cities)
	}

	if profile.CompanySize != nil && level < stepLevel(domain.StepRelaxCompanySize) {
		filters.OrganizationEmployeeRange = union(profile.CompanySize.EmployeeRanges)
	}

	if level < stepLevel(domain.StepRelaxIndustries) {
		for _, industry := range union(profile.Industries) {
			if industryTagPattern.MatchString(strings.ToLower(industry)) {
				filters.OrganizationIndustryTags = append(filters.OrganizationIndustryTags, strings.ToLower(industry))
				continue
			}
			filters.OrganizationKeywordTags = append(filters.OrganizationKeywordTags, industry)
		}
	}

	filters.Keywords = strings.Join(union(profile.IndustryKeywords), " ")
	return filters
}

func stepLevel(step domain.WideningStep) int {
	for index, candidate := range domain.WideningLadder {
		if candidate == step {
			return index
		}
	}
	// Unknown steps are treated as the loosest rung.
	return len(domain.WideningLadder) - 1
}
