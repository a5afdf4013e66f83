package icp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/outreach-leadgen/internal/domain"
)

func fullProfile() domain.Icp {
	return domain.Icp{
		Geo: &domain.Geo{
			Countries: []string{"United States"},
			Cities:    []string{"Austin"},
		},
		Positions: &domain.Positions{
			TitlesStrict: []string{"CEO"},
			TitlesBroad:  []string{"Founder", "ceo"},
			Seniority:    []string{"c_suite"},
			Departments:  []string{"executive"},
		},
		Industries:       []string{"5567cd4773696439b10b0000", "Software"},
		CompanySize:      &domain.CompanySize{EmployeeRanges: []string{"1,10", "11,50"}},
		IndustryKeywords: []string{"saas", "b2b"},
	}
}

func TestMapFiltersStrictAppliesEveryConstraint(t *testing.T) {
	filters := MapFilters(fullProfile(), domain.StepStrict)

	assert.Equal(t, []string{"CEO"}, filters.PersonTitles)
	assert.Equal(t, []string{"c_suite"}, filters.PersonSeniorities)
	assert.Equal(t, []string{"executive"}, filters.PersonDepartments)
	assert.Equal(t, []string{"United States", "Austin"}, filters.PersonLocations)
	assert.Equal(t, []string{"1,10", "11,50"}, filters.OrganizationEmployeeRange)
	assert.Equal(t, []string{"5567cd4773696439b10b0000"}, filters.OrganizationIndustryTags)
	assert.Equal(t, []string{"Software"}, filters.OrganizationKeywordTags)
	assert.Equal(t, "saas b2b", filters.Keywords)
}

func TestMapFiltersLadderDropsOneDimensionPerStep(t *testing.T) {
	profile := fullProfile()

	broad := MapFilters(profile, domain.StepBroadTitles)
	assert.Equal(t, []string{"CEO", "Founder"}, broad.PersonTitles)
	assert.NotEmpty(t, broad.PersonSeniorities)

	seniority := MapFilters(profile, domain.StepRelaxSeniority)
	assert.Empty(t, seniority.PersonSeniorities)
	assert.Empty(t, seniority.PersonDepartments)
	assert.Equal(t, []string{"CEO", "Founder"}, seniority.PersonTitles)
	assert.NotEmpty(t, seniority.PersonLocations)

	geo := MapFilters(profile, domain.StepRelaxGeo)
	assert.Empty(t, geo.PersonLocations)
	assert.NotEmpty(t, geo.OrganizationEmployeeRange)

	size := MapFilters(profile, domain.StepRelaxCompanySize)
	assert.Empty(t, size.OrganizationEmployeeRange)
	assert.NotEmpty(t, size.OrganizationKeywordTags)

	industries := MapFilters(profile, domain.StepRelaxIndustries)
	assert.Empty(t, industries.OrganizationIndustryTags)
	assert.Empty(t, industries.OrganizationKeywordTags)
	assert.Equal(t, []string{"CEO", "Founder"}, industries.PersonTitles)
	assert.Equal(t, "saas b2b", industries.Keywords)
}

func TestMapFiltersRelaxationIsMonotonic(t *testing.T) {
	profiles := []domain.Icp{
		fullProfile(),
		{Geo: &domain.Geo{Regions: []string{"Bavaria"}}},
		{Positions: &domain.Positions{TitlesBroad: []string{"VP Sales"}}},
		{Industries: []string{"Fintech"}, CompanySize: &domain.CompanySize{EmployeeRanges: []string{"51,200"}}},
		{},
	}

	for _, profile := range profiles {
		for index := 1; index < len(domain.WideningLadder); index++ {
			stricter := MapFilters(profile, domain.WideningLadder[index-1]).Dimensions()
			looser := MapFilters(profile, domain.WideningLadder[index]).Dimensions()
			for _, dimension := range looser {
				if dimension == "person_titles" {
					// titles widen in value, never appear from nothing
					continue
				}
				assert.Contains(t, stricter, dimension, "step %s added %s", domain.WideningLadder[index], dimension)
			}
		}
	}
}

func TestMapFiltersIsDeterministic(t *testing.T) {
	profile := fullProfile()
	for _, step := range domain.WideningLadder {
		assert.Equal(t, MapFilters(profile, step), MapFilters(profile, step))
	}
}

func TestMapFiltersEmptyProfileYieldsNoFilters(t *testing.T) {
	for _, step := range domain.WideningLadder {
		filters := MapFilters(domain.Icp{}, step)
		require.True(t, filters.Empty(), "step %s", step)
	}

	blank := domain.Icp{Positions: &domain.Positions{TitlesStrict: []string{"  "}}}
	assert.True(t, MapFilters(blank, domain.StepStrict).Empty())
}

func TestMapFiltersStrictEmptyWhenOnlyBroadTitles(t *testing.T) {
	profile := domain.Icp{Positions: &domain.Positions{TitlesBroad: []string{"Head of Growth"}}}

	assert.True(t, MapFilters(profile, domain.StepStrict).Empty())
	assert.Equal(t, []string{"Head of Growth"}, MapFilters(profile, domain.StepBroadTitles).PersonTitles)
}
