package icp

import (
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// IsEmpty reports whether the profile carries no usable constraint at all.
func IsEmpty(profile domain.Icp) bool {
	if profile.Geo != nil {
		if hasValues(profile.Geo.Countries) || hasValues(profile.Geo.Regions) || hasValues(profile.Geo.Cities) {
			return false
		}
	}
	if profile.Positions != nil {
		p := profile.Positions
		if hasValues(p.TitlesStrict) || hasValues(p.TitlesBroad) || hasValues(p.Seniority) || hasValues(p.Departments) {
			return false
		}
	}
	if profile.CompanySize != nil && hasValues(profile.CompanySize.EmployeeRanges) {
		return false
	}
	return !hasValues(profile.Industries) && !hasValues(profile.IndustryKeywords)
}

// WithFallbackKeyword returns profile unchanged unless it is empty, in which
// case the first non-blank candidate becomes its only industry keyword.
// The bool result reports whether a keyword was injected.
func WithFallbackKeyword(profile domain.Icp, candidates ...string) (domain.Icp, bool) {
	if !IsEmpty(profile) {
		return profile, false
	}
	for _, candidate := range candidates {
		keyword := strings.TrimSpace(candidate)
		if keyword == "" {
			continue
		}
		profile.IndustryKeywords = []string{keyword}
		return profile, true
	}
	return profile, false
}

// Merge unions every list of base with the given profiles. Values keep their
// first-seen order; blanks and case-insensitive duplicates are dropped.
func Merge(base domain.Icp, others ...domain.Icp) domain.Icp {
	all := append([]domain.Icp{base}, others...)

	var (
		countries, regions, cities                 [][]string
		titlesStrict, titlesBroad, seniority, deps [][]string
		industries, ranges, keywords               [][]string
	)
	for _, profile := range all {
		if profile.Geo != nil {
			countries = append(countries, profile.Geo.Countries)
			regions = append(regions, profile.Geo.Regions)
			cities = append(cities, profile.Geo.Cities)
		}
		if profile.Positions != nil {
			titlesStrict = append(titlesStrict, profile.Positions.TitlesStrict)
			titlesBroad = append(titlesBroad, profile.Positions.TitlesBroad)
			seniority = append(seniority, profile.Positions.Seniority)
			deps = append(deps, profile.Positions.Departments)
		}
		if profile.CompanySize != nil {
			ranges = append(ranges, profile.CompanySize.EmployeeRanges)
		}
		industries = append(industries, profile.Industries)
		keywords = append(keywords, profile.IndustryKeywords)
	}

	merged := domain.Icp{
		Industries:       union(industries...),
		IndustryKeywords: union(keywords...),
	}
	geo := domain.Geo{
		Countries: union(countries...),
		Regions:   union(regions...),
		Cities:    union(cities...),
	}
	if len(geo.Countries)+len(geo.Regions)+len(geo.Cities) > 0 {
		merged.Geo = &geo
	}
	positions := domain.Positions{
		TitlesStrict: union(titlesStrict...),
		TitlesBroad:  union(titlesBroad...),
		Seniority:    union(seniority...),
		Departments:  union(deps...),
	}
	if len(positions.TitlesStrict)+len(positions.TitlesBroad)+len(positions.Seniority)+len(positions.Departments) > 0 {
		merged.Positions = &positions
	}
	if sizes := union(ranges...); len(sizes) > 0 {
		merged.CompanySize = &domain.CompanySize{EmployeeRanges: sizes}
	}
	return merged
}

func hasValues(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, raw := range list {
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			key := strings.ToLower(value)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}
