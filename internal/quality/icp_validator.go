package quality

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

var ErrEmptyProfile = errors.New("icp has no usable filters")

const maxListItems = 10

// Seniority tokens accepted by the people-search provider.
var senioritySynonyms = map[string]string{
	"owner":          "owner",
	"founder":        "founder",
	"cofounder":      "founder",
	"c_suite":        "c_suite",
	"c-suite":        "c_suite",
	"csuite":         "c_suite",
	"c-level":        "c_suite",
	"executive":      "c_suite",
	"partner":        "partner",
	"vp":             "vp",
	"vice president": "vp",
	"head":           "head",
	"director":       "director",
	"manager":        "manager",
	"senior":         "senior",
	"entry":          "entry",
	"intern":         "intern",
}

// IcpReport describes what validation changed.
type IcpReport struct {
	Score   float64  `json:"score"`
	Dropped []string `json:"dropped,omitempty"`
}

type IcpValidator struct{}

func NewIcpValidator() *IcpValidator {
	return &IcpValidator{}
}

// Validate returns a cleaned copy of profile. Unknown seniority tokens and
// malformed employee ranges are dropped and long lists are truncated. The
// score rewards profiles that constrain titles, industry and geography.
func (v *IcpValidator) Validate(profile domain.Icp) (domain.Icp, IcpReport, error) {
	cleaned := profile.Clone()
	report := IcpReport{}

	if cleaned.Positions != nil {
		cleaned.Positions.Seniority = normalizeSeniority(cleaned.Positions.Seniority, &report)
		cleaned.Positions.TitlesStrict = truncate(cleaned.Positions.TitlesStrict, "titles_strict", &report)
		cleaned.Positions.TitlesBroad = truncate(cleaned.Positions.TitlesBroad, "titles_broad", &report)
		cleaned.Positions.Departments = truncate(cleaned.Positions.Departments, "departments", &report)
	}
	if cleaned.CompanySize != nil {
		cleaned.CompanySize.EmployeeRanges = normalizeRanges(cleaned.CompanySize.EmployeeRanges, &report)
		if len(cleaned.CompanySize.EmployeeRanges) == 0 {
			cleaned.CompanySize = nil
		}
	}
	cleaned.Industries = truncate(cleaned.Industries, "industries", &report)
	cleaned.IndustryKeywords = truncate(cleaned.IndustryKeywords, "industry_keywords", &report)

	report.Score = score(cleaned, len(report.Dropped))
	if report.Score == 0 {
		return cleaned, report, ErrEmptyProfile
	}
	return cleaned, report, nil
}

func normalizeSeniority(values []string, report *IcpReport) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, raw := range values {
		key := strings.ToLower(strings.TrimSpace(raw))
		token, ok := senioritySynonyms[key]
		if !ok {
			report.Dropped = append(report.Dropped, "seniority:"+raw)
			continue
		}
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}
	return result
}

// normalizeRanges keeps "min,max" tokens with 1 <= min <= max. A "min+" or
// "min,"-style open range becomes "min,1000000".
func normalizeRanges(values []string, report *IcpReport) []string {
	result := make([]string, 0, len(values))
	for _, raw := range values {
		token := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
		token = strings.Replace(token, "-", ",", 1)
		if strings.HasSuffix(token, "+") {
			token = strings.TrimSuffix(token, "+") + ",1000000"
		}
		low, high, ok := strings.Cut(token, ",")
		if ok && high == "" {
			high = "1000000"
		}
		minimum, errLow := strconv.Atoi(low)
		maximum, errHigh := strconv.Atoi(high)
		if !ok || errLow != nil || errHigh != nil || minimum < 1 || maximum < minimum {
			report.Dropped = append(report.Dropped, "employee_range:"+raw)
			continue
		}
		result = append(result, strconv.Itoa(minimum)+","+strconv.Itoa(maximum))
	}
	return result
}

func truncate(values []string, field string, report *IcpReport) []string {
	if len(values) <= maxListItems {
		return values
	}
	report.Dropped = append(report.Dropped, field+":truncated")
	return values[:maxListItems]
}

func score(profile domain.Icp, dropped int) float64 {
	total := 0.0
	if profile.Positions != nil && (len(profile.Positions.TitlesStrict) > 0 || len(profile.Positions.TitlesBroad) > 0) {
		total += 0.35
	}
	if profile.Positions != nil && len(profile.Positions.Seniority) > 0 {
		total += 0.1
	}
	if len(profile.Industries) > 0 || len(profile.IndustryKeywords) > 0 {
		total += 0.3
	}
	if profile.Geo != nil && (len(profile.Geo.Countries)+len(profile.Geo.Regions)+len(profile.Geo.Cities)) > 0 {
		total += 0.15
	}
	if profile.CompanySize != nil && len(profile.CompanySize.EmployeeRanges) > 0 {
		total += 0.1
	}
	if total == 0 {
		return 0
	}
	total -= 0.02 * float64(dropped)
	return round2(clamp01(total))
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
