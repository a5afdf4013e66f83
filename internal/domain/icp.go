package domain

// Geo narrows prospects by location. Any list may be absent.
type Geo struct {
	Countries []string `json:"countries,omitempty" yaml:"countries,omitempty"`
	Regions   []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	Cities    []string `json:"cities,omitempty" yaml:"cities,omitempty"`
}

type Positions struct {
	TitlesStrict []string `json:"titles_strict,omitempty" yaml:"titles_strict,omitempty"`
	TitlesBroad  []string `json:"titles_broad,omitempty" yaml:"titles_broad,omitempty"`
	Seniority    []string `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Departments  []string `json:"departments,omitempty" yaml:"departments,omitempty"`
}

type CompanySize struct {
	// EmployeeRanges holds provider range tokens such as "1,10" or "51,200".
	EmployeeRanges []string `json:"employee_ranges,omitempty" yaml:"employee_ranges,omitempty"`
}

// Icp is the Ideal Customer Profile used to build provider search filters.
type Icp struct {
	Geo              *Geo         `json:"geo,omitempty" yaml:"geo,omitempty"`
	Positions        *Positions   `json:"positions,omitempty" yaml:"positions,omitempty"`
	Industries       []string     `json:"industries,omitempty" yaml:"industries,omitempty"`
	CompanySize      *CompanySize `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	IndustryKeywords []string     `json:"industry_keywords,omitempty" yaml:"industry_keywords,omitempty"`
}

// WideningStep is one rung of the relaxation ladder.
type WideningStep string

const (
	StepStrict           WideningStep = "strict"
	StepBroadTitles      WideningStep = "broad_titles"
	StepRelaxSeniority   WideningStep = "relax_seniority"
	StepRelaxGeo         WideningStep = "relax_geo"
	StepRelaxCompanySize WideningStep = "relax_company_size"
	StepRelaxIndustries  WideningStep = "relax_industries"
)

// WideningLadder lists the steps from most to least restrictive.
var WideningLadder = []WideningStep{
	StepStrict,
	StepBroadTitles,
	StepRelaxSeniority,
	StepRelaxGeo,
	StepRelaxCompanySize,
	StepRelaxIndustries,
}

// Clone returns a deep copy of the profile.
func (p Icp) Clone() Icp {
	clone := p
	if p.Geo != nil {
		geo := Geo{
			Countries: cloneStrings(p.Geo.Countries),
			Regions:   cloneStrings(p.Geo.Regions),
			Cities:    cloneStrings(p.Geo.Cities),
		}
		clone.Geo = &geo
	}
	if p.Positions != nil {
		positions := Positions{
			TitlesStrict: cloneStrings(p.Positions.TitlesStrict),
			TitlesBroad:  cloneStrings(p.Positions.TitlesBroad),
			Seniority:    cloneStrings(p.Positions.Seniority),
			Departments:  cloneStrings(p.Positions.Departments),
		}
		clone.Positions = &positions
	}
	if p.CompanySize != nil {
		size := CompanySize{EmployeeRanges: cloneStrings(p.CompanySize.EmployeeRanges)}
		clone.CompanySize = &size
	}
	clone.Industries = cloneStrings(p.Industries)
	clone.IndustryKeywords = cloneStrings(p.IndustryKeywords)
	return clone
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}
