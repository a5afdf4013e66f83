package domain

const (
	LeadSourceApollo      = "apollo"
	DefaultLeadConfidence = 1.0
)

// Lead is a normalized prospect record derived from a provider search result.
type Lead struct {
	FullName             string  `json:"full_name"`
	Title                string  `json:"title"`
	Location             string  `json:"location"`
	LinkedInURL          string  `json:"linkedin_url"`
	CompanyName          string  `json:"company_name"`
	CompanyWebsite       string  `json:"company_website"`
	CompanyIndustry      string  `json:"company_industry"`
	CompanyEmployeeRange string  `json:"company_employee_range"`
	Source               string  `json:"source"`
	ApolloPersonID       string  `json:"apollo_person_id"`
	ConfidenceScore      float64 `json:"confidence_score"`
}
