package domain

// ImportDocument is the JSON payload stored next to the CSV export and read by
// the outreach importer.
type ImportDocument struct {
	Product  ProductDescriptor `json:"product"`
	Segments []ImportSegment   `json:"segments"`
}

type ImportSegment struct {
	Name                    string   `json:"name"`
	Personalization         string   `json:"personalization"`
	Leads                   []string `json:"leads"`
	LeadsDetail             []Lead   `json:"leads_detail"`
	OutreachPersonalization string   `json:"outreach_personalization,omitempty"`
	DialogPersonalization   string   `json:"dialog_personalization,omitempty"`
}
