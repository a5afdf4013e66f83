package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// Header returns the fixed CSV column order.
func Header() []string {
	return []string{
		"full_name",
		"title",
		"location",
		"linkedin_url",
		"company_name",
		"company_website",
		"company_industry",
		"company_employee_range",
		"source",
		"apollo_person_id",
		"confidence_score",
	}
}

// BuildCSV renders leads with the stable Header() ordering.
func BuildCSV(leads []domain.Lead) ([]byte, error) {
	var buffer bytes.Buffer
	if err := WriteCSV(&buffer, leads); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func WriteCSV(w io.Writer, leads []domain.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, lead := range leads {
		if err := cw.Write([]string{
			lead.FullName,
			lead.Title,
			lead.Location,
			lead.LinkedInURL,
			lead.CompanyName,
			lead.CompanyWebsite,
			lead.CompanyIndustry,
			lead.CompanyEmployeeRange,
			lead.Source,
			lead.ApolloPersonID,
			strconv.FormatFloat(lead.ConfidenceScore, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads leads back from a CSV written by WriteCSV.
//
// Extra columns are ignored. Every Header() column must exist.
func ParseCSV(r io.Reader) ([]domain.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range Header() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var leads []domain.Lead
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return leads, nil
		}
		if err != nil {
			return nil, err
		}

		get := func(col string) string {
			i := index[col]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		confidence, err := strconv.ParseFloat(get("confidence_score"), 64)
		if err != nil {
			return nil, fmt.Errorf("parse confidence_score: %w", err)
		}
		leads = append(leads, domain.Lead{
			FullName:             get("full_name"),
			Title:                get("title"),
			Location:             get("location"),
			LinkedInURL:          get("linkedin_url"),
			CompanyName:          get("company_name"),
			CompanyWebsite:       get("company_website"),
			CompanyIndustry:      get("company_industry"),
			CompanyEmployeeRange: get("company_employee_range"),
			Source:               get("source"),
			ApolloPersonID:       get("apollo_person_id"),
			ConfidenceScore:      confidence,
		})
	}
}
