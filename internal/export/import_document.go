package export

import (
	"strings"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// RewriteImportDocument builds the import document for a finished job.
// Destination values win over the existing document; the existing document
// fills whatever the destination leaves blank. Every segment ends up carrying
// the full LinkedIn URL list and the parallel lead details.
func RewriteImportDocument(
	existing *domain.ImportDocument,
	destination domain.Destination,
	urls []string,
	details []domain.Lead,
) domain.ImportDocument {
	var doc domain.ImportDocument
	if existing != nil {
		doc.Product = existing.Product
		doc.Segments = append([]domain.ImportSegment(nil), existing.Segments...)
	}

	doc.Product.Name = prefer(destination.Product.Name, doc.Product.Name)
	doc.Product.Description = prefer(destination.Product.Description, doc.Product.Description)
	doc.Product.GoalType = prefer(destination.Product.GoalType, doc.Product.GoalType)
	doc.Product.GoalDescription = prefer(destination.Product.GoalDescription, doc.Product.GoalDescription)

	if len(destination.Segments) > 0 {
		byName := make(map[string]domain.ImportSegment, len(doc.Segments))
		for _, segment := range doc.Segments {
			byName[strings.ToLower(strings.TrimSpace(segment.Name))] = segment
		}
		segments := make([]domain.ImportSegment, 0, len(destination.Segments))
		for _, descriptor := range destination.Segments {
			previous := byName[strings.ToLower(strings.TrimSpace(descriptor.Name))]
			segments = append(segments, domain.ImportSegment{
				Name:                    prefer(descriptor.Name, previous.Name),
				Personalization:         prefer(descriptor.Personalization, previous.Personalization),
				OutreachPersonalization: prefer(descriptor.OutreachPersonalization, previous.OutreachPersonalization),
				DialogPersonalization:   prefer(descriptor.DialogPersonalization, previous.DialogPersonalization),
			})
		}
		doc.Segments = segments
	}

	if len(doc.Segments) == 0 {
		doc.Segments = []domain.ImportSegment{{Name: doc.Product.Name}}
	}

	for index := range doc.Segments {
		doc.Segments[index].Leads = append([]string{}, urls...)
		doc.Segments[index].LeadsDetail = append([]domain.Lead{}, details...)
	}
	return doc
}

func prefer(primary, fallback string) string {
	if trimmed := strings.TrimSpace(primary); trimmed != "" {
		return trimmed
	}
	return fallback
}
