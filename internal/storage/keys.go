package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
)

func CSVObjectKey(jobID string, at time.Time) string {
	return fmt.Sprintf("leadgen/%s/leads-%d.csv", strings.TrimSpace(jobID), at.Unix())
}

// ImportObjectKey returns existing when set, otherwise a fresh imports/ key.
func ImportObjectKey(existing string) string {
	if key := strings.TrimSpace(existing); key != "" {
		return key
	}
	return "imports/" + uuid.NewString() + ".json"
}
