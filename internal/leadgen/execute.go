package leadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/export"
	"github.com/iago/outreach-leadgen/internal/icp"
	"github.com/iago/outreach-leadgen/internal/leads"
	"github.com/iago/outreach-leadgen/internal/storage"
)

// outcome is everything one execution contributes to the job record.
type outcome struct {
	status         domain.JobStatus
	icpUsed        *domain.Icp
	leads          []domain.Lead
	downloadCSVURL *string
	csvObjectKey   *string
	minioObjectKey *string
	debug          domain.JobDebug
	err            *string
}

func (o outcome) apply(record *domain.JobRecord) {
	record.Status = o.status
	record.IcpUsed = o.icpUsed
	record.LeadsCount = len(o.leads)
	record.LinkedInURLs = leads.LinkedInURLs(o.leads)
	record.LeadsPreview = preview(o.leads)
	record.DownloadCSVURL = o.downloadCSVURL
	record.CSVObjectKey = o.csvObjectKey
	record.MinioObjectKey = o.minioObjectKey
	record.Debug = o.debug
	if record.Debug.WideningStepsApplied == nil {
		record.Debug.WideningStepsApplied = []domain.WideningStep{}
	}
	record.Error = o.err
}

func preview(all []domain.Lead) []domain.Lead {
	size := len(all)
	if size > domain.LeadsPreviewSize {
		size = domain.LeadsPreviewSize
	}
	return append([]domain.Lead{}, all[:size]...)
}

func (w *Worker) execute(ctx context.Context, jobID string, input domain.LeadgenJobInput) outcome {
	limits := input.Limits.Normalized()
	profile := w.resolveProfile(jobID, input)
	result := outcome{icpUsed: &profile}

	if w.searcher == nil {
		result.status = domain.JobStatusFailed
		result.err = domain.StringPtr("leadgen worker has no search client")
		return result
	}

	deadline := w.now().Add(time.Duration(limits.MaxRuntimeMS) * time.Millisecond)
	acc := leads.NewAccumulator(limits.TargetLeads)

	searchErr := w.search(ctx, jobID, profile, deadline, acc, &result.debug)
	result.leads = acc.Leads()

	if searchErr != nil {
		w.logf("leadgen job failed job_id=%s leads=%d requests=%d err=%v",
			jobID, len(result.leads), result.debug.ApolloRequests, searchErr)
		result.status = domain.JobStatusFailed
		result.err = domain.StringPtr(searchErr.Error())
		return result
	}

	w.exportCSV(ctx, jobID, &result)
	w.writeImportDocument(ctx, jobID, input, &result)

	result.status = domain.JobStatusDone
	found := len(result.leads)
	switch {
	case result.debug.PartialDueToTimeout:
		result.err = domain.StringPtr(fmt.Sprintf("timed out after %d ms: found %d of %d leads",
			limits.MaxRuntimeMS, found, limits.TargetLeads))
	case found < limits.TargetLeads:
		result.err = domain.StringPtr(fmt.Sprintf("target not reached: found %d of %d leads",
			found, limits.TargetLeads))
	}

	w.logf("leadgen job done job_id=%s leads=%d target=%d requests=%d steps=%d partial=%t",
		jobID, found, limits.TargetLeads, result.debug.ApolloRequests,
		len(result.debug.WideningStepsApplied), result.debug.PartialDueToTimeout)
	return result
}

// resolveProfile folds segment profiles into the base profile and, when the
// result is empty, injects the product or first segment name as a keyword.
func (w *Worker) resolveProfile(jobID string, input domain.LeadgenJobInput) domain.Icp {
	profile := icp.Merge(input.Icp, input.SegmentIcps...)
	if input.Destination == nil {
		return profile
	}

	candidates := []string{input.Destination.Product.Name}
	for _, segment := range input.Destination.Segments {
		candidates = append(candidates, segment.Name)
	}
	profile, injected := icp.WithFallbackKeyword(profile, candidates...)
	if injected {
		w.logf("leadgen fallback keyword job_id=%s keyword=%q", jobID, profile.IndustryKeywords[0])
	}
	return profile
}

// search walks the widening ladder until the target is met, the deadline
// passes or the provider fails. Provider errors abort the whole ladder.
func (w *Worker) search(
	ctx context.Context,
	jobID string,
	profile domain.Icp,
	deadline time.Time,
	acc *leads.Accumulator,
	debug *domain.JobDebug,
) error {
ladder:
	for _, step := range domain.WideningLadder {
		// A met target is success even if the clock ran out while filling it.
		if acc.Full() {
			break
		}
		if !w.now().Before(deadline) {
			debug.PartialDueToTimeout = true
			break
		}

		filters := icp.MapFilters(profile, step)
		debug.WideningStepsApplied = append(debug.WideningStepsApplied, step)
		if step == domain.StepStrict && filters.Empty() {
			w.logf("leadgen step skipped job_id=%s step=%s reason=empty_filters", jobID, step)
			continue
		}
		w.logf("leadgen step job_id=%s step=%s dimensions=%v", jobID, step, filters.Dimensions())

		for page := 1; ; page++ {
			if acc.Full() {
				break
			}
			if !w.now().Before(deadline) {
				debug.PartialDueToTimeout = true
				break ladder
			}

			debug.ApolloRequests++
			result, err := w.searcher.Search(ctx, filters, page, w.perPage)
			if err != nil {
				return err
			}

			accepted := 0
			for _, person := range result.People {
				if acc.Add(leads.Normalize(person)) == leads.Accepted {
					accepted++
				}
				if acc.Full() {
					break
				}
			}
			w.logf("leadgen page job_id=%s step=%s page=%d records=%d accepted=%d total=%d source=%s",
				jobID, step, page, len(result.People), accepted, acc.Len(), result.Source)

			if len(result.People) < w.perPage {
				break
			}
			if total := result.Pagination.TotalPages; total > 0 && page >= total {
				break
			}
		}
	}
	return nil
}

func (w *Worker) exportCSV(ctx context.Context, jobID string, result *outcome) {
	if len(result.leads) == 0 || w.artifacts == nil {
		return
	}

	data, err := export.BuildCSV(result.leads)
	if err != nil {
		w.recordCSVError(jobID, result, fmt.Errorf("build csv: %w", err))
		return
	}
	key := storage.CSVObjectKey(jobID, w.now())
	if err := w.artifacts.Put(ctx, key, data, storage.ContentTypeCSV); err != nil {
		w.recordCSVError(jobID, result, err)
		return
	}
	result.csvObjectKey = domain.StringPtr(key)

	url, err := w.artifacts.PresignGet(ctx, key, w.presignTTL)
	if err != nil {
		w.recordCSVError(jobID, result, err)
		return
	}
	result.downloadCSVURL = domain.StringPtr(url)
}

func (w *Worker) recordCSVError(jobID string, result *outcome, err error) {
	w.logf("leadgen csv export failed job_id=%s err=%v", jobID, err)
	result.debug.CSVError = err.Error()
}

func (w *Worker) writeImportDocument(ctx context.Context, jobID string, input domain.LeadgenJobInput, result *outcome) {
	if input.Destination == nil {
		return
	}
	if len(result.leads) == 0 && input.ExistingObjectKey == "" {
		return
	}
	if w.artifacts == nil {
		result.debug.MinioError = storage.ErrStorageDisabled.Error()
		return
	}

	key := storage.ImportObjectKey(input.ExistingObjectKey)
	if err := w.putImportDocument(ctx, key, input, result.leads); err != nil {
		w.logf("leadgen import document failed job_id=%s key=%s err=%v", jobID, key, err)
		result.debug.MinioError = err.Error()
		return
	}
	result.minioObjectKey = domain.StringPtr(key)
}

func (w *Worker) putImportDocument(
	ctx context.Context,
	key string,
	input domain.LeadgenJobInput,
	found []domain.Lead,
) error {
	var existing *domain.ImportDocument
	if input.ExistingObjectKey != "" {
		data, err := w.artifacts.Get(ctx, key)
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
		case err != nil:
			return fmt.Errorf("read import document: %w", err)
		default:
			existing = &domain.ImportDocument{}
			if err := json.Unmarshal(data, existing); err != nil {
				return fmt.Errorf("decode import document: %w", err)
			}
		}
	}

	document := export.RewriteImportDocument(existing, *input.Destination, leads.LinkedInURLs(found), found)
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("encode import document: %w", err)
	}
	return w.artifacts.Put(ctx, key, data, storage.ContentTypeJSON)
}
