package domain

import (
	"time"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

const (
	DefaultTargetLeads  = 50
	MaxTargetLeads      = 500
	DefaultMaxRuntimeMS = 25000
	LeadsPreviewSize    = 10
)

type Limits struct {
	TargetLeads  int `json:"target_leads" yaml:"target_leads"`
	MaxRuntimeMS int `json:"max_runtime_ms" yaml:"max_runtime_ms"`
}

// Normalized fills defaults and clamps the target to the supported range.
func (l Limits) Normalized() Limits {
	if l.TargetLeads <= 0 {
		l.TargetLeads = DefaultTargetLeads
	}
	if l.TargetLeads > MaxTargetLeads {
		l.TargetLeads = MaxTargetLeads
	}
	if l.MaxRuntimeMS <= 0 {
		l.MaxRuntimeMS = DefaultMaxRuntimeMS
	}
	return l
}

type ProductDescriptor struct {
	Name            string `json:"name" yaml:"name"`
	Description     string `json:"description" yaml:"description"`
	GoalType        string `json:"goal_type" yaml:"goal_type"`
	GoalDescription string `json:"goal_description" yaml:"goal_description"`
}

type SegmentDescriptor struct {
	Name                    string `json:"name" yaml:"name"`
	Personalization         string `json:"personalization" yaml:"personalization"`
	OutreachPersonalization string `json:"outreach_personalization,omitempty" yaml:"outreach_personalization,omitempty"`
	DialogPersonalization   string `json:"dialog_personalization,omitempty" yaml:"dialog_personalization,omitempty"`
}

// Destination describes the import document the worker writes leads into.
type Destination struct {
	Product  ProductDescriptor   `json:"product" yaml:"product"`
	Segments []SegmentDescriptor `json:"segments,omitempty" yaml:"segments,omitempty"`
}

type LeadgenJobInput struct {
	JobID             string       `json:"job_id" yaml:"job_id"`
	Icp               Icp          `json:"icp" yaml:"icp"`
	SegmentIcps       []Icp        `json:"segment_icps,omitempty" yaml:"segment_icps,omitempty"`
	Limits            Limits       `json:"limits" yaml:"limits"`
	Destination       *Destination `json:"destination,omitempty" yaml:"destination,omitempty"`
	ExistingObjectKey string       `json:"existing_object_key,omitempty" yaml:"existing_object_key,omitempty"`
}

type JobDebug struct {
	ApolloRequests       int            `json:"apollo_requests"`
	WideningStepsApplied []WideningStep `json:"widening_steps_applied"`
	PartialDueToTimeout  bool           `json:"partial_due_to_timeout"`
	MinioError           string         `json:"minio_error,omitempty"`
	CSVError             string         `json:"csv_error,omitempty"`
}

// JobRecord is the polled view of a lead-generation job.
type JobRecord struct {
	JobID          string           `json:"job_id"`
	Status         JobStatus        `json:"status"`
	Input          *LeadgenJobInput `json:"input,omitempty"`
	IcpUsed        *Icp             `json:"icp_used,omitempty"`
	LeadsCount     int              `json:"leads_count"`
	LinkedInURLs   []string         `json:"linkedin_urls"`
	LeadsPreview   []Lead           `json:"leads_preview"`
	DownloadCSVURL *string          `json:"download_csv_url"`
	CSVObjectKey   *string          `json:"csv_object_key,omitempty"`
	MinioObjectKey *string          `json:"minio_object_key"`
	Debug          JobDebug         `json:"debug"`
	Error          *string          `json:"error"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Terminal reports whether the job reached done or failed.
func (r *JobRecord) Terminal() bool {
	return r.Status == JobStatusDone || r.Status == JobStatusFailed
}

// QueueMessage is the transport format sent to queue backends.
type QueueMessage struct {
	JobID       string    `json:"job_id"`
	Attempt     int       `json:"attempt"`
	RequestedAt time.Time `json:"requested_at"`
}

func StringPtr(value string) *string {
	return &value
}
