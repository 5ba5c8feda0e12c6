package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// JobsProvider defines the store methods required by the jobs handler.
type JobsProvider interface {
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	ListJobRuns(ctx context.Context, jobName, status string, limit int) ([]domain.JobRun, error)
}

// JobsHandler serves refresh cycle history.
type JobsHandler struct {
	store JobsProvider
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobsProvider) *JobsHandler {
	return &JobsHandler{store: s}
}

// ListJobsOutput is the latest run of each job.
type ListJobsOutput struct {
	Body []domain.JobRun
}

// GetJobHistoryInput selects a job and how many runs to return.
type GetJobHistoryInput struct {
	JobName string `path:"job_name" doc:"Job name (e.g. refresh)"`
	Limit   int    `query:"limit"   doc:"Maximum runs to return" default:"20" minimum:"1" maximum:"200"`
	Status  string `query:"status"  doc:"Only return runs in this state" enum:"running,succeeded,failed"`
}

// GetJobHistoryOutput is a job's runs, newest first.
type GetJobHistoryOutput struct {
	Body []domain.JobRun
}

// ListJobs returns the most recent run for each distinct job.
func (h *JobsHandler) ListJobs(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	runs, err := h.store.ListLatestJobRuns(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing jobs failed: " + err.Error())
	}

	return &ListJobsOutput{Body: nonNilRuns(runs)}, nil
}

// GetJobHistory returns the run history of one job.
func (h *JobsHandler) GetJobHistory(
	ctx context.Context,
	input *GetJobHistoryInput,
) (*GetJobHistoryOutput, error) {
	runs, err := h.store.ListJobRuns(ctx, input.JobName, input.Status, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching job history failed: " + err.Error())
	}

	return &GetJobHistoryOutput{Body: nonNilRuns(runs)}, nil
}

// nonNilRuns keeps empty results serialized as [] rather than null.
func nonNilRuns(runs []domain.JobRun) []domain.JobRun {
	if runs == nil {
		return []domain.JobRun{}
	}
	return runs
}

// RegisterJobRoutes registers job history endpoints with the Huma API.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List latest job runs",
		Description: "Returns the most recent run record for each distinct job.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "get-job-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{job_name}",
		Summary:     "Get job history",
		Description: "Returns the run history for a job, newest first, optionally filtered by status.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetJobHistory)
}
