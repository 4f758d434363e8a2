package schedule

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/log"
)

// CleanupJobName identifies the expired-record cleanup job.
const CleanupJobName = "expired-record-cleanup"

// CleanupJobOptions configures a CleanupJob.
type CleanupJobOptions struct {
	Backend backend.CleanupBackend

	// Categories defaults to every known cleanup category.
	Categories []backend.CleanupCategory
}

// CleanupJob purges expired ephemeral records per category through the
// cleanup collaborator. It holds no cache keys: cleanup and foreground
// mutations work disjoint key spaces.
type CleanupJob struct {
	backend    backend.CleanupBackend
	categories []backend.CleanupCategory
}

func NewCleanupJob(opts CleanupJobOptions) *CleanupJob {
	if opts.Backend == nil {
		panic("schedule.CleanupJob: Backend is required")
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = backend.CleanupCategories()
	}

	return &CleanupJob{backend: opts.Backend, categories: categories}
}

func (j *CleanupJob) Name() string {
	return CleanupJobName
}

// Run deletes expired records for every configured category. A failing
// category does not stop the others; failures are aggregated into the
// returned error while successful counts are still reported.
func (j *CleanupJob) Run(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(j.categories))

	var errs *multierror.Error

	for _, category := range j.categories {
		deleted, err := j.backend.DeleteExpired(ctx, category)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("delete expired %s: %w", category, err))
			continue
		}

		counts[string(category)] = deleted

		if deleted > 0 {
			log.Debug(ctx, "expired records deleted",
				log.String("category", string(category)),
				log.Int("count", deleted))
		}
	}

	return counts, errs.ErrorOrNil()
}
