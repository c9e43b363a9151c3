package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type jobRepository struct {
	db *db
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		for _, existing := range r.db.jobs {
			if existing.ID == job.ID || existing.ServiceRequestID == job.ServiceRequestID {
				return nil, fmt.Errorf("job: %w", interfaces.ErrDuplicateKey)
			}
		}
		id := job.ID
		r.db.jobs[id] = cloneJob(job)
		return func() { delete(r.db.jobs, id) }, nil
	})
}

func (r *jobRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Job, error) {
	return r.findOne(func(j *models.Job) bool { return j.ID == id })
}

func (r *jobRepository) GetByServiceRequest(_ context.Context, requestID primitive.ObjectID) (*models.Job, error) {
	return r.findOne(func(j *models.Job) bool { return j.ServiceRequestID == requestID })
}

func (r *jobRepository) Schedule(ctx context.Context, requestID, mechanicID primitive.ObjectID, at time.Time) (bool, error) {
	return r.update(ctx,
		func(j *models.Job) bool {
			return j.ServiceRequestID == requestID && j.Status == models.JobStatusPending && j.MechanicID == nil
		},
		func(j *models.Job) {
			j.Status = models.JobStatusScheduled
			j.MechanicID = cloneID(&mechanicID)
			j.UpdatedAt = at
		})
}

func (r *jobRepository) Transition(ctx context.Context, t interfaces.JobTransition) (bool, error) {
	return r.update(ctx,
		func(j *models.Job) bool {
			if j.ID != t.JobID || !containsStatus(t.From, j.Status) {
				return false
			}
			return t.MechanicID == nil || j.IsAssignedTo(*t.MechanicID)
		},
		func(j *models.Job) {
			j.Status = t.To
			j.UpdatedAt = t.At
			if t.To == models.JobStatusCompleted {
				j.CompletedAt = cloneTime(&t.At)
			}
		})
}

func (r *jobRepository) Rate(ctx context.Context, id, customerID primitive.ObjectID, rating int, comments string, at time.Time) (bool, error) {
	return r.update(ctx,
		func(j *models.Job) bool {
			return j.ID == id && j.CustomerID == customerID && j.Status == models.JobStatusCompleted && j.Rating == nil
		},
		func(j *models.Job) {
			value := rating
			j.Rating = &value
			j.Comments = comments
			j.UpdatedAt = at
		})
}

func (r *jobRepository) FindForMechanic(_ context.Context, id, mechanicID primitive.ObjectID, statuses []models.JobStatus) (*models.Job, error) {
	return r.findOne(func(j *models.Job) bool {
		return j.ID == id && j.IsAssignedTo(mechanicID) && containsStatus(statuses, j.Status)
	})
}

func (r *jobRepository) List(_ context.Context, query interfaces.JobQuery) ([]*models.Job, error) {
	jobs := r.filter(query)
	sortJobs(jobs, query.Sort)

	if query.Skip > 0 {
		if query.Skip >= int64(len(jobs)) {
			return nil, nil
		}
		jobs = jobs[query.Skip:]
	}
	if query.Limit > 0 && int64(len(jobs)) > query.Limit {
		jobs = jobs[:query.Limit]
	}
	return jobs, nil
}

func (r *jobRepository) Count(_ context.Context, query interfaces.JobQuery) (int64, error) {
	return int64(len(r.filter(query))), nil
}

func (r *jobRepository) AverageRating(_ context.Context, query interfaces.JobQuery) (float64, error) {
	query.RatedOnly = true
	jobs := r.filter(query)
	if len(jobs) == 0 {
		return 0, nil
	}

	total := 0
	for _, j := range jobs {
		total += *j.Rating
	}
	return float64(total) / float64(len(jobs)), nil
}

func (r *jobRepository) filter(query interfaces.JobQuery) []*models.Job {
	var jobs []*models.Job
	r.db.read(func() {
		for _, j := range r.db.jobs {
			if matchesJobQuery(j, query) {
				jobs = append(jobs, cloneJob(j))
			}
		}
	})
	return jobs
}

func matchesJobQuery(j *models.Job, q interfaces.JobQuery) bool {
	if q.CustomerID != nil && j.CustomerID != *q.CustomerID {
		return false
	}
	if q.MechanicID != nil && !j.IsAssignedTo(*q.MechanicID) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, j.Status) {
		return false
	}
	if q.StartingFrom != nil && j.StartTime.Before(*q.StartingFrom) {
		return false
	}
	if q.StartingTo != nil && !j.StartTime.Before(*q.StartingTo) {
		return false
	}
	if q.RatedOnly && j.Rating == nil {
		return false
	}
	return true
}

func sortJobs(jobs []*models.Job, by interfaces.JobSort) {
	var less func(a, b *models.Job) bool
	switch by {
	case interfaces.JobSortStartTimeAsc:
		less = func(a, b *models.Job) bool { return a.StartTime.Before(b.StartTime) }
	case interfaces.JobSortCompletedAtDesc:
		less = func(a, b *models.Job) bool {
			if a.CompletedAt == nil || b.CompletedAt == nil {
				return b.CompletedAt == nil && a.CompletedAt != nil
			}
			return a.CompletedAt.After(*b.CompletedAt)
		}
	case interfaces.JobSortCreatedAtDesc:
		less = func(a, b *models.Job) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(jobs, func(i, k int) bool { return less(jobs[i], jobs[k]) })
}

func (r *jobRepository) findOne(match func(*models.Job) bool) (*models.Job, error) {
	var job *models.Job
	r.db.read(func() {
		for _, j := range r.db.jobs {
			if match(j) {
				job = cloneJob(j)
				return
			}
		}
	})
	if job == nil {
		return nil, fmt.Errorf("job: %w", interfaces.ErrNotFound)
	}
	return job, nil
}

// update mutates the first job accepted by match.
func (r *jobRepository) update(ctx context.Context, match func(*models.Job) bool, mutate func(*models.Job)) (bool, error) {
	var matched bool
	err := r.db.write(ctx, func() (func(), error) {
		for id, stored := range r.db.jobs {
			if !match(stored) {
				continue
			}
			matched = true
			previous := cloneJob(stored)
			updated := cloneJob(stored)
			mutate(updated)
			r.db.jobs[id] = updated
			jobID := id
			return func() { r.db.jobs[jobID] = previous }, nil
		}
		return nil, nil
	})
	return matched, err
}
