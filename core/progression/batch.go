package progression

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
)

const DefaultWorkers = 4

// BatchReport sums up the evaluation of many enrollments.
type BatchReport struct {
	Evaluated          int               `json:"evaluated"`
	CertificatesIssued int               `json:"certificates_issued"`
	Completed          int               `json:"completed"`
	Failures           map[string]string `json:"failures,omitempty"` // {enrollmentID: error}
}

// EvaluateCourse evaluates every enrollment of a course, ie: after content was added or the gates changed.
func (svc *Service) EvaluateCourse(ctx context.Context, courseID string, workers int) (BatchReport, error) {
	if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
		return BatchReport{}, errors.Wrap(err, "getting course")
	}
	enrollments, err := svc.courses.QueryEnrollments(ctx, courseID)
	if err != nil {
		return BatchReport{}, errors.Wrap(err, "querying enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	for _, enr := range enrollments {
		ids = append(ids, enr.ID)
	}
	return svc.EvaluateMany(ctx, ids, workers), nil
}

// EvaluateMany evaluates the enrollments with at most `workers` evaluations at a time.
// A failed evaluation does not stop the others; it is reported and can be retried.
func (svc *Service) EvaluateMany(ctx context.Context, enrollmentIDs []string, workers int) BatchReport {
	if workers < 1 {
		workers = DefaultWorkers
	}
	report := BatchReport{Failures: make(map[string]string)}
	var mu sync.Mutex

	swg := sizedwaitgroup.New(workers)
	for _, id := range enrollmentIDs {
		if err := swg.AddWithContext(ctx); err != nil {
			mu.Lock()
			report.Failures[id] = err.Error()
			mu.Unlock()
			continue
		}

		go func(id string) {
			defer swg.Done()
			res, err := svc.Evaluate(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				svc.logger.Error(fmt.Sprintf("evaluating enrollment %s: %v", id, err), err)
				report.Failures[id] = err.Error()
				return
			}
			report.Evaluated++
			if res.CertificateIssued {
				report.CertificatesIssued++
			}
			if res.State == StateCertified || res.State == StateCompleted {
				report.Completed++
			}
		}(id)
	}
	swg.Wait()

	if len(report.Failures) == 0 {
		report.Failures = nil
	}
	return report
}
