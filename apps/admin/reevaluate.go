package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/trezcool/cheti/core/progression"
)

func (cli *commandLine) reevaluate(enrollmentID, courseID string, workers int) error {
	ctx := context.Background()

	var report progression.BatchReport
	if courseID != "" {
		var err error
		if report, err = cli.progSvc.EvaluateCourse(ctx, courseID, workers); err != nil {
			return err
		}
	} else {
		res, err := cli.progSvc.Evaluate(ctx, enrollmentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "enrollment %s: %s (%d%%)\n", res.EnrollmentID, res.State, res.Progress.Percent)
		report.Evaluated = 1
		if res.CertificateIssued {
			report.CertificatesIssued = 1
		}
		if res.State == progression.StateCertified || res.State == progression.StateCompleted {
			report.Completed = 1
		}
	}

	fmt.Fprintf(cli.out, "evaluated: %d, certificates issued: %d, completed: %d, failed: %d\n",
		report.Evaluated, report.CertificatesIssued, report.Completed, len(report.Failures))

	ids := make([]string, 0, len(report.Failures))
	for id := range report.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(cli.out, "  %s: %s\n", id, report.Failures[id])
	}
	return nil
}
