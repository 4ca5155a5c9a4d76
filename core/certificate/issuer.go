package certificate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/course"
)

const (
	maxNumberAttempts = 3
	notifyTimeout     = 30 * time.Second
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("certificate")
	// ErrExists is returned by Repository.CreateCertificate when the enrollment already has a certificate.
	ErrExists = errors.New("certificate already exists for this enrollment")
	// ErrNumberTaken is returned by Repository.CreateCertificate when the number is already used.
	ErrNumberTaken = errors.New("certificate number already taken")
)

type (
	Repository interface {
		GetCertificate(ctx context.Context, enrollmentID string) (Certificate, error)
		GetCertificateByNumber(ctx context.Context, number string) (Certificate, error)
		// CreateCertificate inserts cert atomically, returning ErrExists or ErrNumberTaken on conflicts.
		CreateCertificate(ctx context.Context, cert Certificate) (Certificate, error)
	}

	// Notifier is told about newly issued certificates.
	Notifier interface {
		CertificateIssued(ctx context.Context, cert Certificate, crs course.Course) error
	}

	Issuer struct {
		repo     Repository
		numbers  *NumberGenerator
		clock    core.Clock
		notifier Notifier
		logger   core.Logger
		pending  sync.WaitGroup // notifications
	}
)

func NewIssuer(repo Repository, numbers *NumberGenerator, clock core.Clock, notifier Notifier, logger core.Logger) *Issuer {
	return &Issuer{
		repo:     repo,
		numbers:  numbers,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// IssueIfEligible issues the enrollment's certificate when the course gates are met and certificates are enabled.
// It returns the enrollment's certificate (if any) and whether this call created it.
// Concurrent calls for the same enrollment all succeed; only one creates the certificate and notifies.
func (iss *Issuer) IssueIfEligible(ctx context.Context, enr course.Enrollment, crs course.Course, gateMet bool) (*Certificate, bool, error) {
	if !gateMet || !crs.CertificateEnabled {
		return nil, false, nil
	}

	existing, err := iss.repo.GetCertificate(ctx, enr.ID)
	if err == nil {
		return &existing, false, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return nil, false, errors.Wrap(err, "getting certificate")
	}

	for attempt := 1; ; attempt++ {
		number, err := iss.numbers.New()
		if err != nil {
			return nil, false, errors.Wrap(err, "generating certificate number")
		}

		cert, err := iss.repo.CreateCertificate(ctx, Certificate{
			EnrollmentID: enr.ID,
			CourseID:     crs.ID,
			LearnerID:    enr.LearnerID,
			Number:       number,
			IssuedAt:     iss.clock.Now(),
		})
		switch errors.Cause(err) {
		case nil:
			if iss.notifier != nil {
				iss.pending.Add(1)
				go func() {
					defer iss.pending.Done()
					iss.notify(cert, crs)
				}()
			}
			return &cert, true, nil
		case ErrExists: // lost the race
			existing, err = iss.repo.GetCertificate(ctx, enr.ID)
			if err != nil {
				return nil, false, errors.Wrap(err, "getting existing certificate")
			}
			return &existing, false, nil
		case ErrNumberTaken:
			if attempt < maxNumberAttempts {
				iss.logger.Warn(fmt.Sprintf("certificate number %s taken, retrying", number))
				continue
			}
			return nil, false, errors.Wrapf(err, "creating certificate after %d attempts", attempt)
		default:
			return nil, false, errors.Wrap(err, "creating certificate")
		}
	}
}

// notify runs in the background after the certificate is committed: failures are logged only.
func (iss *Issuer) notify(cert Certificate, crs course.Course) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := iss.notifier.CertificateIssued(ctx, cert, crs); err != nil {
		iss.logger.Error(
			fmt.Sprintf("notifying certificate %s: %v", cert.Number, err),
			err,
			map[string]interface{}{"enrollment_id": cert.EnrollmentID},
		)
	}
}

// Wait blocks until background notifications are done.
func (iss *Issuer) Wait() {
	iss.pending.Wait()
}

// Get returns the enrollment's certificate.
func (iss *Issuer) Get(ctx context.Context, enrollmentID string) (Certificate, error) {
	return iss.repo.GetCertificate(ctx, enrollmentID)
}

// Lookup finds a certificate by its number. Malformed or forged numbers are rejected without hitting the repository.
func (iss *Issuer) Lookup(ctx context.Context, number string) (Certificate, error) {
	number = Normalize(number)
	if !iss.numbers.Valid(number) {
		return Certificate{}, ErrNotFound
	}
	return iss.repo.GetCertificateByNumber(ctx, number)
}
