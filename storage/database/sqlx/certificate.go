package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
	"github.com/trezcool/cheti/core/certificate"
)

var certificateColumns = []string{"enrollment_id", "course_id", "learner_id", "number", "issued_at"}

type certificateRow struct {
	EnrollmentID string    `db:"enrollment_id"`
	CourseID     string    `db:"course_id"`
	LearnerID    string    `db:"learner_id"`
	Number       string    `db:"number"`
	IssuedAt     time.Time `db:"issued_at"`
}

func (r certificateRow) certificate() certificate.Certificate {
	return certificate.Certificate{
		EnrollmentID: r.EnrollmentID,
		CourseID:     r.CourseID,
		LearnerID:    r.LearnerID,
		Number:       r.Number,
		IssuedAt:     r.IssuedAt.UTC(),
	}
}

type certificateRepository struct {
	db core.DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db core.DB) certificate.Repository {
	return &certificateRepository{db: db}
}

func (repo *certificateRepository) getCertificate(ctx context.Context, where sq.Eq) (certificate.Certificate, error) {
	var row certificateRow
	err := get(ctx, repo.db, &row, psql.Select(certificateColumns...).From("certificate").Where(where))
	if err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting certificate")
	}
	return row.certificate(), nil
}

func (repo *certificateRepository) GetCertificate(ctx context.Context, enrollmentID string) (certificate.Certificate, error) {
	return repo.getCertificate(ctx, sq.Eq{"enrollment_id": enrollmentID})
}

func (repo *certificateRepository) GetCertificateByNumber(ctx context.Context, number string) (certificate.Certificate, error) {
	return repo.getCertificate(ctx, sq.Eq{"number": number})
}

// CreateCertificate relies on the certificate_enrollment_key constraint: of concurrent inserts, one commits.
func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	cert.IssuedAt = cert.IssuedAt.UTC()
	_, err := exec(ctx, repo.db, psql.Insert("certificate").
		Columns(certificateColumns...).
		Values(cert.EnrollmentID, cert.CourseID, cert.LearnerID, cert.Number, cert.IssuedAt))
	switch {
	case err == nil:
		return cert, nil
	case isViolation(err, uniqueViolation, "certificate_enrollment_key"):
		return certificate.Certificate{}, certificate.ErrExists
	case isViolation(err, uniqueViolation, "certificate_number_key"):
		return certificate.Certificate{}, certificate.ErrNumberTaken
	default:
		return certificate.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
}
