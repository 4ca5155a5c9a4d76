package dummydb

import (
	"context"

	"github.com/trezcool/cheti/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) GetCertificate(_ context.Context, enrollmentID string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.table[enrollmentID]; ok {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateByNumber(_ context.Context, number string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enrID, ok := repo.db.byNumber[number]; ok {
		return *repo.db.table[enrID], nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) CreateCertificate(_ context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cert.EnrollmentID]; ok {
		return certificate.Certificate{}, certificate.ErrExists
	}
	if _, ok := repo.db.byNumber[cert.Number]; ok {
		return certificate.Certificate{}, certificate.ErrNumberTaken
	}
	repo.db.table[cert.EnrollmentID] = &cert
	repo.db.byNumber[cert.Number] = cert.EnrollmentID
	return cert, nil
}
