package certificate

import "time"

// Certificate is issued at most once per enrollment and is never updated.
type Certificate struct {
	EnrollmentID string    `json:"enrollment_id"`
	CourseID     string    `json:"course_id"`
	LearnerID    string    `json:"learner_id"`
	Number       string    `json:"number"`
	IssuedAt     time.Time `json:"issued_at"` // UTC
}

// Verification is the public view of a certificate.
type Verification struct {
	Number      string    `json:"number"`
	LearnerName string    `json:"learner_name"`
	CourseTitle string    `json:"course_title"`
	IssuedAt    time.Time `json:"issued_at"`
}
