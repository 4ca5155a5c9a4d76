package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cheti/core/certificate"
	"github.com/trezcool/cheti/core/course"
	"github.com/trezcool/cheti/core/progress"
	"github.com/trezcool/cheti/core/progression"
	"github.com/trezcool/cheti/core/user"
	"github.com/trezcool/cheti/tests"
)

func TestHome(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Cheti API!", rec.Body.String())
}

func TestProgressionAPI_EnrollmentAccess(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	learner := newUser(t, "Ada", user.RoleLearner)
	stranger := newUser(t, "Eve", user.RoleLearner)
	admin := newUser(t, "Admin", user.RoleAdmin)
	_, _, enr := newCourse(t, course.Course{CertificateEnabled: true}, owner, learner, 2)
	path := "/v1/enrollments/" + enr.ID

	tests := []httpTest{
		{"missing token", http.MethodGet, path, nil, "", http.StatusUnauthorized, marshallObj(t, errMissingToken)},
		{"stranger", http.MethodGet, path, nil, getToken(t, stranger), http.StatusNotFound, marshallObj(t, errNotFound)},
		{"unknown enrollment", http.MethodGet, "/v1/enrollments/nope", nil, getToken(t, learner), http.StatusNotFound, marshallObj(t, errNotFound)},
		{"learner", http.MethodGet, path, nil, getToken(t, learner), http.StatusOK, nil},
		{"owner", http.MethodGet, path, nil, getToken(t, owner), http.StatusOK, nil},
		{"admin", http.MethodGet, path, nil, getToken(t, admin), http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}
}

func TestProgressionAPI_Overview(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	learner := newUser(t, "Ada", user.RoleLearner)
	_, items, enr := newCourse(t, course.Course{CertificateEnabled: true}, owner, learner, 3)

	tt := httpTest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/v1/enrollments/%s/items/%s/complete", enr.ID, items[0].ID),
		token:  getToken(t, learner),
	}
	require.Equal(t, http.StatusOK, serve(tt).Code)

	tt = httpTest{method: http.MethodGet, path: "/v1/enrollments/" + enr.ID, token: getToken(t, learner)}
	rec := serve(tt)
	require.Equal(t, http.StatusOK, rec.Code)

	var ov progression.Overview
	unmarshallObj(t, rec.Body.Bytes(), &ov)
	assert.Equal(t, progression.StateInProgress, ov.State)
	assert.Equal(t, progress.Progress{Percent: 33, CompletedCount: 1, TotalCount: 3}, ov.Progress)
	assert.Equal(t, items[1].ID, ov.ResumeItemID)
	require.Len(t, ov.Sections, 1)
	require.Len(t, ov.Sections[0].Items, 3)
	assert.True(t, ov.Sections[0].Items[0].Completed)
	assert.False(t, ov.Sections[0].Items[1].Completed)
	assert.Nil(t, ov.Certificate)
}

func TestProgressionAPI_CompleteItem(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	learner := newUser(t, "Ada", user.RoleLearner)
	weekly := course.DripPolicy{Enabled: true, ScheduleType: course.ScheduleWeek, ReleaseDayOfWeek: time.Monday}
	crs, items, enr := newCourse(t, course.Course{CertificateEnabled: true, Drip: weekly}, owner, learner, 2)
	locked := testutil.CreateItem(t, crsRepo, items[0].SectionID, "Later", 5, 30)
	pathFmt := "/v1/enrollments/%s/items/%s/complete"

	inProgress := progression.Result{
		EnrollmentID: enr.ID,
		State:        progression.StateInProgress,
		Progress:     progress.Progress{Percent: 33, CompletedCount: 1, TotalCount: 3},
	}

	tests := []httpTest{
		{
			name:     "owner cannot complete",
			method:   http.MethodPost,
			path:     fmt.Sprintf(pathFmt, enr.ID, items[0].ID),
			token:    getToken(t, owner),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errForbidden),
		},
		{
			name:     "unknown item",
			method:   http.MethodPost,
			path:     fmt.Sprintf(pathFmt, enr.ID, "nope"),
			token:    getToken(t, learner),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"content_item_id":"this item is not part of the enrolled course"}`),
		},
		{
			name:     "locked item",
			method:   http.MethodPost,
			path:     fmt.Sprintf(pathFmt, enr.ID, locked.ID),
			token:    getToken(t, learner),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"content_item_id":"this item is not available yet"}`),
		},
		{
			name:     "learner",
			method:   http.MethodPost,
			path:     fmt.Sprintf(pathFmt, enr.ID, items[0].ID),
			token:    getToken(t, learner),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, inProgress),
		},
		{
			name:     "learner again",
			method:   http.MethodPost,
			path:     fmt.Sprintf(pathFmt, enr.ID, items[0].ID),
			token:    getToken(t, learner),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, inProgress),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}

	enrollment, err := crsRepo.GetEnrollment(ctxBg, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, enrollment.ProgressPercent)
	assert.Equal(t, crs.ID, enrollment.CourseID)
}

func TestProgressionAPI_Assessments(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	learner := newUser(t, "Ada", user.RoleLearner)
	_, items, enr := newCourse(t, course.Course{CertificateEnabled: true, HasQuiz: true, HasAssignment: true}, owner, learner, 1)
	quizPath := "/v1/enrollments/" + enr.ID + "/quiz"
	assignmentPath := "/v1/enrollments/" + enr.ID + "/assignment"

	tests := []httpTest{
		{"learner cannot grade quiz", http.MethodPut, quizPath, []byte(`{"passed":true}`), getToken(t, learner), http.StatusForbidden, marshallObj(t, errForbidden)},
		{"quiz missing outcome", http.MethodPut, quizPath, []byte(`{}`), getToken(t, owner), http.StatusBadRequest, []byte(`{"passed":"this field is required"}`)},
		{"learner cannot review assignment", http.MethodPut, assignmentPath, []byte(`{"status":"approved"}`), getToken(t, learner), http.StatusForbidden, marshallObj(t, errForbidden)},
		{"assignment invalid status", http.MethodPut, assignmentPath, []byte(`{"status":"great"}`), getToken(t, owner), http.StatusBadRequest, []byte(`{"status":"status must be one of [pending approved rejected]"}`)},
		{
			name:     "quiz passed before lessons",
			method:   http.MethodPut,
			path:     quizPath,
			body:     []byte(`{"passed":true}`),
			token:    getToken(t, owner),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, progression.Result{
				EnrollmentID: enr.ID,
				State:        progression.StateInProgress,
				Progress:     progress.Progress{TotalCount: 1},
			}),
		},
		{
			name:     "lesson completed with assignment missing",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/enrollments/%s/items/%s/complete", enr.ID, items[0].ID),
			token:    getToken(t, learner),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, progression.Result{
				EnrollmentID: enr.ID,
				State:        progression.StateAssessmentsPending,
				Progress:     progress.Progress{Percent: 100, CompletedCount: 1, TotalCount: 1},
			}),
		},
		{
			name:     "assignment rejected",
			method:   http.MethodPut,
			path:     assignmentPath,
			body:     []byte(`{"status":"Rejected"}`),
			token:    getToken(t, owner),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, progression.Result{
				EnrollmentID: enr.ID,
				State:        progression.StateAssessmentsPending,
				Progress:     progress.Progress{Percent: 100, CompletedCount: 1, TotalCount: 1},
			}),
		},
		{"certificate before approval", http.MethodGet, "/v1/enrollments/" + enr.ID + "/certificate", nil, getToken(t, learner), http.StatusNotFound, []byte(`{"error":"certificate not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}

	// approval issues the certificate
	rec := serve(httpTest{method: http.MethodPut, path: assignmentPath, body: []byte(`{"status":"approved"}`), token: getToken(t, owner)})
	require.Equal(t, http.StatusOK, rec.Code)

	var res progression.Result
	unmarshallObj(t, rec.Body.Bytes(), &res)
	assert.Equal(t, progression.StateCertified, res.State)
	assert.True(t, res.CertificateIssued)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, enr.ID, res.Certificate.EnrollmentID)

	// the certificate is stable
	rec = serve(httpTest{method: http.MethodGet, path: "/v1/enrollments/" + enr.ID + "/certificate", token: getToken(t, learner)})
	require.Equal(t, http.StatusOK, rec.Code)
	var cert certificate.Certificate
	unmarshallObj(t, rec.Body.Bytes(), &cert)
	assert.Equal(t, res.Certificate.Number, cert.Number)

	// re-evaluation issues nothing
	rec = serve(httpTest{method: http.MethodPost, path: "/v1/enrollments/" + enr.ID + "/evaluate", token: getToken(t, learner)})
	require.Equal(t, http.StatusOK, rec.Code)
	res = progression.Result{}
	unmarshallObj(t, rec.Body.Bytes(), &res)
	assert.Equal(t, progression.StateCertified, res.State)
	assert.False(t, res.CertificateIssued)
	assert.Equal(t, cert.Number, res.Certificate.Number)

	// public verification
	tests = []httpTest{
		{
			name:     "verify",
			method:   http.MethodGet,
			path:     "/v1/certificates/" + cert.Number,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, certificate.Verification{
				Number:      cert.Number,
				LearnerName: "Ada",
				CourseTitle: "Go 101",
				IssuedAt:    cert.IssuedAt,
			}),
		},
		{"verify unknown", http.MethodGet, "/v1/certificates/CHT-BOGUS", nil, "", http.StatusNotFound, []byte(`{"error":"certificate not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}
}

func TestProgressionAPI_Preview(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	other := newUser(t, "Other", user.RoleInstructor)
	learner := newUser(t, "Ada", user.RoleLearner)
	crs, _, _ := newCourse(t, course.Course{}, owner, learner, 2)
	path := "/v1/courses/" + crs.ID + "/preview"

	tests := []httpTest{
		{"missing token", http.MethodGet, path, nil, "", http.StatusUnauthorized, marshallObj(t, errMissingToken)},
		{"other instructor", http.MethodGet, path, nil, getToken(t, other), http.StatusForbidden, []byte(`{"error":"only the course owner can preview this course"}`)},
		{"unknown course", http.MethodGet, "/v1/courses/nope/preview", nil, getToken(t, owner), http.StatusNotFound, []byte(`{"error":"course not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}

	rec := serve(httpTest{method: http.MethodGet, path: path, token: getToken(t, owner)})
	require.Equal(t, http.StatusOK, rec.Code)
	var ov progression.Overview
	unmarshallObj(t, rec.Body.Bytes(), &ov)
	assert.Nil(t, ov.Enrollment)
	require.Len(t, ov.Sections, 1)
	for _, it := range ov.Sections[0].Items {
		assert.True(t, it.Available)
	}
}

func TestProgressionAPI_EvaluateCourse(t *testing.T) {
	owner := newUser(t, "Owner", user.RoleInstructor)
	admin := newUser(t, "Admin", user.RoleAdmin)
	learner := newUser(t, "Ada", user.RoleLearner)
	crs, _, _ := newCourse(t, course.Course{CertificateEnabled: true}, owner, learner, 1)
	path := "/v1/courses/" + crs.ID + "/evaluate"

	tests := []httpTest{
		{"owner is not admin", http.MethodPost, path, []byte(`{}`), getToken(t, owner), http.StatusForbidden, marshallObj(t, errForbidden)},
		{"too many workers", http.MethodPost, path, []byte(`{"workers":100}`), getToken(t, admin), http.StatusBadRequest, []byte(`{"workers":"workers must be 32 or less"}`)},
		{"unknown course", http.MethodPost, "/v1/courses/nope/evaluate", []byte(`{}`), getToken(t, admin), http.StatusNotFound, []byte(`{"error":"course not found"}`)},
		{
			name:     "admin",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"workers":2}`),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, progression.BatchReport{Evaluated: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}
}
