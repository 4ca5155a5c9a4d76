package user

import (
	"strings"
	"time"

	"github.com/trezcool/cheti/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Instructor
	RoleInstructor = "instructor:"

	// Mentor
	RoleMentor = "mentor:"

	// Learner
	RoleLearner = "learner:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminOwner}
	InstructorRoles = []string{RoleInstructor}
	MentorRoles     = []string{RoleMentor}
	LearnerRoles    = []string{RoleLearner}
	AllRoles        = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, InstructorRoles...)
	all = append(all, MentorRoles...)
	all = append(all, LearnerRoles...)
	return all
}

// User is read by the progression core: it never manages accounts.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool      { return u.RoleStartsWith(RoleAdmin) }
func (u User) IsInstructor() bool { return u.RoleStartsWith(RoleInstructor) }
func (u User) IsMentor() bool     { return u.RoleStartsWith(RoleMentor) }
func (u User) IsLearner() bool    { return u.RoleStartsWith(RoleLearner) }

// Mentorship links a mentor to a learner, for one course or, when CourseID is empty, for all of them.
type Mentorship struct {
	MentorID  string
	LearnerID string
	CourseID  string
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name  string   `json:"name" validate:"required,notblank"`
	Email string   `json:"email" validate:"required,email"`
	Roles []string `json:"roles" validate:"omitempty,dive,oneof=admin: admin:owner instructor: mentor: learner:"`
}

func (nu *NewUser) clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}
