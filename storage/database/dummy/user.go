package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/cheti/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CreateMentorship(_ context.Context, m user.Mentorship) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.mentorships {
		if existing == m {
			return nil
		}
	}
	repo.db.mentorships = append(repo.db.mentorships, m)
	return nil
}

func (repo *userRepository) QueryMentors(_ context.Context, learnerID, courseID string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[string]bool)
	mentors := make([]user.User, 0)
	for _, m := range repo.db.mentorships {
		if m.LearnerID != learnerID || (m.CourseID != "" && m.CourseID != courseID) || seen[m.MentorID] {
			continue
		}
		if usr, ok := repo.db.table[m.MentorID]; ok && usr.IsActive {
			mentors = append(mentors, *usr)
			seen[m.MentorID] = true
		}
	}
	sort.Slice(mentors, func(i, j int) bool { return mentors[i].Name < mentors[j].Name })
	return mentors, nil
}
