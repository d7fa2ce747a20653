package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kazimoto/shule/core/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if filter.ClassName != "" && s.ClassName != filter.ClassName {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(s.Name), search) &&
				!strings.Contains(strings.ToLower(s.Email), search) {
				continue
			}
		}
		matches = append(matches, *s)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.Name = s.Name
	orig.Email = s.Email
	orig.ClassName = s.ClassName
	orig.GuardianEmail = s.GuardianEmail
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	return nil
}
