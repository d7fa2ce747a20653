package sqlxrepos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := insertDoc(ctx, repo.db, studentsTable, s.ID, s); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var s student.Student
	if err := getDoc(ctx, repo.db, studentsTable, id, &s, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	where := "WHERE 1 = 1"
	args := make([]interface{}, 0, 2)
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		where += fmt.Sprintf(" AND doc ->> 'class_name' = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (doc ->> 'name' ILIKE $%d OR doc ->> 'email' ILIKE $%d)", len(args), len(args))
	}

	students := make([]student.Student, 0)
	err := selectDocs(ctx, repo.db,
		"SELECT doc FROM "+studentsTable+" "+where+" ORDER BY doc ->> 'name'",
		func(raw []byte) error {
			var s student.Student
			if err := json.Unmarshal(raw, &s); err != nil {
				return errors.Wrap(err, "decoding student")
			}
			students = append(students, s)
			return nil
		},
		args...,
	)
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	orig, err := repo.GetStudentByID(ctx, s.ID)
	if err != nil {
		return student.Student{}, err
	}
	orig.Name = s.Name
	orig.Email = s.Email
	orig.ClassName = s.ClassName
	orig.GuardianEmail = s.GuardianEmail
	orig.UpdatedAt = time.Now().UTC()

	if err = upsertDoc(ctx, repo.db, studentsTable, orig.ID, orig); err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return orig, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM "+studentsTable+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}
