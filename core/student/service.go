package student

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/recovery"
)

var (
	// errors
	ErrNotFound = core.NewError(core.KindNotFound, "student/not-found", "student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// FilterStudents applies AND on available QueryFilter fields;
		// Search matches name or email case-insensitively.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo        Repository
		recoverySvc *recovery.Service
	}
)

func NewService(repo Repository, recoverySvc *recovery.Service) *Service {
	return &Service{repo: repo, recoverySvc: recoverySvc}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		ID:            uuid.New().String(),
		Name:          ns.Name,
		Email:         ns.Email,
		ClassName:     ns.ClassName,
		GuardianEmail: ns.GuardianEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s := Student{
		ID:            id,
		Name:          us.Name,
		Email:         us.Email,
		ClassName:     us.ClassName,
		GuardianEmail: us.GuardianEmail,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, s)
}

// Delete is a soft delete: the document is snapshotted into the recovery
// store before removal so a super admin can restore it later.
func (svc *Service) Delete(ctx context.Context, id, actorID, actorEmail string) error {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return err
	}

	snapshot, err := toSnapshot(s)
	if err != nil {
		return errors.Wrap(err, "snapshotting student")
	}
	if _, err = svc.recoverySvc.Record(ctx, Collection, s.ID, snapshot, actorID, actorEmail); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, s.ID)
}

// toSnapshot captures the document's fields verbatim, as the recovery store
// stores and restores them.
func toSnapshot(s Student) (map[string]interface{}, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]interface{})
	if err = json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
