package student_test

import (
	"context"
	"testing"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
	inmemdb "github.com/kazimoto/shule/storage/database/inmem"
	testutil "github.com/kazimoto/shule/tests"
)

func setup(t *testing.T) *student.Service {
	t.Helper()
	testutil.InitConf()

	db := inmemdb.Open()
	recoverySvc := recovery.NewService(
		inmemdb.NewRecoveryRepository(db),
		inmemdb.NewDocumentStore(db),
		profile.NewService(inmemdb.NewProfileRepository(db)),
	)
	return student.NewService(inmemdb.NewStudentRepository(db), recoverySvc)
}

func TestService_CreateAndFilter(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	validate, _ := core.NewValidator()

	ns := student.NewStudent{Name: "  Neema Musa ", Email: "NEEMA@Test.CD", ClassName: "4B"}
	if err := ns.Validate(validate); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if ns.Name != "Neema Musa" || ns.Email != "neema@test.cd" {
		t.Errorf("Validate() did not clean fields: %+v", ns)
	}

	if err := (&student.NewStudent{Email: "x@test.cd"}).Validate(validate); err == nil {
		t.Error("Validate() accepted a nameless student")
	}
	if err := (&student.NewStudent{Name: "X", Email: "not-an-email"}).Validate(validate); err == nil {
		t.Error("Validate() accepted a malformed email")
	}

	s, err := svc.Create(ctx, ns)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if s.ID == "" {
		t.Error("Create() assigned no id")
	}

	if _, err = svc.Create(ctx, student.NewStudent{Name: "Omar K", ClassName: "5A"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []struct {
		name   string
		filter student.QueryFilter
		want   int
	}{
		{name: "all", want: 2},
		{name: "by class", filter: student.QueryFilter{ClassName: "4B"}, want: 1},
		{name: "search name", filter: student.QueryFilter{Search: "neema"}, want: 1},
		{name: "search email", filter: student.QueryFilter{Search: "test.cd"}, want: 1},
		{name: "no match", filter: student.QueryFilter{Search: "zzz"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Filter() failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Filter() returned %d students, want %d", len(got), tt.want)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	validate, _ := core.NewValidator()

	s, err := svc.Create(ctx, student.NewStudent{Name: "Asha B", Email: "asha@test.cd", ClassName: "4B"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// empty fields keep their current value
	us := student.UpdateStudent{ClassName: "5A"}
	if err = us.Validate(s, validate); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	got, err := svc.Update(ctx, s.ID, us)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.ClassName != "5A" {
		t.Errorf("Update() ClassName = %q, want 5A", got.ClassName)
	}
	if got.Name != s.Name || got.Email != s.Email {
		t.Errorf("Update() clobbered untouched fields: %+v", got)
	}
}
