package user

import (
	"context"
	"testing"

	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	created, err := repo.Create(dbc, &types.User{
		Email:    "userrepo@example.com",
		Username: "userrepo",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Role != "user" {
		t.Fatalf("Create: expected default role user, got %q", created.Role)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Email != created.Email {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	got, err = repo.GetByEmail(dbc, "  UserRepo@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByEmail: unexpected result: %+v", got)
	}

	missing, err := repo.GetByEmail(dbc, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetByEmail(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByEmail(missing): expected nil, got %+v", missing)
	}

	exists, err := repo.EmailExists(dbc, created.Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.UsernameExists(dbc, "someone-else")
	if err != nil || exists {
		t.Fatalf("UsernameExists: exists=%v err=%v", exists, err)
	}

	second, err := repo.Create(dbc, &types.User{Email: "second@example.com", Username: "second", Password: "pw"})
	if err != nil {
		t.Fatalf("Create(second): %v", err)
	}
	if err := repo.SetTotalPoints(dbc, second.ID, 40); err != nil {
		t.Fatalf("SetTotalPoints: %v", err)
	}

	top, err := repo.ListTopByPoints(dbc, 10)
	if err != nil {
		t.Fatalf("ListTopByPoints: %v", err)
	}
	if len(top) != 2 || top[0].ID != second.ID || top[0].TotalPoints != 40 {
		t.Fatalf("ListTopByPoints: unexpected order: %+v", top)
	}
}

func TestUserRepoRejectsDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := repo.Create(dbc, &types.User{Email: "dup@example.com", Username: "a", Password: "pw"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, &types.User{Email: "dup@example.com", Username: "b", Password: "pw"}); err == nil {
		t.Fatalf("Create: expected unique violation")
	}
}
