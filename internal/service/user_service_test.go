package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend_boilerplate/internal/cache"
	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func newUserFixture(users ...*models.User) (*UserService, *fakeUserRepo, *memRedis, *fakeMailer) {
	repo := newFakeUserRepo(users...)
	rdb := newMemRedis()
	mail := newFakeMailer()
	return NewUserService(repo, cache.NewUserCache(rdb, 10*time.Minute), mail), repo, rdb, mail
}

func TestUserService_Register(t *testing.T) {
	svc, repo, _, mail := newUserFixture()

	created, err := svc.Register(context.Background(), &models.User{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
	}, "correct-horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("no ID assigned")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if len(mail.newAccount) != 1 || len(mail.welcome) != 1 {
		t.Fatalf("notification mail missing: %+v", mail)
	}
}

func TestUserService_Register_Failures(t *testing.T) {
	t.Run("blank password", func(t *testing.T) {
		svc, _, _, _ := newUserFixture()
		_, err := svc.Register(context.Background(), &models.User{Username: "alice"}, "   ")
		if !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("err=%v, want ErrInvalidPassword", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		svc, repo, _, mail := newUserFixture()
		repo.createErr = repository.ErrDuplicate
		_, err := svc.Register(context.Background(), &models.User{Username: "alice"}, "correct-horse")
		if !errors.Is(err, ErrUserAlreadyExists) {
			t.Fatalf("err=%v, want ErrUserAlreadyExists", err)
		}
		if len(mail.newAccount) != 0 {
			t.Fatal("mail sent for failed registration")
		}
	})
}

func TestUserService_GetByID_CacheReadThrough(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	svc, repo, rdb, _ := newUserFixture(u)
	ctx := context.Background()

	got, err := svc.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if _, cached := rdb.strings["usercache:"+u.ID.String()]; !cached {
		t.Fatal("lookup not cached")
	}

	// repeat lookups are served from the cache, not the repository
	repo.getErr = errors.New("db down")
	got, err = svc.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("cached GetByID: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected cached user: %+v", got)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err=%v, want ErrUserNotFound", err)
	}
}

func TestUserService_List_ClampsPagination(t *testing.T) {
	users := make([]*models.User, 3)
	for i := range users {
		users[i] = &models.User{ID: uuid.New(), Username: string(rune('a' + i))}
	}
	svc, repo, _, _ := newUserFixture(users...)
	ctx := context.Background()

	cases := []struct {
		name                string
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{name: "negative skip", skip: -5, limit: 10, wantSkip: 0, wantLimit: 10},
		{name: "zero limit uses default", skip: 0, limit: 0, wantSkip: 0, wantLimit: 100},
		{name: "oversized limit capped", skip: 0, limit: 5000, wantSkip: 0, wantLimit: 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.List(ctx, tc.skip, tc.limit); err != nil {
				t.Fatalf("List: %v", err)
			}
			if repo.lastListOffset != tc.wantSkip || repo.lastListLimit != tc.wantLimit {
				t.Fatalf("repo saw offset=%d limit=%d, want %d/%d",
					repo.lastListOffset, repo.lastListLimit, tc.wantSkip, tc.wantLimit)
			}
		})
	}

	got, err := svc.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
}

func TestUserService_Update(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	svc, repo, rdb, _ := newUserFixture(u)
	ctx := context.Background()

	// warm the cache, then update
	if _, err := svc.GetByID(ctx, u.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	password := "replacement-pw"
	if _, err := svc.Update(ctx, u.ID, models.UserUpdate{Password: &password}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.lastUpdate.Password == nil || *repo.lastUpdate.Password == password {
		t.Fatal("password was not hashed before storage")
	}
	if _, cached := rdb.strings["usercache:"+u.ID.String()]; cached {
		t.Fatal("cache not invalidated after update")
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	email := "x@example.com"
	if _, err := svc.Update(context.Background(), uuid.New(), models.UserUpdate{Email: &email}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err=%v, want ErrUserNotFound", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	svc, _, rdb, _ := newUserFixture(u)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, u.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, cached := rdb.strings["usercache:"+u.ID.String()]; cached {
		t.Fatal("cache not invalidated after delete")
	}
	if err := svc.Delete(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete err=%v, want ErrUserNotFound", err)
	}
}

func TestUserService_EnsureSuperuser(t *testing.T) {
	su := config.SuperuserConfig{
		Username:  "admin",
		Email:     "admin@example.com",
		Password:  "admin-password",
		FirstName: "Admin",
		LastName:  "Root",
	}

	t.Run("seeds once", func(t *testing.T) {
		svc, repo, _, _ := newUserFixture()
		ctx := context.Background()

		if err := svc.EnsureSuperuser(ctx, su); err != nil {
			t.Fatalf("EnsureSuperuser: %v", err)
		}
		if len(repo.created) != 1 || !repo.created[0].IsSuperuser {
			t.Fatalf("superuser not created: %+v", repo.created)
		}

		// idempotent on restart
		if err := svc.EnsureSuperuser(ctx, su); err != nil {
			t.Fatalf("second EnsureSuperuser: %v", err)
		}
		if len(repo.created) != 1 {
			t.Fatalf("superuser seeded twice: %d", len(repo.created))
		}
	})

	t.Run("blank config disables seeding", func(t *testing.T) {
		svc, repo, _, _ := newUserFixture()
		if err := svc.EnsureSuperuser(context.Background(), config.SuperuserConfig{}); err != nil {
			t.Fatalf("EnsureSuperuser: %v", err)
		}
		if len(repo.created) != 0 {
			t.Fatal("user created from blank config")
		}
	})

	t.Run("tolerates concurrent seed", func(t *testing.T) {
		svc, repo, _, _ := newUserFixture()
		repo.createErr = repository.ErrDuplicate
		if err := svc.EnsureSuperuser(context.Background(), su); err != nil {
			t.Fatalf("EnsureSuperuser: %v", err)
		}
	})
}
