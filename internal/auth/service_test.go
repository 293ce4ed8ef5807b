package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

type fakeRepo struct {
	nextID        int64
	users         map[int64]*User
	confirmations map[string]EmailConfirmation
	resets        map[int64]PasswordReset
	changes       map[string]EmailChange
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:         make(map[int64]*User),
		confirmations: make(map[string]EmailConfirmation),
		resets:        make(map[int64]PasswordReset),
		changes:       make(map[string]EmailChange),
	}
}

func (f *fakeRepo) CreateUser(ctx context.Context, user *User) (int64, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Phone == user.Phone {
			return 0, httpx.ErrDuplicate
		}
	}
	f.nextID++
	copied := *user
	copied.ID = f.nextID
	f.users[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) ActivateUser(ctx context.Context, id int64) error {
	if u, ok := f.users[id]; ok {
		u.IsActive = true
	}
	return nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	if u, ok := f.users[id]; ok {
		u.Email = email
	}
	return nil
}

func (f *fakeRepo) SaveConfirmation(ctx context.Context, c EmailConfirmation) error {
	f.confirmations[c.Token] = c
	return nil
}

func (f *fakeRepo) ConsumeConfirmation(ctx context.Context, token string) (*EmailConfirmation, error) {
	c, ok := f.confirmations[token]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	delete(f.confirmations, token)
	return &c, nil
}

func (f *fakeRepo) SaveReset(ctx context.Context, r PasswordReset) error {
	f.resets[r.UserID] = r
	return nil
}

func (f *fakeRepo) ConsumeReset(ctx context.Context, email, code string) (*PasswordReset, error) {
	user, err := f.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r, ok := f.resets[user.ID]
	if !ok || r.Code != code {
		return nil, httpx.ErrNotFound
	}
	delete(f.resets, user.ID)
	return &r, nil
}

func (f *fakeRepo) SaveEmailChange(ctx context.Context, c EmailChange) error {
	f.changes[c.Token] = c
	return nil
}

func (f *fakeRepo) ConsumeEmailChange(ctx context.Context, token string) (*EmailChange, error) {
	c, ok := f.changes[token]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	delete(f.changes, token)
	return &c, nil
}

func (f *fakeRepo) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	for token, c := range f.confirmations {
		if c.ExpiresAt.Before(now) {
			delete(f.confirmations, token)
			purged++
		}
	}
	return purged, nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakeAssigner struct {
	assigned map[int64]string
}

func (f *fakeAssigner) AssignRole(ctx context.Context, userID int64, role string) error {
	if f.assigned == nil {
		f.assigned = make(map[int64]string)
	}
	f.assigned[userID] = role
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeMailer, *fakeAssigner) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	assigner := &fakeAssigner{}
	tokens := NewTokenIssuer("test-secret", time.Hour)
	svc := NewService(repo, tokens, mailer, assigner, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	return svc, repo, mailer, assigner
}

func TestSignupCreatesInactiveAccountAndMails(t *testing.T) {
	svc, repo, mailer, assigner := newTestService()

	user, err := svc.Signup(context.Background(), SignupInput{
		Email:     "Amal@Example.com",
		Phone:     "0501234567",
		FirstName: "Amal",
		LastName:  "Hassan",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "amal@example.com", user.Email, "email is normalized")
	assert.False(t, user.IsActive, "account waits for confirmation")
	assert.Equal(t, shared.RoleUser, assigner.assigned[user.ID], "role defaults to USER")
	assert.Equal(t, []string{"amal@example.com"}, mailer.sent)
	assert.Len(t, repo.confirmations, 1)
}

func TestSignupRejectsAdminRole(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Signup(context.Background(), SignupInput{
		Email: "x@example.com", Phone: "05000", Password: "correct horse", Role: shared.RoleAdmin,
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := SignupInput{Email: "x@example.com", Phone: "0501", Password: "correct horse"}
	_, err := svc.Signup(context.Background(), in)
	require.NoError(t, err)

	in.Phone = "0502"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	svc, repo, _, _ := newTestService()

	user, err := svc.Signup(context.Background(), SignupInput{
		Email: "x@example.com", Phone: "0501", Password: "correct horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "x@example.com", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials, "inactive account may not log in")

	var token string
	for tok := range repo.confirmations {
		token = tok
	}
	require.NoError(t, svc.ConfirmEmail(context.Background(), token))

	raw, logged, err := svc.Login(context.Background(), "x@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, user.ID, logged.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.Signup(context.Background(), SignupInput{
		Email: "x@example.com", Phone: "0501", Password: "correct horse",
	})
	require.NoError(t, err)
	for tok := range repo.confirmations {
		require.NoError(t, svc.ConfirmEmail(context.Background(), tok))
	}

	_, _, err = svc.Login(context.Background(), "x@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestConfirmEmailExpiredToken(t *testing.T) {
	svc, repo, _, _ := newTestService()

	repo.users[1] = &User{ID: 1, Email: "x@example.com"}
	repo.confirmations["stale"] = EmailConfirmation{
		UserID: 1, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute),
	}

	err := svc.ConfirmEmail(context.Background(), "stale")
	assert.ErrorIs(t, err, httpx.ErrUnprocessable)
	assert.False(t, repo.users[1].IsActive)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, mailer, _ := newTestService()

	_, err := svc.Signup(context.Background(), SignupInput{
		Email: "x@example.com", Phone: "0501", Password: "old password",
	})
	require.NoError(t, err)
	for tok := range repo.confirmations {
		require.NoError(t, svc.ConfirmEmail(context.Background(), tok))
	}

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "x@example.com"))
	require.Len(t, mailer.sent, 2, "signup mail plus reset mail")

	var code string
	for _, r := range repo.resets {
		code = r.Code
	}
	require.Len(t, code, 6)

	require.NoError(t, svc.ResetPassword(context.Background(), "x@example.com", code, "new password"))

	_, _, err = svc.Login(context.Background(), "x@example.com", "old password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "x@example.com", "new password")
	assert.NoError(t, err)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer, _ := newTestService()

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, mailer.sent, "no mail and no error for unknown accounts")
}

func TestEmailChangeFlow(t *testing.T) {
	svc, repo, _, _ := newTestService()

	repo.users[1] = &User{ID: 1, Email: "old@example.com", IsActive: true}

	require.NoError(t, svc.RequestEmailChange(context.Background(), 1, "New@Example.com"))

	var token string
	for tok := range repo.changes {
		token = tok
	}
	require.NoError(t, svc.ConfirmEmailChange(context.Background(), token))
	assert.Equal(t, "new@example.com", repo.users[1].Email)
}
