package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ownBase = "https://cdn.example.com/"

type fakeImages struct {
	uploaded []string
	deleted  []string
	fail     error
}

func (f *fakeImages) Upload(_ context.Context, u storage.Upload) (*storage.Uploaded, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	key := u.Folder + "/new.png"
	f.uploaded = append(f.uploaded, key)
	return &storage.Uploaded{URL: ownBase + key, Key: key}, nil
}

func (f *fakeImages) Owns(rawURL string) bool { return strings.HasPrefix(rawURL, ownBase) }

func (f *fakeImages) Delete(_ context.Context, rawURL string) bool {
	f.deleted = append(f.deleted, rawURL)
	return true
}

func credentialsUser() *models.User {
	return &models.User{
		ID:             primitive.NewObjectID(),
		Email:          "owner@example.com",
		Password:       "hash",
		Name:           "Owner",
		Role:           auth.RoleUser,
		Provider:       auth.ProviderCredentials,
		ContactNumbers: []string{"+15550100"},
		Addresses:      []models.Address{homeAddress},
	}
}

func TestAccountUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Credentials user cannot drop every contact number", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		svc := NewAccountService(repo, &fakeImages{})

		_, err := svc.Update(ctx, user.ID.Hex(), types.AccountUpdateRequest{Name: "Owner", Addresses: []models.Address{homeAddress}})

		assert.ErrorIs(t, err, ErrContactNumberRequired)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Credentials user cannot drop every address", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		svc := NewAccountService(repo, &fakeImages{})

		_, err := svc.Update(ctx, user.ID.Hex(), types.AccountUpdateRequest{Name: "Owner", ContactNumbers: []string{"+15550100"}})
		assert.ErrorIs(t, err, ErrAddressRequired)
	})

	t.Run("Google-only user may clear contact details", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		user.Password = ""
		user.Provider = auth.ProviderGoogle
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		repo.On("Update", ctx, user).Return(nil).Once()
		svc := NewAccountService(repo, &fakeImages{})

		got, err := svc.Update(ctx, user.ID.Hex(), types.AccountUpdateRequest{Name: " Renamed "})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, []string{}, got.ContactNumbers)
		assert.Equal(t, []models.Address{}, got.Addresses)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown or malformed user id", func(t *testing.T) {
		repo := new(MockUserRepository)
		id := primitive.NewObjectID()
		repo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound).Once()
		svc := NewAccountService(repo, &fakeImages{})

		_, err := svc.Update(ctx, id.Hex(), types.AccountUpdateRequest{Name: "Someone"})
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = svc.Get(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestProfileImage(t *testing.T) {
	ctx := context.Background()
	upload := storage.Upload{ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG")}

	t.Run("Replacing deletes the previous owned image", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		user.ProfileImage = ownBase + "profiles/old.png"
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		repo.On("Update", ctx, user).Return(nil).Once()
		images := &fakeImages{}
		svc := NewAccountService(repo, images)

		got, err := svc.SetProfileImage(ctx, user.ID.Hex(), upload)

		require.NoError(t, err)
		assert.Equal(t, ownBase+"profiles/new.png", got.URL)
		assert.Equal(t, got.URL, user.ProfileImage)
		assert.Equal(t, []string{ownBase + "profiles/old.png"}, images.deleted)
	})

	t.Run("Google avatars are never deleted", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		user.ProfileImage = "https://lh3.googleusercontent.com/a/avatar"
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		repo.On("Update", ctx, user).Return(nil).Once()
		images := &fakeImages{}
		svc := NewAccountService(repo, images)

		_, err := svc.SetProfileImage(ctx, user.ID.Hex(), upload)
		require.NoError(t, err)
		assert.Empty(t, images.deleted)
	})

	t.Run("Failed save removes the new upload", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		user.ProfileImage = ownBase + "profiles/old.png"
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		repo.On("Update", ctx, user).Return(errors.New("write conflict")).Once()
		images := &fakeImages{}
		svc := NewAccountService(repo, images)

		_, err := svc.SetProfileImage(ctx, user.ID.Hex(), upload)
		require.Error(t, err)
		assert.Equal(t, []string{ownBase + "profiles/new.png"}, images.deleted)
	})

	t.Run("Remove clears the field and the stored object", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		user.ProfileImage = ownBase + "profiles/old.png"
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		repo.On("Update", ctx, user).Return(nil).Once()
		images := &fakeImages{}
		svc := NewAccountService(repo, images)

		require.NoError(t, svc.RemoveProfileImage(ctx, user.ID.Hex()))
		assert.Empty(t, user.ProfileImage)
		assert.Equal(t, []string{ownBase + "profiles/old.png"}, images.deleted)
	})

	t.Run("Remove without an image", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := credentialsUser()
		repo.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		svc := NewAccountService(repo, &fakeImages{})

		assert.ErrorIs(t, svc.RemoveProfileImage(ctx, user.ID.Hex()), ErrNoProfileImage)
	})
}
