package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/types"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileFolder holds uploaded profile images.
const ProfileFolder = "profiles"

var ErrNoProfileImage = apperrors.BadRequest("No profile image to remove")

// ProfileImages is the part of storage.ImageManager the account flow uses.
type ProfileImages interface {
	Upload(ctx context.Context, u storage.Upload) (*storage.Uploaded, error)
	Owns(rawURL string) bool
	Delete(ctx context.Context, rawURL string) bool
}

// AccountService serves the signed-in user's own profile. Every method takes
// the user id from the session, never from the request.
type AccountService struct {
	users  IUserRepository
	images ProfileImages
	now    func() time.Time
}

func NewAccountService(users IUserRepository, images ProfileImages) *AccountService {
	return &AccountService{users: users, images: images, now: time.Now}
}

func (s *AccountService) Get(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Update replaces name, contact numbers and addresses.
func (s *AccountService) Update(ctx context.Context, userID string, req types.AccountUpdateRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactNumbers = trimContacts(req.ContactNumbers)
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.ContactNumbers = req.ContactNumbers
	user.Addresses = req.Addresses
	if user.ContactNumbers == nil {
		user.ContactNumbers = []string{}
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	if err := checkContactDetails(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetProfileImage uploads a new image, stores its URL and then removes the
// previous image when it lives in our store.
func (s *AccountService) SetProfileImage(ctx context.Context, userID string, upload storage.Upload) (*storage.Uploaded, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	upload.Folder = ProfileFolder
	uploaded, err := s.images.Upload(ctx, upload)
	if err != nil {
		return nil, err
	}

	previous := user.ProfileImage
	user.ProfileImage = uploaded.URL
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		s.images.Delete(ctx, uploaded.URL)
		return nil, err
	}
	s.dropImage(ctx, previous)
	return uploaded, nil
}

// RemoveProfileImage clears the profile image and deletes it from storage.
func (s *AccountService) RemoveProfileImage(ctx context.Context, userID string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfileImage == "" {
		return ErrNoProfileImage
	}
	previous := user.ProfileImage
	user.ProfileImage = ""
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.dropImage(ctx, previous)
	return nil
}

// dropImage deletes url best-effort. Google avatars and other foreign URLs
// are left alone.
func (s *AccountService) dropImage(ctx context.Context, url string) {
	if url == "" || !s.images.Owns(url) {
		return
	}
	s.images.Delete(ctx, url)
}
