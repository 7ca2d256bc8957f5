package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, website, defaultHashtags string) error
	UpdateBusinessLocation(ctx context.Context, userID int64, storeCode, locationName string) error
}

type settingsService struct {
	sr repository.SettingsRepository
	cr repository.ConnectionRepository
}

func NewSettingsService(sr repository.SettingsRepository, cr repository.ConnectionRepository) SettingsService {
	return &settingsService{
		sr: sr,
		cr: cr,
	}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error) {
	settings, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		// Nothing saved yet; hand back empty defaults instead of an error.
		return &models.Settings{UserID: userID}, nil
	}

	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, website, defaultHashtags string) error {
	settings := models.Settings{
		UserID:          userID,
		Website:         website,
		DefaultHashtags: defaultHashtags,
	}

	return s.sr.Upsert(ctx, &settings)
}

// UpdateBusinessLocation points the Business Profile connection at a
// location, either directly by resource name or indirectly by store code.
// Changing the store code drops the cached resolution so the next publish
// resolves it again.
func (s *settingsService) UpdateBusinessLocation(ctx context.Context, userID int64, storeCode, locationName string) error {
	if storeCode == "" && locationName == "" {
		err := errors.New("store code or location name is required")
		slog.Info(err.Error())
		return err
	}

	conn, err := s.cr.GetByUserAndPlatform(ctx, userID, models.PlatformGoogleBusiness)
	if err != nil {
		return err
	}
	if conn == nil {
		err = errors.New("no google business connection for this user")
		slog.Info(err.Error())
		return err
	}

	metadata := map[string]string{}
	for k, v := range conn.Metadata {
		metadata[k] = v
	}
	metadata[models.MetaGBPStoreCode] = storeCode
	metadata[models.MetaGBPLocationName] = locationName

	return s.cr.SetMetadata(ctx, conn.ID, metadata)
}
