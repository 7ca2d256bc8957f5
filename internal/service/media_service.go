package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type MediaService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader, caption string, overrides map[string]string) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.MediaItem, error)
	Remove(ctx context.Context, userID, mediaItemID int64) error
}

type mediaService struct {
	mr      repository.MediaItemRepository
	storage MediaStorage
}

func NewMediaService(mr repository.MediaItemRepository, storage MediaStorage) MediaService {
	return &mediaService{
		mr:      mr,
		storage: storage,
	}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader, caption string, overrides map[string]string) (int64, error) {
	if file == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return 0, err
	}

	fileContent, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return 0, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return 0, fmt.Errorf("unsupported file type: %w", err)
	}

	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return 0, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		log.Println(err.Error())
		return 0, err
	}

	if err := s.storage.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return 0, fmt.Errorf("error uploading file: %w", err)
	}

	item := models.MediaItem{
		UserID:    userID,
		FileName:  key,
		FileType:  fileType.MIME.Value,
		FileSize:  int64(len(fileBytes)),
		FileURL:   s.storage.PublicURL(key),
		Caption:   caption,
		Overrides: overrides,
	}

	return s.mr.Create(ctx, nil, &item)
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaItem, error) {
	items, err := s.mr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting media items")
	}
	return items, nil
}

func (s *mediaService) Remove(ctx context.Context, userID, mediaItemID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	if mediaItemID == 0 {
		err = errors.New("MediaItemID is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.mr.CheckByUserID(ctx, mediaItemID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Media item doesn't exist")
		slog.Info(err.Error())
		return err
	}

	item, err := s.mr.GetByID(ctx, mediaItemID)
	if err != nil || item == nil {
		return fmt.Errorf("Unable to get media item info")
	}

	if err := s.storage.DeleteFromR2(ctx, item.FileName); err != nil {
		slog.Info("deleting stored blob failed", "file", item.FileName, "error", err.Error())
	}

	err = s.mr.Remove(ctx, mediaItemID)
	if err != nil {
		return fmt.Errorf("Error removing media item")
	}

	return nil
}
