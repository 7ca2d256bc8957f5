package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/platform"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaStorage is the slice of R2Service the publisher needs: store the
// upload, serve it by URL, drop it once every platform is done with it.
type MediaStorage interface {
	UploadToR2(ctx context.Context, key string, file []byte, filetype string) error
	DeleteFromR2(ctx context.Context, key string) error
	PublicURL(key string) string
}

type PublishService interface {
	CreateJob(ctx context.Context, userID int64, pc *transfer.PublishCreation, file *multipart.FileHeader) (int64, time.Duration, error)
	Run(ctx context.Context, jobID int64) error
	JobInfo(ctx context.Context, userID, jobID int64) (*transfer.JobWithResults, error)
	List(ctx context.Context, userID int64) ([]*models.PostJob, error)
}

type publishService struct {
	db       *sql.DB
	ur       repository.UserRepository
	cr       repository.ConnectionRepository
	mr       repository.MediaItemRepository
	jr       repository.PostJobRepository
	rr       repository.PostJobResultRepository
	sr       repository.SettingsRepository
	registry platform.Registry
	storage  MediaStorage
}

func NewPublishService(
	db *sql.DB,
	ur repository.UserRepository,
	cr repository.ConnectionRepository,
	mr repository.MediaItemRepository,
	jr repository.PostJobRepository,
	rr repository.PostJobResultRepository,
	sr repository.SettingsRepository,
	registry platform.Registry,
	storage MediaStorage) PublishService {
	return &publishService{
		db:       db,
		ur:       ur,
		cr:       cr,
		mr:       mr,
		jr:       jr,
		rr:       rr,
		sr:       sr,
		registry: registry,
		storage:  storage,
	}
}

// CreateJob validates the request, stores the media item when a fresh file
// came along, and writes the job row plus one pending result per connection.
// Every check happens before the first insert, so a rejected request leaves
// no rows behind; a fresh upload staged to storage is removed again when the
// transaction fails. The returned delay is zero for immediate publishes.
func (s *publishService) CreateJob(ctx context.Context, userID int64, pc *transfer.PublishCreation, file *multipart.FileHeader) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("publish creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}

	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if user == nil {
		return 0, 0, ErrUserNotFound
	}

	connections, err := s.cr.ListByUserID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if len(connections) == 0 {
		return 0, 0, ErrNoConnections
	}

	var scheduledAt time.Time
	if pc.ScheduledTime != "" {
		scheduledAt, err = time.Parse("2006-01-02T15:04", pc.ScheduledTime)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Info(err.Error())
			return 0, 0, err
		}
	}

	var item *models.MediaItem
	var newUpload bool
	if pc.MediaItemID != 0 {
		exists, err := s.mr.CheckByUserID(ctx, pc.MediaItemID, userID)
		if err != nil {
			return 0, 0, err
		}
		if !exists {
			return 0, 0, ErrMediaItemNotFound
		}
		item, err = s.mr.GetByID(ctx, pc.MediaItemID)
		if err != nil {
			return 0, 0, err
		}
		if item == nil {
			return 0, 0, ErrMediaItemNotFound
		}
	} else if file == nil {
		err := errors.New("no media item or file provided")
		slog.Info(err.Error())
		return 0, 0, err
	} else {
		// Staged outside the transaction; the rollback path below removes
		// the blob again, so a failed insert never orphans it in storage.
		item, err = s.stageFile(ctx, userID, pc, file)
		if err != nil {
			return 0, 0, err
		}
		newUpload = true
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		if newUpload {
			s.discardUpload(ctx, item.FileName)
		}
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
			if newUpload {
				s.discardUpload(ctx, item.FileName)
			}
		}
	}()

	if newUpload {
		item.ID, err = s.mr.Create(ctx, tx, item)
		if err != nil {
			return 0, 0, err
		}
	}

	caption := pc.Caption
	if caption == "" {
		caption = item.Caption
	}

	job := models.PostJob{
		UserID:      userID,
		MediaItemID: item.ID,
		Caption:     caption,
		Overrides:   pc.Overrides,
		Status:      models.JobStatusPending,
		ScheduledAt: scheduledAt,
	}

	jobID, err := s.jr.Create(ctx, tx, &job)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating job: %w", err)
	}

	for _, conn := range connections {
		result := models.PostJobResult{
			PostJobID:    jobID,
			ConnectionID: conn.ID,
			Platform:     conn.Platform,
			Status:       models.ResultStatusPending,
		}
		if _, err = s.rr.Create(ctx, tx, &result); err != nil {
			return 0, 0, fmt.Errorf("error creating result for %s: %w", conn.Platform, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	var delay time.Duration
	if !scheduledAt.IsZero() {
		delay = time.Until(scheduledAt)
		if delay < 0 {
			delay = 0
		}
	}

	return jobID, delay, nil
}

// stageFile sniffs, validates and uploads a fresh file to storage. No rows
// are written here; the caller inserts the media item inside its transaction
// and discards the blob when that transaction never commits.
func (s *publishService) stageFile(ctx context.Context, userID int64, pc *transfer.PublishCreation, file *multipart.FileHeader) (*models.MediaItem, error) {
	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}

	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		log.Println(err.Error())
		return nil, err
	}

	if err := s.storage.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	item := models.MediaItem{
		UserID:    userID,
		FileName:  key,
		FileType:  fileType.MIME.Value,
		FileSize:  int64(len(fileBytes)),
		FileURL:   s.storage.PublicURL(key),
		Caption:   pc.Caption,
		Overrides: pc.Overrides,
	}

	return &item, nil
}

func (s *publishService) discardUpload(ctx context.Context, key string) {
	if err := s.storage.DeleteFromR2(ctx, key); err != nil {
		slog.Info("removing staged upload failed", "file", key, "error", err.Error())
	}
}

// Run fans the job out to every pending result concurrently and settles the
// job status from what came back. Each result is marked independently, so
// one platform blowing up never touches the others.
func (s *publishService) Run(ctx context.Context, jobID int64) error {
	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %d doesn't exist", jobID)
	}
	if job.Status != models.JobStatusPending {
		slog.Info("skipping job in terminal status", "job_id", jobID, "status", job.Status)
		return nil
	}

	user, err := s.ur.GetByID(ctx, job.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d doesn't exist", job.UserID)
	}

	item, err := s.mr.GetByID(ctx, job.MediaItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("media item %d doesn't exist", job.MediaItemID)
	}

	settings, err := s.sr.GetByUserID(ctx, job.UserID)
	if err != nil {
		return err
	}

	results, err := s.rr.ListByJobID(ctx, jobID)
	if err != nil {
		return err
	}

	fullCaption := AssembleCaption(job.Caption, settings)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10) // Concurrency limit

	publishOne := func(result *models.PostJobResult) {
		defer wg.Done()
		defer func() { <-semaphore }()

		caption := s.resolveCaption(job, item, result.Platform, settings, fullCaption)

		externalID, err := s.publishToPlatform(ctx, user, item, result, caption)
		if err != nil {
			code, message := platform.Classify(err)
			log.Printf("Error publishing to %s for job %d: %v", result.Platform, job.ID, err)
			if err := s.rr.MarkFailed(ctx, result.ID, code, message); err != nil {
				log.Printf("Error saving result for job %d: %v", job.ID, err)
			}
			return
		}

		if err := s.rr.MarkSuccess(ctx, result.ID, externalID); err != nil {
			log.Printf("Error saving result for job %d: %v", job.ID, err)
		}
	}

	for _, result := range results {
		if result.Status != models.ResultStatusPending {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go publishOne(result)
	}

	wg.Wait()

	return s.settleJob(ctx, job, item)
}

func (s *publishService) publishToPlatform(ctx context.Context, user *models.User, item *models.MediaItem, result *models.PostJobResult, caption string) (string, error) {
	conn, err := s.cr.GetByID(ctx, result.ConnectionID)
	if err != nil {
		return "", err
	}
	if conn == nil {
		return "", platform.Errf(platform.CodeClientNotFound, "connection %d no longer exists", result.ConnectionID)
	}

	client, ok := s.registry.Lookup(result.Platform)
	if !ok {
		return "", platform.Errf(platform.CodeClientNotFound, "no client registered for platform %s", result.Platform)
	}

	return client.PublishVideo(ctx, user, conn, item, caption)
}

// resolveCaption picks the per-platform caption: an override named in the
// request wins, then one stored on the media item, then the assembled base.
// Overrides get the same footer treatment as the base caption.
func (s *publishService) resolveCaption(job *models.PostJob, item *models.MediaItem, platformTag string, settings *models.Settings, fullCaption string) string {
	if override := job.Overrides[platformTag]; override != "" {
		return AssembleCaption(override, settings)
	}
	if override := item.Overrides[platformTag]; override != "" {
		return AssembleCaption(override, settings)
	}
	return fullCaption
}

// settleJob applies the aggregate rule: completed when at least one platform
// succeeded, failed when every settled result failed, in_progress when
// something is still pending (shouldn't happen after a full fan-out, kept so
// a crashed worker never fakes a terminal state). The stored blob is removed
// once the job completes; platforms that needed the bytes already have them.
func (s *publishService) settleJob(ctx context.Context, job *models.PostJob, item *models.MediaItem) error {
	results, err := s.rr.ListByJobID(ctx, job.ID)
	if err != nil {
		return err
	}

	var succeeded, pending int
	for _, result := range results {
		switch result.Status {
		case models.ResultStatusSuccess:
			succeeded++
		case models.ResultStatusPending:
			pending++
		}
	}

	status := models.JobStatusFailed
	if succeeded > 0 {
		status = models.JobStatusCompleted
	} else if pending > 0 {
		status = models.JobStatusInProgress
	}

	if err := s.jr.UpdateStatus(ctx, status, job.ID); err != nil {
		return err
	}

	if status == models.JobStatusCompleted {
		if err := s.storage.DeleteFromR2(ctx, item.FileName); err != nil {
			slog.Info("deleting published blob failed", "file", item.FileName, "error", err.Error())
		}
	}

	return nil
}

// AssembleCaption appends the user's footer paragraphs to the base caption:
// the website line when a website is set, then the default hashtags. Empty
// pieces are skipped without leaving blank paragraphs behind.
func AssembleCaption(base string, settings *models.Settings) string {
	if settings == nil {
		return base
	}

	caption := base
	if settings.Website != "" {
		caption += "\n\nFor more info visit " + settings.Website
	}
	if settings.DefaultHashtags != "" {
		caption += "\n\n" + settings.DefaultHashtags
	}

	return caption
}

func (s *publishService) JobInfo(ctx context.Context, userID, jobID int64) (*transfer.JobWithResults, error) {
	var err error

	if userID == 0 {
		err = errors.New("User is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	if jobID == 0 {
		err = errors.New("job id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.jr.CheckByUserID(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	if !isValid {
		err = errors.New("Job doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("Error getting job info")
	}

	results, err := s.rr.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("Error getting job results")
	}

	return &transfer.JobWithResults{Job: job, Results: results}, nil
}

func (s *publishService) List(ctx context.Context, userID int64) ([]*models.PostJob, error) {
	jobs, err := s.jr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting jobs")
	}
	return jobs, nil
}
