package service

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/platform"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[int64]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return nil, false, nil
}

type fakeConnectionRepo struct {
	connections map[int64]*models.Connection
}

func (f *fakeConnectionRepo) Upsert(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	return 0, nil
}

func (f *fakeConnectionRepo) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	return f.connections[id], nil
}

func (f *fakeConnectionRepo) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range f.connections {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConnectionRepo) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	return f.ListByUserID(ctx, userID)
}

func (f *fakeConnectionRepo) ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	c := f.connections[connectionID]
	return c != nil && c.UserID == userID, nil
}

func (f *fakeConnectionRepo) SetToken(ctx context.Context, connectionID int64, c *models.Connection) error {
	return nil
}

func (f *fakeConnectionRepo) SetMetadata(ctx context.Context, connectionID int64, metadata map[string]string) error {
	return nil
}

func (f *fakeConnectionRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeMediaItemRepo struct {
	items map[int64]*models.MediaItem
}

func (f *fakeMediaItemRepo) Create(ctx context.Context, tx *sql.Tx, m *models.MediaItem) (int64, error) {
	return 0, nil
}

func (f *fakeMediaItemRepo) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	return f.items[id], nil
}

func (f *fakeMediaItemRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaItem, error) {
	return nil, nil
}

func (f *fakeMediaItemRepo) CheckByUserID(ctx context.Context, mediaItemID, userID int64) (bool, error) {
	m := f.items[mediaItemID]
	return m != nil && m.UserID == userID, nil
}

func (f *fakeMediaItemRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakePostJobRepo struct {
	jobs          map[int64]*models.PostJob
	statusUpdates []string
}

func (f *fakePostJobRepo) Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error) {
	return 0, nil
}

func (f *fakePostJobRepo) GetByID(ctx context.Context, id int64) (*models.PostJob, error) {
	return f.jobs[id], nil
}

func (f *fakePostJobRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.PostJob, error) {
	return nil, nil
}

func (f *fakePostJobRepo) CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error) {
	j := f.jobs[jobID]
	return j != nil && j.UserID == userID, nil
}

func (f *fakePostJobRepo) UpdateStatus(ctx context.Context, status string, jobID int64) error {
	f.statusUpdates = append(f.statusUpdates, status)
	if j := f.jobs[jobID]; j != nil {
		j.Status = status
	}
	return nil
}

type fakePostJobResultRepo struct {
	mu      sync.Mutex
	results []*models.PostJobResult
}

func (f *fakePostJobResultRepo) Create(ctx context.Context, tx *sql.Tx, result *models.PostJobResult) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result.ID = int64(len(f.results) + 1)
	f.results = append(f.results, result)
	return result.ID, nil
}

func (f *fakePostJobResultRepo) ListByJobID(ctx context.Context, jobID int64) ([]*models.PostJobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PostJobResult
	for _, r := range f.results {
		if r.PostJobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePostJobResultRepo) MarkSuccess(ctx context.Context, resultID int64, externalPostID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.ID == resultID {
			r.Status = models.ResultStatusSuccess
			r.ExternalPostID = externalPostID
		}
	}
	return nil
}

func (f *fakePostJobResultRepo) MarkFailed(ctx context.Context, resultID int64, errorCode, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.ID == resultID {
			r.Status = models.ResultStatusFailed
			r.ErrorCode = errorCode
			r.ErrorMessage = errorMessage
		}
	}
	return nil
}

func (f *fakePostJobResultRepo) byPlatform(platform string) *models.PostJobResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.Platform == platform {
			return r
		}
	}
	return nil
}

type fakeSettingsRepo struct {
	settings *models.Settings
}

func (f *fakeSettingsRepo) GetByUserID(ctx context.Context, userID int64) (*models.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, s *models.Settings) error {
	return nil
}

type fakeStorage struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeStorage) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeStorage) DeleteFromR2(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeClient struct {
	platformTag string
	postID      string
	err         error

	mu       sync.Mutex
	captions []string
}

func (f *fakeClient) Platform() string { return f.platformTag }

func (f *fakeClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	f.mu.Lock()
	f.captions = append(f.captions, caption)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	return f.postID, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captions)
}

func (f *fakeClient) lastCaption() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captions) == 0 {
		return ""
	}
	return f.captions[len(f.captions)-1]
}

// publishFixture wires a publishService around in-memory fakes with one user,
// one media item, one pending job, and a pending result per client.
type publishFixture struct {
	service PublishService
	jobs    *fakePostJobRepo
	results *fakePostJobResultRepo
	storage *fakeStorage
	job     *models.PostJob
	item    *models.MediaItem
}

func newPublishFixture(t *testing.T, settings *models.Settings, clients ...platform.Client) *publishFixture {
	t.Helper()

	user := &models.User{ID: 1, Email: "u@example.com"}
	item := &models.MediaItem{
		ID:       20,
		UserID:   1,
		FileName: "blob-key",
		FileType: "video/mp4",
		FileURL:  "https://cdn.example.com/blob-key",
	}
	job := &models.PostJob{
		ID:          30,
		UserID:      1,
		MediaItemID: 20,
		Caption:     "Base caption",
		Status:      models.JobStatusPending,
	}

	connections := map[int64]*models.Connection{}
	results := &fakePostJobResultRepo{}
	for i, client := range clients {
		connID := int64(100 + i)
		connections[connID] = &models.Connection{
			ID:       connID,
			UserID:   1,
			Platform: client.Platform(),
		}
		results.Create(context.Background(), nil, &models.PostJobResult{
			PostJobID:    30,
			ConnectionID: connID,
			Platform:     client.Platform(),
			Status:       models.ResultStatusPending,
		})
	}

	jobs := &fakePostJobRepo{jobs: map[int64]*models.PostJob{30: job}}
	storage := &fakeStorage{}

	svc := NewPublishService(
		nil,
		&fakeUserRepo{users: map[int64]*models.User{1: user}},
		&fakeConnectionRepo{connections: connections},
		&fakeMediaItemRepo{items: map[int64]*models.MediaItem{20: item}},
		jobs,
		results,
		&fakeSettingsRepo{settings: settings},
		platform.NewRegistry(clients...),
		storage,
	)

	return &publishFixture{
		service: svc,
		jobs:    jobs,
		results: results,
		storage: storage,
		job:     job,
		item:    item,
	}
}

func TestCreateJobUserNotFound(t *testing.T) {
	svc := NewPublishService(nil, &fakeUserRepo{users: map[int64]*models.User{}},
		&fakeConnectionRepo{}, &fakeMediaItemRepo{}, &fakePostJobRepo{},
		&fakePostJobResultRepo{}, &fakeSettingsRepo{}, platform.NewRegistry(), &fakeStorage{})

	_, _, err := svc.CreateJob(context.Background(), 99, &transfer.PublishCreation{MediaItemID: 1}, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateJobNoConnections(t *testing.T) {
	svc := NewPublishService(nil,
		&fakeUserRepo{users: map[int64]*models.User{1: {ID: 1}}},
		&fakeConnectionRepo{}, &fakeMediaItemRepo{}, &fakePostJobRepo{},
		&fakePostJobResultRepo{}, &fakeSettingsRepo{}, platform.NewRegistry(), &fakeStorage{})

	_, _, err := svc.CreateJob(context.Background(), 1, &transfer.PublishCreation{MediaItemID: 1}, nil)
	assert.ErrorIs(t, err, ErrNoConnections)
}

func TestCreateJobMediaItemNotFound(t *testing.T) {
	connections := map[int64]*models.Connection{
		100: {ID: 100, UserID: 1, Platform: models.PlatformTiktok},
	}

	svc := NewPublishService(nil,
		&fakeUserRepo{users: map[int64]*models.User{1: {ID: 1}}},
		&fakeConnectionRepo{connections: connections},
		&fakeMediaItemRepo{items: map[int64]*models.MediaItem{}},
		&fakePostJobRepo{}, &fakePostJobResultRepo{}, &fakeSettingsRepo{},
		platform.NewRegistry(), &fakeStorage{})

	_, _, err := svc.CreateJob(context.Background(), 1, &transfer.PublishCreation{MediaItemID: 7}, nil)
	assert.ErrorIs(t, err, ErrMediaItemNotFound)
}

func TestCreateJobRejectsBadScheduledTime(t *testing.T) {
	connections := map[int64]*models.Connection{
		100: {ID: 100, UserID: 1, Platform: models.PlatformTiktok},
	}

	svc := NewPublishService(nil,
		&fakeUserRepo{users: map[int64]*models.User{1: {ID: 1}}},
		&fakeConnectionRepo{connections: connections},
		&fakeMediaItemRepo{}, &fakePostJobRepo{}, &fakePostJobResultRepo{},
		&fakeSettingsRepo{}, platform.NewRegistry(), &fakeStorage{})

	pc := &transfer.PublishCreation{MediaItemID: 7, ScheduledTime: "tomorrow-ish"}
	_, _, err := svc.CreateJob(context.Background(), 1, pc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduled time")
}

// pngFileHeader builds a multipart file header carrying a minimal PNG
// payload, enough for the magic-byte sniff to pass.
func pngFileHeader(t *testing.T) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestCreateJobDiscardsUploadWhenTransactionFails(t *testing.T) {
	// A database nothing listens on: the staged upload succeeds, then the
	// transaction cannot begin.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	defer db.Close()

	connections := map[int64]*models.Connection{
		100: {ID: 100, UserID: 1, Platform: models.PlatformTiktok},
	}
	storage := &fakeStorage{}

	svc := NewPublishService(db,
		&fakeUserRepo{users: map[int64]*models.User{1: {ID: 1}}},
		&fakeConnectionRepo{connections: connections},
		&fakeMediaItemRepo{}, &fakePostJobRepo{}, &fakePostJobResultRepo{},
		&fakeSettingsRepo{}, platform.NewRegistry(), storage)

	_, _, err = svc.CreateJob(context.Background(), 1, &transfer.PublishCreation{Caption: "hello"}, pngFileHeader(t))
	require.Error(t, err)

	// The blob staged before the failed transaction is removed again.
	require.Len(t, storage.uploaded, 1)
	assert.Equal(t, storage.uploaded, storage.deleted)
}

func TestRunOneFailureDoesNotTouchOthers(t *testing.T) {
	failing := &fakeClient{
		platformTag: models.PlatformTiktok,
		err:         platform.Errf(platform.CodeTiktokInitFailed, "upload quota exhausted"),
	}
	succeeding := &fakeClient{platformTag: models.PlatformYoutube, postID: "yt-1"}

	f := newPublishFixture(t, nil, failing, succeeding)

	require.NoError(t, f.service.Run(context.Background(), 30))

	// One success is enough for the job to complete.
	assert.Equal(t, models.JobStatusCompleted, f.job.Status)

	failed := f.results.byPlatform(models.PlatformTiktok)
	require.NotNil(t, failed)
	assert.Equal(t, models.ResultStatusFailed, failed.Status)
	assert.Equal(t, platform.CodeTiktokInitFailed, failed.ErrorCode)
	assert.Contains(t, failed.ErrorMessage, "quota")

	succeededResult := f.results.byPlatform(models.PlatformYoutube)
	require.NotNil(t, succeededResult)
	assert.Equal(t, models.ResultStatusSuccess, succeededResult.Status)
	assert.Equal(t, "yt-1", succeededResult.ExternalPostID)

	// Completed jobs drop the stored blob.
	assert.Equal(t, []string{"blob-key"}, f.storage.deleted)
}

func TestRunAllFailedKeepsBlob(t *testing.T) {
	a := &fakeClient{
		platformTag: models.PlatformTiktok,
		err:         platform.Errf(platform.CodeTiktokInitFailed, "nope"),
	}
	b := &fakeClient{
		platformTag: models.PlatformTwitter,
		err:         platform.Errf(platform.CodeTwitterStatusFailed, "nope"),
	}

	f := newPublishFixture(t, nil, a, b)

	require.NoError(t, f.service.Run(context.Background(), 30))

	assert.Equal(t, models.JobStatusFailed, f.job.Status)
	assert.Empty(t, f.storage.deleted)
}

func TestRunUnknownPlatformFailsResult(t *testing.T) {
	succeeding := &fakeClient{platformTag: models.PlatformYoutube, postID: "yt-1"}

	f := newPublishFixture(t, nil, succeeding)

	// A result for a platform nothing is registered for.
	f.results.Create(context.Background(), nil, &models.PostJobResult{
		PostJobID:    30,
		ConnectionID: 100,
		Platform:     models.PlatformLinkedin,
		Status:       models.ResultStatusPending,
	})

	require.NoError(t, f.service.Run(context.Background(), 30))

	orphan := f.results.byPlatform(models.PlatformLinkedin)
	require.NotNil(t, orphan)
	assert.Equal(t, models.ResultStatusFailed, orphan.Status)
	assert.Equal(t, platform.CodeClientNotFound, orphan.ErrorCode)

	assert.Equal(t, models.JobStatusCompleted, f.job.Status)
}

func TestRunSkipsSettledJob(t *testing.T) {
	client := &fakeClient{platformTag: models.PlatformYoutube, postID: "yt-1"}

	f := newPublishFixture(t, nil, client)
	f.job.Status = models.JobStatusCompleted

	require.NoError(t, f.service.Run(context.Background(), 30))

	assert.Zero(t, client.calls())
	assert.Empty(t, f.jobs.statusUpdates)
}

func TestRunAppendsCaptionFooter(t *testing.T) {
	client := &fakeClient{platformTag: models.PlatformYoutube, postID: "yt-1"}

	settings := &models.Settings{
		UserID:          1,
		Website:         "example.com",
		DefaultHashtags: "#a #b",
	}

	f := newPublishFixture(t, settings, client)

	require.NoError(t, f.service.Run(context.Background(), 30))

	assert.Equal(t, "Base caption\n\nFor more info visit example.com\n\n#a #b", client.lastCaption())
}

func TestRunOverridePrecedence(t *testing.T) {
	tiktok := &fakeClient{platformTag: models.PlatformTiktok, postID: "tt-1"}
	youtube := &fakeClient{platformTag: models.PlatformYoutube, postID: "yt-1"}
	twitter := &fakeClient{platformTag: models.PlatformTwitter, postID: "tw-1"}

	settings := &models.Settings{UserID: 1, Website: "example.com"}

	f := newPublishFixture(t, settings, tiktok, youtube, twitter)
	f.job.Overrides = map[string]string{models.PlatformTiktok: "TikTok cut"}
	f.item.Overrides = map[string]string{
		models.PlatformTiktok:  "Item cut",
		models.PlatformYoutube: "YouTube cut",
	}

	require.NoError(t, f.service.Run(context.Background(), 30))

	// Job override beats the item override, which beats the base caption.
	// All three get the footer.
	assert.Equal(t, "TikTok cut\n\nFor more info visit example.com", tiktok.lastCaption())
	assert.Equal(t, "YouTube cut\n\nFor more info visit example.com", youtube.lastCaption())
	assert.Equal(t, "Base caption\n\nFor more info visit example.com", twitter.lastCaption())
}

func TestAssembleCaption(t *testing.T) {
	settings := &models.Settings{Website: "example.com", DefaultHashtags: "#go #dev"}

	assert.Equal(t,
		"Hello\n\nFor more info visit example.com\n\n#go #dev",
		AssembleCaption("Hello", settings))

	assert.Equal(t, "Hello", AssembleCaption("Hello", nil))
	assert.Equal(t, "Hello", AssembleCaption("Hello", &models.Settings{}))

	assert.Equal(t,
		"Hello\n\n#go #dev",
		AssembleCaption("Hello", &models.Settings{DefaultHashtags: "#go #dev"}))

	assert.Equal(t,
		"Hello\n\nFor more info visit example.com",
		AssembleCaption("Hello", &models.Settings{Website: "example.com"}))
}
