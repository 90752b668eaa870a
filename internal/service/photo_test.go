package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/storage"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(_ context.Context, key string, data io.Reader, _ storage.PutOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStorage) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://files.test/" + key, nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func TestAddPhotoAsAssignedOfficer(t *testing.T) {
	f := newFixture()
	st := newFakeStorage()
	photos := NewPhotoService(f.store, st, testLogger())
	officerID := uuid.New()
	seeded := seedAssigned(f, officerID)

	photo, err := photos.AddPhoto(context.Background(), AddPhotoParams{
		ReportID:    seeded.ID,
		Actor:       domain.Actor{ID: officerID, Role: domain.RoleOfficer},
		Phase:       domain.PhotoPhaseAfter,
		Filename:    "fixed.jpg",
		ContentType: "image/jpeg",
		Data:        strings.NewReader("jpeg bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PhotoPhaseAfter, photo.Phase)
	assert.Contains(t, photo.StorageKey, "reports/"+seeded.ID.String()+"/photos/after/")

	exists, err := st.Exists(context.Background(), photo.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)

	stored := f.store.get(seeded.ID)
	require.Len(t, stored.PhotosAfter, 1)
	assert.True(t, stored.HasAfterPhotos())
}

func TestAddPhotoAsOwningReporter(t *testing.T) {
	f := newFixture()
	photos := NewPhotoService(f.store, newFakeStorage(), testLogger())
	seeded := seedAssigned(f, uuid.New())

	_, err := photos.AddPhoto(context.Background(), AddPhotoParams{
		ReportID:    seeded.ID,
		Actor:       domain.Actor{ID: seeded.ReporterID, Role: domain.RoleReporter},
		Phase:       domain.PhotoPhaseBefore,
		Filename:    "pothole.png",
		ContentType: "image/png",
		Data:        strings.NewReader("png bytes"),
	})
	require.NoError(t, err)
	assert.Len(t, f.store.get(seeded.ID).PhotosBefore, 1)
}

func TestAddPhotoForbiddenForStrangers(t *testing.T) {
	f := newFixture()
	photos := NewPhotoService(f.store, newFakeStorage(), testLogger())
	seeded := seedAssigned(f, uuid.New())

	tests := []struct {
		name  string
		actor domain.Actor
	}{
		{"other reporter", domain.Actor{ID: uuid.New(), Role: domain.RoleReporter}},
		{"unassigned officer", domain.Actor{ID: uuid.New(), Role: domain.RoleOfficer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := photos.AddPhoto(context.Background(), AddPhotoParams{
				ReportID: seeded.ID,
				Actor:    tt.actor,
				Phase:    domain.PhotoPhaseBefore,
				Filename: "x.jpg",
				Data:     strings.NewReader("x"),
			})
			require.Error(t, err)
			assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
		})
	}
}

func TestAddPhotoRejectedOnFinishedReport(t *testing.T) {
	f := newFixture()
	photos := NewPhotoService(f.store, newFakeStorage(), testLogger())
	report := &domain.Report{
		ID:         uuid.New(),
		Status:     domain.StatusClosed,
		ReporterID: uuid.New(),
	}
	_ = f.store.Create(context.Background(), report)

	_, err := photos.AddPhoto(context.Background(), AddPhotoParams{
		ReportID: report.ID,
		Actor:    domain.Actor{ID: report.ReporterID, Role: domain.RoleReporter},
		Phase:    domain.PhotoPhaseAfter,
		Filename: "late.jpg",
		Data:     strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestAddPhotoInvalidPhase(t *testing.T) {
	f := newFixture()
	photos := NewPhotoService(f.store, newFakeStorage(), testLogger())

	_, err := photos.AddPhoto(context.Background(), AddPhotoParams{
		ReportID: uuid.New(),
		Actor:    domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin},
		Phase:    domain.PhotoPhase("during"),
		Filename: "x.jpg",
		Data:     strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
