package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anganwadi-sewa/anganwadi-api/internal/identity"
	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
)

type mockStudentRepo struct {
	nextID         int64
	inserted       []*models.Student
	identifiers    map[int64]string
	setErrs        []error
	setCalls       int
	byIdentifier   *models.Student
	findErr        error
	listBatches    [][]models.Student
	listCall       int
	listErr        error
	listTotalCount int
}

func (m *mockStudentRepo) Insert(ctx context.Context, student *models.Student) error {
	m.nextID++
	student.StudentID = m.nextID
	student.CreatedAt = time.Now().UTC()
	m.inserted = append(m.inserted, student)
	return nil
}

func (m *mockStudentRepo) SetIdentifier(ctx context.Context, studentID int64, identifier string) error {
	defer func() { m.setCalls++ }()
	if m.setCalls < len(m.setErrs) {
		if err := m.setErrs[m.setCalls]; err != nil {
			return err
		}
	}
	if m.identifiers == nil {
		m.identifiers = make(map[int64]string)
	}
	m.identifiers[studentID] = identifier
	return nil
}

func (m *mockStudentRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byIdentifier, nil
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	if m.listCall < len(m.listBatches) {
		batch := m.listBatches[m.listCall]
		m.listCall++
		return batch, m.listTotalCount, nil
	}
	return nil, m.listTotalCount, nil
}

type mockLookupCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
}

func (m *mockLookupCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockLookupCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func validStudentRequest() RegisterStudentRequest {
	return RegisterStudentRequest{
		Name:       "Meena",
		FatherName: "Ramesh",
		MotherName: "Sita",
		Gender:     "F",
		DOB:        "2021-03-14",
		Area:       "Rajajinagar",
		Pincode:    "560010",
		District:   "Bengaluru Urban",
		State:      "Karnataka",
	}
}

func newStudentService(repo *mockStudentRepo, cache *mockLookupCache) *StudentService {
	var lc lookupCache
	if cache != nil {
		lc = cache
	}
	return NewStudentService(repo, lc, validator.New(), zap.NewNop(), nil, 15*time.Minute)
}

func TestStudentRegisterTwoPhase(t *testing.T) {
	repo := &mockStudentRepo{nextID: 41}
	svc := newStudentService(repo, nil)

	student, err := svc.Register(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(42), student.StudentID)

	want := identity.Generate("Rajajinagar", "560010", 42)
	assert.Equal(t, want, student.Identifier)
	assert.Equal(t, want, repo.identifiers[42])
	assert.Equal(t, 1, repo.setCalls)
}

func TestStudentRegisterBackfillRetriesOnce(t *testing.T) {
	repo := &mockStudentRepo{setErrs: []error{errors.New("connection reset")}}
	svc := newStudentService(repo, nil)

	student, err := svc.Register(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.setCalls)
	assert.Equal(t, identity.Generate("Rajajinagar", "560010", student.StudentID), repo.identifiers[student.StudentID])
}

func TestStudentRegisterBackfillFailureIsRecoverable(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockStudentRepo{setErrs: []error{boom, boom}}
	svc := newStudentService(repo, nil)

	_, err := svc.Register(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, 2, repo.setCalls)
	assert.Len(t, repo.inserted, 1)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Message, "retry")
}

func TestStudentRegisterInvalidDOB(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo, nil)

	req := validStudentRequest()
	req.DOB = "14-03-2021"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.inserted)
}

func TestStudentRegisterInvalidPincode(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo, nil)

	req := validStudentRequest()
	req.Pincode = "56001"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, repo.inserted)
}

func TestLookupStripsPrivateFields(t *testing.T) {
	dob := time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)
	repo := &mockStudentRepo{byIdentifier: &models.Student{
		StudentID:  42,
		Name:       "Meena",
		FatherName: "Ramesh",
		MotherName: "Sita",
		Gender:     "F",
		DOB:        dob,
		Area:       "Rajajinagar",
		Pincode:    "560010",
		District:   "Bengaluru Urban",
		State:      "Karnataka",
		Identifier: "abc123",
		CreatedAt:  time.Now(),
	}}
	svc := newStudentService(repo, nil)

	public, err := svc.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Meena", public.Name)
	assert.Equal(t, "Ramesh", public.FatherName)

	raw, err := json.Marshal(public)
	require.NoError(t, err)
	payload := string(raw)
	assert.NotContains(t, payload, "Sita")
	assert.NotContains(t, payload, "abc123")
	assert.NotContains(t, payload, "2021-03-14")
	assert.NotContains(t, payload, "identifier")
	assert.NotContains(t, payload, "mother_name")
}

func TestLookupNotFound(t *testing.T) {
	repo := &mockStudentRepo{findErr: sql.ErrNoRows}
	svc := newStudentService(repo, nil)

	_, err := svc.Lookup(context.Background(), "unknown")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestLookupServesCachedEntry(t *testing.T) {
	cache := &mockLookupCache{}
	repo := &mockStudentRepo{byIdentifier: &models.Student{StudentID: 42, Name: "Meena", Identifier: "abc123"}}
	svc := NewStudentService(repo, cache, validator.New(), zap.NewNop(), nil, 15*time.Minute)

	first, err := svc.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	repo.findErr = errors.New("db down")
	second, err := svc.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
}

func TestLookupCacheFailureFallsBackToStore(t *testing.T) {
	cache := &mockLookupCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	repo := &mockStudentRepo{byIdentifier: &models.Student{StudentID: 42, Name: "Meena", Identifier: "abc123"}}
	svc := NewStudentService(repo, cache, validator.New(), zap.NewNop(), nil, 15*time.Minute)

	public, err := svc.Lookup(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Meena", public.Name)
}

func TestExportRosterCSV(t *testing.T) {
	dob := time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)
	repo := &mockStudentRepo{listBatches: [][]models.Student{{
		{StudentID: 1, Name: "Meena", FatherName: "Ramesh", Gender: "F", DOB: dob, Area: "Rajajinagar", Pincode: "560010", District: "Bengaluru Urban", State: "Karnataka", Identifier: "abc123"},
	}}}
	svc := newStudentService(repo, nil)

	payload, contentType, err := svc.ExportRoster(context.Background(), models.StudentFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "student_id,name,"))
	assert.Contains(t, body, "Meena")
	assert.Contains(t, body, "abc123")
}

func TestExportRosterPDF(t *testing.T) {
	repo := &mockStudentRepo{listBatches: [][]models.Student{{
		{StudentID: 1, Name: "Meena", Identifier: "abc123"},
	}}}
	svc := newStudentService(repo, nil)

	payload, contentType, err := svc.ExportRoster(context.Background(), models.StudentFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRosterUnknownFormat(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{}, nil)

	_, _, err := svc.ExportRoster(context.Background(), models.StudentFilter{}, "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
