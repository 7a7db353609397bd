package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anganwadi-sewa/anganwadi-api/internal/identity"
	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/export"
)

type studentRepository interface {
	Insert(ctx context.Context, student *models.Student) error
	SetIdentifier(ctx context.Context, studentID int64, identifier string) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type lookupCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RegisterStudentRequest holds payload for registering a student.
type RegisterStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	FatherName string   `json:"father_name" validate:"required"`
	MotherName string   `json:"mother_name" validate:"required"`
	Gender     string   `json:"gender" validate:"required"`
	DOB        string   `json:"dob" validate:"required"`
	Area       string   `json:"area" validate:"required"`
	Pincode    string   `json:"pincode" validate:"required,numeric,len=6"`
	District   string   `json:"district" validate:"required"`
	State      string   `json:"state" validate:"required"`
	Age        *int     `json:"age"`
	Weight     *float64 `json:"weight"`
}

// StudentService handles student registration and identifier lookups.
type StudentService struct {
	repo      studentRepository
	cache     lookupCache
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cacheTTL  time.Duration
}

// NewStudentService constructs the student service. cache and metrics
// may be nil.
func NewStudentService(repo studentRepository, cache lookupCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cacheTTL time.Duration) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger, metrics: metrics, cacheTTL: cacheTTL}
}

// Register creates a student record in two phases: insert with an empty
// identifier, then back-fill the identifier derived from the assigned
// sequence number. The insert is never rolled back; a failed back-fill
// is retried and, if it still fails, surfaced as a recoverable error so
// the caller can retry the back-fill without duplicating the record.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dob must be formatted as YYYY-MM-DD")
	}

	student := &models.Student{
		Name:       req.Name,
		FatherName: req.FatherName,
		MotherName: req.MotherName,
		Gender:     req.Gender,
		DOB:        dob,
		Area:       req.Area,
		Pincode:    req.Pincode,
		District:   req.District,
		State:      req.State,
		Age:        req.Age,
		Weight:     req.Weight,
	}

	if err := s.repo.Insert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert student")
	}

	id := identity.Generate(student.Area, student.Pincode, student.StudentID)
	if err := s.backfillIdentifier(ctx, student.StudentID, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("student %d stored but identifier back-fill failed; retry the registration back-fill", student.StudentID))
	}
	student.Identifier = id

	return student, nil
}

func (s *StudentService) backfillIdentifier(ctx context.Context, studentID int64, identifier string) error {
	err := s.repo.SetIdentifier(ctx, studentID, identifier)
	if err == nil {
		return nil
	}
	s.logger.Warn("identifier back-fill failed, retrying",
		zap.Int64("student_id", studentID), zap.Error(err))
	return s.repo.SetIdentifier(ctx, studentID, identifier)
}

// Lookup resolves a student by its public identifier, serving the
// stripped projection. Records are immutable after registration, so
// cached entries never need invalidation.
func (s *StudentService) Lookup(ctx context.Context, identifier string) (*models.StudentPublic, error) {
	key := "student:lookup:" + identifier

	if s.cache != nil {
		start := time.Now()
		var cached models.StudentPublic
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("lookup cache read failed", zap.Error(err))
		}
	}

	start := time.Now()
	student, err := s.repo.FindByIdentifier(ctx, identifier)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("student_lookup", time.Since(start))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	public := student.PublicView()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, public, s.cacheTTL); err != nil {
			s.logger.Warn("lookup cache write failed", zap.Error(err))
		}
	}

	return &public, nil
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// ExportRoster renders the full roster as CSV or PDF. The identifier is
// included so printed slips can carry the QR payload.
func (s *StudentService) ExportRoster(ctx context.Context, filter models.StudentFilter, format string) ([]byte, string, error) {
	var all []models.Student
	filter.Page = 1
	filter.PageSize = 100
	for {
		batch, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		all = append(all, batch...)
		if len(batch) < filter.PageSize {
			break
		}
		filter.Page++
	}

	data := export.Dataset{
		Headers: []string{"student_id", "name", "father_name", "gender", "dob", "area", "pincode", "district", "state", "identifier"},
	}
	for i := range all {
		st := &all[i]
		data.Rows = append(data.Rows, map[string]string{
			"student_id":  strconv.FormatInt(st.StudentID, 10),
			"name":        st.Name,
			"father_name": st.FatherName,
			"gender":      st.Gender,
			"dob":         st.DOB.Format("2006-01-02"),
			"area":        st.Area,
			"pincode":     st.Pincode,
			"district":    st.District,
			"state":       st.State,
			"identifier":  st.Identifier,
		})
	}

	switch format {
	case "pdf":
		payload, err := export.NewPDFExporter().Render(data, "anganwadi student roster")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
