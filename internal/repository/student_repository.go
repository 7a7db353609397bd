package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
)

const studentColumns = "student_id, name, father_name, mother_name, gender, dob, area, pincode, district, state, age, weight, identifier, created_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Insert stores a new student row with an empty identifier and fills in
// the store-assigned sequence number and registration timestamp.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (name, father_name, mother_name, gender, dob, area, pincode, district, state, age, weight, identifier)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '')
        RETURNING student_id, created_at`
	row := r.db.QueryRowContext(ctx, query,
		student.Name,
		student.FatherName,
		student.MotherName,
		student.Gender,
		student.DOB,
		student.Area,
		student.Pincode,
		student.District,
		student.State,
		student.Age,
		student.Weight,
	)
	if err := row.Scan(&student.StudentID, &student.CreatedAt); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// SetIdentifier back-fills the derived identifier onto an inserted row.
func (r *StudentRepository) SetIdentifier(ctx context.Context, studentID int64, identifier string) error {
	const query = `UPDATE students SET identifier = $1 WHERE student_id = $2`
	res, err := r.db.ExecContext(ctx, query, identifier, studentID)
	if err != nil {
		return fmt.Errorf("set identifier: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID fetches a student by its sequence number.
func (r *StudentRepository) FindByID(ctx context.Context, studentID int64) (*models.Student, error) {
	const query = "SELECT " + studentColumns + " FROM students WHERE student_id = $1 LIMIT 1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByIdentifier fetches a student by its public identifier.
func (r *StudentRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Student, error) {
	const query = "SELECT " + studentColumns + " FROM students WHERE identifier = $1 LIMIT 1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, identifier); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by identifier: %w", err)
	}
	return &student, nil
}

// List returns students matching the provided filters with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var args []interface{}

	if filter.District != "" {
		base += fmt.Sprintf(" AND district = $%d", len(args)+1)
		args = append(args, filter.District)
	}
	if filter.State != "" {
		base += fmt.Sprintf(" AND state = $%d", len(args)+1)
		args = append(args, filter.State)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(area) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"created_at": true,
		"district":   true,
		"pincode":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, sortBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
