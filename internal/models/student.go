package models

import "time"

// Student represents a child registered at an anganwadi centre. The
// identifier is a content-derived hash used as the public lookup key
// for QR codes; it is empty only between row insertion and back-fill.
type Student struct {
	StudentID  int64     `db:"student_id" json:"student_id"`
	Name       string    `db:"name" json:"name"`
	FatherName string    `db:"father_name" json:"father_name"`
	MotherName string    `db:"mother_name" json:"mother_name"`
	Gender     string    `db:"gender" json:"gender"`
	DOB        time.Time `db:"dob" json:"dob"`
	Area       string    `db:"area" json:"area"`
	Pincode    string    `db:"pincode" json:"pincode"`
	District   string    `db:"district" json:"district"`
	State      string    `db:"state" json:"state"`
	Age        *int      `db:"age" json:"age,omitempty"`
	Weight     *float64  `db:"weight" json:"weight,omitempty"`
	Identifier string    `db:"identifier" json:"identifier"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PublicView strips the fields that must not leave the system on a
// QR-code lookup: the raw identifier, mother's name, date of birth and
// the registration timestamp.
func (s *Student) PublicView() StudentPublic {
	return StudentPublic{
		StudentID:  s.StudentID,
		Name:       s.Name,
		FatherName: s.FatherName,
		Gender:     s.Gender,
		Area:       s.Area,
		Pincode:    s.Pincode,
		District:   s.District,
		State:      s.State,
		Age:        s.Age,
		Weight:     s.Weight,
	}
}

// StudentPublic is the projection served on public identifier lookups.
type StudentPublic struct {
	StudentID  int64    `json:"student_id"`
	Name       string   `json:"name"`
	FatherName string   `json:"father_name"`
	Gender     string   `json:"gender"`
	Area       string   `json:"area"`
	Pincode    string   `json:"pincode"`
	District   string   `json:"district"`
	State      string   `json:"state"`
	Age        *int     `json:"age,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
}

// StudentFilter captures search parameters for listing students.
type StudentFilter struct {
	Search    string
	District  string
	State     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
