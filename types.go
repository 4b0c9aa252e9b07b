package main

import "time"

// CourseSelection is one desired (course, shift) pairing picked by an operator.
type CourseSelection struct {
	CourseId   *int    `json:"courseId"`
	ShiftId    *int    `json:"shiftId"`
	CourseName *string `json:"courseName"`
	ShiftName  string  `json:"shiftName"`
}

type Course struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type Shift struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

// EnrollmentCourse is a (course, shift) pair already on a student's enrollment record.
type EnrollmentCourse struct {
	Course Course `json:"course"`
	Shift  Shift  `json:"shift"`
}

type Enrollment struct {
	Id      int                `json:"id"`
	Courses []EnrollmentCourse `json:"courses"`
}

type Student struct {
	Id         int        `json:"id"`
	Name       string     `json:"name"`
	NationalId string     `json:"national_id"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Enrollment Enrollment `json:"enrollment"`
}

// CourseRequest is the body of students.add_course and students.drop_course.
type CourseRequest struct {
	StudentId int  `json:"student_id"`
	CourseId  *int `json:"course_id"`
	ShiftId   *int `json:"shift_id"`
}

type Fee struct {
	Id     int     `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Period string  `json:"period"`
}

type Receipt struct {
	Id            int       `json:"id"`
	TransactionId int       `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}

type Transaction struct {
	Id        int       `json:"id"`
	StudentId int       `json:"student_id"`
	Concept   string    `json:"concept"`
	Amount    float64   `json:"amount"`
	Balance   float64   `json:"balance"`
	Status    string    `json:"status"`
	DueDate   time.Time `json:"due_date"`
	Receipts  []Receipt `json:"receipts"`
}

type WhoAmI struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ErrorResponse is the JSON body the API attaches to non-2xx responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
