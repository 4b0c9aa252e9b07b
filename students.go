package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func studentKey(studentId int) string {
	return fmt.Sprintf("student:%d", studentId)
}

const studentsKey = "students"

// AddCourse enrolls a student in a (course, shift) pair.
func (c *APIClient) AddCourse(ctx context.Context, body CourseRequest) error {
	return c.Call(ctx, http.MethodPost, "students.add_course", nil, body, nil)
}

// DropCourse removes a (course, shift) pair from a student's enrollment.
func (c *APIClient) DropCourse(ctx context.Context, body CourseRequest) error {
	return c.Call(ctx, http.MethodPost, "students.drop_course", nil, body, nil)
}

func (c *APIClient) GetStudent(ctx context.Context, studentId int) (*Student, error) {
	query := url.Values{"student_id": {strconv.Itoa(studentId)}}
	var student Student
	if err := c.Call(ctx, http.MethodGet, "students.info", query, nil, &student); err != nil {
		return nil, errors.Wrapf(err, "failed to get student %d", studentId)
	}
	return &student, nil
}

func (c *APIClient) ListStudents(ctx context.Context) ([]Student, error) {
	students := make([]Student, 0, 100)
	if err := c.Call(ctx, http.MethodGet, "students.list", nil, nil, &students); err != nil {
		return nil, errors.Wrap(err, "failed to list students")
	}
	return students, nil
}

// Directory serves student reads through the session cache.
type Directory struct {
	api   *APIClient
	cache *SessionCache
}

func NewDirectory(api *APIClient, cache *SessionCache) *Directory {
	return &Directory{api: api, cache: cache}
}

func (d *Directory) GetStudentCached(ctx context.Context, studentId int) (*Student, error) {
	return Cached(d.cache, studentKey(studentId), func() (*Student, error) {
		return d.api.GetStudent(ctx, studentId)
	})
}

func (d *Directory) ListStudentsCached(ctx context.Context) ([]Student, error) {
	return Cached(d.cache, studentsKey, func() ([]Student, error) {
		return d.api.ListStudents(ctx)
	})
}

// Forget drops the cached copies of a student after its enrollment changed.
func (d *Directory) Forget(studentId int) {
	if d.cache == nil {
		return
	}
	for _, key := range []string{studentKey(studentId), studentsKey} {
		if err := d.cache.Invalidate(key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to invalidate cache")
		}
	}
}
