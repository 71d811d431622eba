package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuchenlin/studyhub-server/internal/models"
)

// SelectCourses resolves each submitted course (creating it on first
// sight, keyed by the name/teacher/weekday/slot quadruple) and enrolls
// the user. Re-submitting an already-enrolled course is a no-op.
func (s *DefaultService) SelectCourses(
	ctx context.Context,
	userID int64,
	req models.SelectCoursesRequest,
) (*models.CourseListResponse, error) {
	saved := []models.Course{}

	for _, c := range req.Courses {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}

		course := models.Course{
			Name:     name,
			Teacher:  strings.TrimSpace(c.Teacher),
			Weekday:  strings.TrimSpace(c.Weekday),
			TimeSlot: strings.TrimSpace(c.TimeSlot),
		}

		if err := s.repo.FindOrCreateCourse(ctx, &course); err != nil {
			return nil, fmt.Errorf("error resolving course: %w", err)
		}

		if err := s.repo.EnrollUser(ctx, userID, course.ID); err != nil {
			return nil, fmt.Errorf("error enrolling user: %w", err)
		}

		saved = append(saved, course)
	}

	return &models.CourseListResponse{
		Status:  "success",
		Courses: saved,
	}, nil
}

func (s *DefaultService) GetMyCourses(ctx context.Context, userID int64) (*models.CourseListResponse, error) {
	courses, err := s.repo.GetUserCourses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting courses: %w", err)
	}

	return &models.CourseListResponse{
		Status:  "success",
		Courses: courses,
	}, nil
}

func (s *DefaultService) DropCourse(ctx context.Context, userID, courseID int64) error {
	deleted, err := s.repo.DeleteEnrollment(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}
	if !deleted {
		return ErrCourseNotFound
	}

	return nil
}
