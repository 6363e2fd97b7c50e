package schedule

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/internal/utils"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

type Service interface {
	Get(ctx context.Context, userId int64) (UserSchedule, error)
	AddLesson(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey, lesson Lesson) error
	// DeleteLesson removes the lesson at index of the sorted day; false when there is none.
	DeleteLesson(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey, index int) (bool, error)
	DeleteDay(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey) (bool, error)
	DeleteWeek(ctx context.Context, userId int64, parity week_parity.Parity) error
	LessonsFor(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey) ([]Lesson, error)
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, clock: clock}
}

func (s *ServiceImpl) Get(ctx context.Context, userId int64) (UserSchedule, error) {
	return s.repo.Get(ctx, userId)
}

func (s *ServiceImpl) AddLesson(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey, lesson Lesson) error {
	if !day.Valid() {
		return ErrInvalidDay
	}
	if err := lesson.Validate(); err != nil {
		return err
	}
	return s.updateWeek(ctx, userId, parity, func(week Week) (bool, error) {
		lessons := append(week[day], lesson)
		sortLessons(lessons)
		week[day] = lessons
		log.Infof("Saved lesson for user %d, week %s, day %s", userId, parity, day)
		return true, nil
	})
}

func (s *ServiceImpl) DeleteLesson(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey, index int) (bool, error) {
	if !day.Valid() {
		return false, ErrInvalidDay
	}
	deleted := false
	err := s.updateWeek(ctx, userId, parity, func(week Week) (bool, error) {
		lessons := week[day]
		if index < 0 || index >= len(lessons) {
			log.Warnf("Lesson index %d not found for deletion (user %d, week %s, day %s)", index, userId, parity, day)
			return false, nil
		}
		lessons = append(lessons[:index:index], lessons[index+1:]...)
		if len(lessons) == 0 {
			delete(week, day)
		} else {
			week[day] = lessons
		}
		deleted = true
		return true, nil
	})
	return deleted, err
}

func (s *ServiceImpl) DeleteDay(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey) (bool, error) {
	if !day.Valid() {
		return false, ErrInvalidDay
	}
	deleted := false
	err := s.updateWeek(ctx, userId, parity, func(week Week) (bool, error) {
		if len(week[day]) == 0 {
			return false, nil
		}
		delete(week, day)
		deleted = true
		return true, nil
	})
	return deleted, err
}

func (s *ServiceImpl) DeleteWeek(ctx context.Context, userId int64, parity week_parity.Parity) error {
	if err := s.repo.SaveWeek(ctx, userId, parity, Week{}, s.clock.Now()); err != nil {
		return err
	}
	log.Infof("Entire %s week schedule deleted for user %d", parity, userId)
	return nil
}

func (s *ServiceImpl) LessonsFor(ctx context.Context, userId int64, parity week_parity.Parity, day DayKey) ([]Lesson, error) {
	schedule, err := s.repo.Get(ctx, userId)
	if err != nil {
		return nil, err
	}
	return schedule.Week(parity)[day], nil
}

// updateWeek reads the week under a row lock, lets mutate change it and stores it when mutate
// reports a change.
func (s *ServiceImpl) updateWeek(ctx context.Context, userId int64, parity week_parity.Parity, mutate func(Week) (bool, error)) error {
	return s.repo.WithTransaction(ctx, func(repo Repository) error {
		current, err := repo.Get(ctx, userId)
		if err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}
		week := current.Week(parity)
		if week == nil {
			week = Week{}
		}
		changed, err := mutate(week)
		if err != nil || !changed {
			return err
		}
		return repo.SaveWeek(ctx, userId, parity, week, s.clock.Now())
	})
}
