package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
)

// TaskSweeper is the periodic job that re-evaluates task expiry. It is the
// single authority for the pending to expiring-soon transition: read paths
// never mutate status. All passes run sequentially on one goroutine, so
// two passes can never race on the notification flag.
type TaskSweeper struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	notifier *NotificationService
	interval time.Duration
	log      *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewTaskSweeper creates a new TaskSweeper.
func NewTaskSweeper(taskRepo repository.TaskRepository, userRepo repository.UserRepository, notifier *NotificationService, interval time.Duration, log *logrus.Logger) *TaskSweeper {
	return &TaskSweeper{
		taskRepo: taskRepo,
		userRepo: userRepo,
		notifier: notifier,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to
// shut the loop down.
func (s *TaskSweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.RunOnce(time.Now()); err != nil {
					s.log.WithError(err).Error("task sweep failed")
				}
			case <-s.stop:
				return
			}
		}
	}()

	s.log.WithField("interval", s.interval.String()).Info("task sweeper started")
}

// Stop terminates the sweep loop and waits for an in-flight pass to end.
func (s *TaskSweeper) Stop() {
	close(s.stop)
	<-s.done
	s.log.Info("task sweeper stopped")
}

// RunOnce executes a single sweep pass: pending tasks due today or
// tomorrow become expiring-soon, and expiring-soon tasks that have not
// yet been announced produce one expiring notification each. The pass is
// idempotent; repeating it does not duplicate notifications.
func (s *TaskSweeper) RunOnce(now time.Time) error {
	windowStart := startOfDay(now)
	windowEnd := windowStart.Add(48 * time.Hour)

	due, err := s.taskRepo.ListPendingInWindow(windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to list pending tasks: %w", err)
	}

	for i := range due {
		task := &due[i]
		task.Status = models.TaskStatusExpiringSoon
		if err := s.taskRepo.Update(task); err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).Error("failed to mark task expiring-soon")
		}
	}

	unnotified, err := s.taskRepo.ListUnnotifiedExpiring()
	if err != nil {
		return fmt.Errorf("failed to list unnotified expiring tasks: %w", err)
	}

	for i := range unnotified {
		task := &unnotified[i]

		assignee := &task.Assignee
		if assignee.ID == 0 {
			loaded, err := s.userRepo.FindByID(task.AssignedTo)
			if err != nil {
				s.log.WithError(err).WithField("task_id", task.ID).Error("failed to load assignee")
				continue
			}
			assignee = loaded
		}

		s.notifier.TaskExpiring(task, assignee)

		task.ExpiringNotificationSent = true
		if err := s.taskRepo.Update(task); err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).Error("failed to flag expiring notification")
		}
	}

	return nil
}

// startOfDay truncates a timestamp to local midnight.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
