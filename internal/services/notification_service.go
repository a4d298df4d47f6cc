package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService creates in-app notifications, dispatches the matching
// emails, and serves the notification feed endpoints. Email failures are
// logged and never surfaced: a failed send must not roll back the task
// mutation that triggered it.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	mailer           Mailer
	log              *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository, mailer Mailer, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		mailer:           mailer,
		log:              log,
	}
}

// TaskAssigned records an assignment notification and emails the assignee.
func (s *NotificationService) TaskAssigned(task *models.Task, assignee *models.User) {
	message := fmt.Sprintf("You have been assigned a new task: %s", task.Title)
	s.dispatch(task, assignee, models.NotificationAssignment, message,
		"New task assigned on GetDone",
		fmt.Sprintf("Task %q is due on %s.", task.Title, task.DeliveryDate.Format("2006-01-02")))
}

// DueDateChanged records a date_changed notification and emails the assignee.
func (s *NotificationService) DueDateChanged(task *models.Task, assignee *models.User) {
	message := fmt.Sprintf("The due date of task %q changed to %s", task.Title, task.DeliveryDate.Format("2006-01-02"))
	s.dispatch(task, assignee, models.NotificationDateChanged, message,
		"Task due date changed on GetDone",
		fmt.Sprintf("Task %q is now due on %s.", task.Title, task.DeliveryDate.Format("2006-01-02")))
}

// TaskExpiring records an expiring notification and emails the assignee.
func (s *NotificationService) TaskExpiring(task *models.Task, assignee *models.User) {
	message := fmt.Sprintf("Task %q is due on %s", task.Title, task.DeliveryDate.Format("2006-01-02"))
	s.dispatch(task, assignee, models.NotificationExpiring, message,
		"A task is about to expire on GetDone",
		fmt.Sprintf("Task %q is due on %s. Don't forget to complete it.", task.Title, task.DeliveryDate.Format("2006-01-02")))
}

func (s *NotificationService) dispatch(task *models.Task, assignee *models.User, kind models.NotificationType, message, subject, body string) {
	notification := &models.Notification{
		UserID:  assignee.ID,
		GroupID: &task.GroupID,
		TaskID:  &task.ID,
		Type:    kind,
		Message: message,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"user_id": assignee.ID,
			"type":    kind,
		}).Error("failed to create notification")
		return
	}

	if assignee.Email == "" {
		return
	}

	html := fmt.Sprintf("<p>%s</p><hr><small>GetDone</small>", body)
	if err := s.mailer.Send(assignee.Email, subject, body, html); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"user_id": assignee.ID,
			"type":    kind,
		}).Error("failed to send notification email")
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(userID uint64) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead marks every notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uint64) error {
	if err := s.notificationRepo.MarkAllRead(userID); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// MarkRead marks a single caller-owned notification as read.
func (s *NotificationService) MarkRead(id, userID uint64) error {
	affected, err := s.notificationRepo.MarkRead(id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteAll removes every notification of the user.
func (s *NotificationService) DeleteAll(userID uint64) error {
	if err := s.notificationRepo.DeleteAllByUser(userID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
