package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
)

const EventStatusUpdate = "STATUS_UPDATE"

// Journal keeps an audit trail of confirmed status changes.
type Journal interface {
	Record(ctx context.Context, ev models.StatusChangeEvent) error
}

type NopJournal struct{}

func (NopJournal) Record(context.Context, models.StatusChangeEvent) error { return nil }

type GormJournal struct {
	DB *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{DB: db}
}

func (j *GormJournal) Record(ctx context.Context, ev models.StatusChangeEvent) error {
	return j.DB.WithContext(ctx).Create(&ev).Error
}

// History lists an application's recorded changes, oldest first.
func (j *GormJournal) History(ctx context.Context, applicationID string) ([]models.StatusChangeEvent, error) {
	var events []models.StatusChangeEvent
	err := j.DB.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func NewStatusChangeEvent(applicationID, jobID string, from, to models.ApplicationStatus) models.StatusChangeEvent {
	return models.StatusChangeEvent{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		ApplicationID: applicationID,
		JobID:         jobID,
		FromStatus:    string(from),
		ToStatus:      string(to),
		EventType:     EventStatusUpdate,
		Details:       fmt.Sprintf("Status changed from %s to %s", from, to),
	}
}
