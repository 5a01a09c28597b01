package services

import (
	"log/slog"

	"quizapp/backend/models"

	"gorm.io/gorm"
)

// AssignmentSpec describes one position of a template assignment set.
type AssignmentSpec struct {
	ActivityID   uint   `json:"activity_id" validate:"required"`
	MediaItemIDs []uint `json:"media_item_ids"`
}

// CreateTemplateAssignmentSet builds an unclaimed assignment set for the
// experiment's pool. Assignments keep the order of specs.
func CreateTemplateAssignmentSet(db *gorm.DB, experimentID uint, specs []AssignmentSpec) (*models.ParticipantExperiment, error) {
	if len(specs) == 0 {
		return nil, models.Validationf("an assignment set needs at least one assignment")
	}

	var pe models.ParticipantExperiment
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetExperiment(tx, experimentID); err != nil {
			return err
		}

		pe = models.ParticipantExperiment{ExperimentID: experimentID}
		if err := tx.Create(&pe).Error; err != nil {
			return err
		}

		for i, spec := range specs {
			var act models.Activity
			if err := tx.First(&act, spec.ActivityID).Error; err != nil {
				return orNotFound(err, "activity", spec.ActivityID)
			}

			var items []models.MediaItem
			ids := uniqueIDs(spec.MediaItemIDs)
			if len(ids) > 0 {
				if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
					return err
				}
				if len(items) != len(ids) {
					return models.NotFoundf("position %d: some of media items %v do not exist", i, ids)
				}
			}

			a := models.Assignment{ExperimentID: experimentID, ParticipantExperimentID: &pe.ID}
			if err := a.SetMediaItems(items); err != nil {
				return err
			}
			if err := a.SetActivity(&act); err != nil {
				return err
			}
			if err := tx.Omit("Activity", "MediaItems.*").Create(&a).Error; err != nil {
				return err
			}
			pe.Assignments = append(pe.Assignments, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Template assignment set created", "experiment_id", experimentID,
		"assignment_set_id", pe.ID, "assignments", len(pe.Assignments))
	return &pe, nil
}

// ListAssignmentSets returns the experiment's sets, claimed and unclaimed.
func ListAssignmentSets(db *gorm.DB, experimentID uint) ([]models.ParticipantExperiment, error) {
	var sets []models.ParticipantExperiment
	err := withOrderedAssignments(db).
		Where("experiment_id = ?", experimentID).
		Order("id").
		Find(&sets).Error
	return sets, err
}

// ListParticipantSets returns every set claimed by the participant.
func ListParticipantSets(db *gorm.DB, participantID uint) ([]models.ParticipantExperiment, error) {
	var sets []models.ParticipantExperiment
	err := withOrderedAssignments(db).
		Where("participant_id = ?", participantID).
		Order("experiment_id").
		Find(&sets).Error
	return sets, err
}
