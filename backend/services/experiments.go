package services

import (
	"log/slog"

	"quizapp/backend/models"

	"gorm.io/gorm"
)

// ExperimentsByPhase splits all experiments into past, present and future.
type ExperimentsByPhase struct {
	Past    []models.Experiment `json:"past"`
	Present []models.Experiment `json:"present"`
	Future  []models.Experiment `json:"future"`
}

func ListExperiments(db *gorm.DB) (*ExperimentsByPhase, error) {
	var all []models.Experiment
	if err := db.Order("start").Find(&all).Error; err != nil {
		return nil, err
	}

	t := now()
	out := &ExperimentsByPhase{
		Past:    []models.Experiment{},
		Present: []models.Experiment{},
		Future:  []models.Experiment{},
	}
	for _, e := range all {
		switch e.Phase(t) {
		case "past":
			out.Past = append(out.Past, e)
		case "future":
			out.Future = append(out.Future, e)
		default:
			out.Present = append(out.Present, e)
		}
	}
	return out, nil
}

// DeleteExperiment removes the experiment with its sets, assignments and results.
func DeleteExperiment(db *gorm.DB, id uint) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		exp, err := GetExperiment(tx, id)
		if err != nil {
			return err
		}

		assignments := tx.Model(&models.Assignment{}).Select("id").Where("experiment_id = ?", id)
		if err := tx.Where("assignment_id IN (?)", assignments).Delete(&models.Result{}).Error; err != nil {
			return err
		}
		if err := tx.Where("experiment_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("experiment_id = ?", id).Delete(&models.ParticipantExperiment{}).Error; err != nil {
			return err
		}
		return tx.Delete(exp).Error
	})
	if err == nil {
		slog.Info("Experiment deleted", "experiment_id", id)
	}
	return err
}

// DeleteActivity removes an activity and its choices. Activities still
// scheduled in an assignment cannot be deleted.
func DeleteActivity(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var act models.Activity
		if err := tx.First(&act, id).Error; err != nil {
			return orNotFound(err, "activity", id)
		}

		used, err := CountActivityAssignments(tx, id)
		if err != nil {
			return err
		}
		if used > 0 {
			return models.Validationf("activity %d is used by %d assignments", id, used)
		}

		if err := tx.Model(&act).Association("Datasets").Clear(); err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.Choice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&act).Error
	})
}

// CountActivityAssignments counts the live assignments scheduling the activity.
func CountActivityAssignments(db *gorm.DB, activityID uint) (int64, error) {
	var used int64
	err := db.Model(&models.Assignment{}).Where("activity_id = ?", activityID).Count(&used).Error
	return used, err
}

// DeleteDataset removes a dataset and its media items. Datasets whose media
// items are shown in an assignment cannot be deleted.
func DeleteDataset(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var ds models.Dataset
		if err := tx.First(&ds, id).Error; err != nil {
			return orNotFound(err, "dataset", id)
		}

		items := tx.Model(&models.MediaItem{}).Select("id").Where("dataset_id = ?", id)
		if err := checkMediaItemsUnused(tx, items); err != nil {
			return err
		}

		if err := tx.Model(&ds).Association("Activities").Clear(); err != nil {
			return err
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.MediaItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ds).Error
	})
}

func DeleteMediaItem(db *gorm.DB, datasetID, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		item, err := GetMediaItem(tx, datasetID, id)
		if err != nil {
			return err
		}
		ids := tx.Model(&models.MediaItem{}).Select("id").Where("id = ?", item.ID)
		if err := checkMediaItemsUnused(tx, ids); err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

func GetMediaItem(db *gorm.DB, datasetID, id uint) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := db.Where("dataset_id = ?", datasetID).First(&item, id).Error; err != nil {
		return nil, orNotFound(err, "media item", id)
	}
	return &item, nil
}

// checkMediaItemsUnused fails when any media item selected by ids is
// attached to a live assignment.
func checkMediaItemsUnused(tx *gorm.DB, ids *gorm.DB) error {
	var used int64
	err := tx.Table("assignment_media_items").
		Joins("JOIN assignments ON assignments.id = assignment_media_items.assignment_id").
		Where("assignments.deleted_at IS NULL AND assignment_media_items.media_item_id IN (?)", ids).
		Count(&used).Error
	if err != nil {
		return err
	}
	if used > 0 {
		return models.Validationf("media items are used by %d assignments", used)
	}
	return nil
}
