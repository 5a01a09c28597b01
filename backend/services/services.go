// Package services holds the experiment engine: assignment progression,
// template claiming, workbook import/export and result aggregation. Every
// operation takes the gorm handle it runs against; callers decide whether
// that is the root DB or a transaction.
package services

import (
	"errors"
	"math/rand/v2"
	"time"

	"quizapp/backend/models"

	"gorm.io/gorm"
)

var (
	randIntn = rand.IntN
	now      = time.Now
)

// orNotFound turns gorm's missing-row error into models.ErrNotFound.
func orNotFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFoundf("%s %d", what, id)
	}
	return err
}

// withOrderedAssignments preloads a set's assignments in sequence order.
func withOrderedAssignments(db *gorm.DB) *gorm.DB {
	return db.Preload("Assignments", func(db *gorm.DB) *gorm.DB {
		return db.Order("assignments.id ASC")
	})
}

func loadAssignmentSet(db *gorm.DB, id uint) (*models.ParticipantExperiment, error) {
	var pe models.ParticipantExperiment
	if err := withOrderedAssignments(db).First(&pe, id).Error; err != nil {
		return nil, orNotFound(err, "assignment set", id)
	}
	return &pe, nil
}

func GetExperiment(db *gorm.DB, id uint) (*models.Experiment, error) {
	var exp models.Experiment
	if err := db.First(&exp, id).Error; err != nil {
		return nil, orNotFound(err, "experiment", id)
	}
	return &exp, nil
}
