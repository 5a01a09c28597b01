package services

import (
	"sort"
	"strconv"
	"strings"

	"quizapp/backend/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type QuestionStat struct {
	ActivityID   uint   `json:"activity_id"`
	QuestionText string `json:"question_text"`
	NumResponses int    `json:"num_responses"`
	NumCorrect   int    `json:"num_correct"`
}

type ExperimentResults struct {
	ExperimentID    uint           `json:"experiment_id"`
	NumParticipants int64          `json:"num_participants"`
	NumFinished     int64          `json:"num_finished"`
	PercentFinished float64        `json:"percent_finished"`
	QuestionStats   []QuestionStat `json:"question_stats"`
}

// Results aggregates an experiment: how many participants claimed a set,
// how many finalized it, and per question how many answers were given and
// how many of those were correct.
func Results(db *gorm.DB, experimentID uint) (*ExperimentResults, error) {
	if _, err := GetExperiment(db, experimentID); err != nil {
		return nil, err
	}

	res := &ExperimentResults{ExperimentID: experimentID, QuestionStats: []QuestionStat{}}

	sets := db.Model(&models.ParticipantExperiment{}).
		Where("experiment_id = ? AND participant_id IS NOT NULL", experimentID)
	if err := sets.Count(&res.NumParticipants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ParticipantExperiment{}).
		Where("experiment_id = ? AND participant_id IS NOT NULL AND complete = ?", experimentID, true).
		Count(&res.NumFinished).Error; err != nil {
		return nil, err
	}
	if res.NumParticipants > 0 {
		res.PercentFinished = float64(res.NumFinished) / float64(res.NumParticipants) * 100
	}

	var assignments []models.Assignment
	err := db.Preload("Activity.Choices").Preload("Result.Choice").Preload("Result.Choices").
		Where("experiment_id = ?", experimentID).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	stats := map[uint]*QuestionStat{}
	for i := range assignments {
		a := &assignments[i]
		if a.Activity == nil || !a.Activity.IsQuestion() {
			continue
		}
		st, ok := stats[a.ActivityID]
		if !ok {
			st = &QuestionStat{ActivityID: a.ActivityID, QuestionText: a.Activity.Question}
			stats[a.ActivityID] = st
		}
		if a.Result == nil {
			continue
		}
		st.NumResponses++
		if a.Correct() {
			st.NumCorrect++
		}
	}

	for _, st := range stats {
		res.QuestionStats = append(res.QuestionStats, *st)
	}
	sort.Slice(res.QuestionStats, func(i, j int) bool {
		return res.QuestionStats[i].ActivityID < res.QuestionStats[j].ActivityID
	})
	return res, nil
}

var (
	exportSetHeaders        = []interface{}{"id", "participant_id", "progress", "complete"}
	exportAssignmentHeaders = []interface{}{"id", "participant_experiment_id", "activity_id", "media_items", "comment"}
)

// ExportWorkbook writes the experiment's sets and assignments in the layout
// ImportAssignments reads.
func ExportWorkbook(db *gorm.DB, experimentID uint) (*excelize.File, error) {
	if _, err := GetExperiment(db, experimentID); err != nil {
		return nil, err
	}

	var sets []models.ParticipantExperiment
	err := db.Preload("Assignments", func(db *gorm.DB) *gorm.DB {
		return db.Order("assignments.id ASC")
	}).Preload("Assignments.MediaItems").
		Where("experiment_id = ?", experimentID).
		Order("id").
		Find(&sets).Error
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetParticipantExperiments); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetAssignments); err != nil {
		return nil, err
	}

	if err := writeRow(f, SheetParticipantExperiments, 1, exportSetHeaders); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetAssignments, 1, exportAssignmentHeaders); err != nil {
		return nil, err
	}

	setRow, assignmentRow := 2, 2
	for _, pe := range sets {
		participant := ""
		if pe.ParticipantID != nil {
			participant = strconv.FormatUint(uint64(*pe.ParticipantID), 10)
		}
		if err := writeRow(f, SheetParticipantExperiments, setRow,
			[]interface{}{pe.ID, participant, pe.Progress, pe.Complete}); err != nil {
			return nil, err
		}
		setRow++

		for _, a := range pe.Assignments {
			items := make([]string, 0, len(a.MediaItems))
			for _, m := range a.MediaItems {
				items = append(items, strconv.FormatUint(uint64(m.ID), 10))
			}
			if err := writeRow(f, SheetAssignments, assignmentRow,
				[]interface{}{a.ID, pe.ID, a.ActivityID, strings.Join(items, ","), a.Comment}); err != nil {
				return nil, err
			}
			assignmentRow++
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
