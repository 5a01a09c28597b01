package services

import (
	"errors"
	"fmt"
	"log/slog"

	"quizapp/backend/models"

	"gorm.io/gorm"
)

// Answer is a participant's submission for one assignment. Which field is
// read depends on the result type of the assignment's activity.
type Answer struct {
	ChoiceID  *uint  `json:"choice_id"`
	ChoiceIDs []uint `json:"choice_ids"`
	Text      string `json:"text" validate:"max=10000"`
	Integer   *int   `json:"integer"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ParticipantForUser returns the user's Participant row, creating it on first use.
func ParticipantForUser(db *gorm.DB, userID uint) (*models.Participant, error) {
	var p models.Participant
	if err := db.Where(models.Participant{UserID: userID}).FirstOrCreate(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindAssignmentSet returns the participant's set in the experiment, or ErrNotFound.
func FindAssignmentSet(db *gorm.DB, participantID, experimentID uint) (*models.ParticipantExperiment, error) {
	var pe models.ParticipantExperiment
	res := withOrderedAssignments(db).
		Where("participant_id = ? AND experiment_id = ?", participantID, experimentID).
		Limit(1).Find(&pe)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.NotFoundf("participant %d has no assignment set in experiment %d", participantID, experimentID)
	}
	return &pe, nil
}

// GetOrCreateAssignmentSet returns the participant's set in the experiment.
// On first access one unclaimed template is picked at random and claimed
// with a conditional update, so two participants can never end up with the
// same template. An empty pool yields a nil set and an ErrConfiguration.
func GetOrCreateAssignmentSet(db *gorm.DB, participantID, experimentID uint) (*models.ParticipantExperiment, error) {
	pe, err := FindAssignmentSet(db, participantID, experimentID)
	if err == nil {
		return pe, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	for {
		var candidates []uint
		err := db.Model(&models.ParticipantExperiment{}).
			Where("experiment_id = ? AND participant_id IS NULL", experimentID).
			Order("id").
			Pluck("id", &candidates).Error
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			slog.Warn("Assignment set pool exhausted", "experiment_id", experimentID, "participant_id", participantID)
			return nil, models.Configurationf("experiment %d has no unclaimed assignment sets left", experimentID)
		}

		id := candidates[randIntn(len(candidates))]
		res := db.Model(&models.ParticipantExperiment{}).
			Where("id = ? AND participant_id IS NULL", id).
			Update("participant_id", participantID)
		if res.Error != nil {
			// a concurrent request for the same participant won the claim
			if pe, err := FindAssignmentSet(db, participantID, experimentID); err == nil {
				return pe, nil
			}
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			slog.Info("Assignment set claimed", "experiment_id", experimentID,
				"participant_id", participantID, "assignment_set_id", id)
			return loadAssignmentSet(db, id)
		}
		// someone else claimed id between the pluck and the update
	}
}

// RecordAnswer validates ans against the assignment's activity and stores it
// as the assignment's result, replacing any earlier one. The set's progress
// advances only when the assignment is the current frontier, so resubmitting
// an answer never moves the cursor twice. It returns the set and the
// assignment's index in it.
func RecordAnswer(db *gorm.DB, participantID, experimentID, assignmentID uint, ans Answer) (*models.ParticipantExperiment, int, error) {
	var (
		pe  *models.ParticipantExperiment
		idx int
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var a models.Assignment
		if err := tx.Preload("Activity.Choices").First(&a, assignmentID).Error; err != nil {
			return orNotFound(err, "assignment", assignmentID)
		}
		if a.ExperimentID != experimentID {
			return models.NotFoundf("assignment %d is not part of experiment %d", assignmentID, experimentID)
		}
		if a.ParticipantExperimentID == nil {
			return models.Validationf("assignment %d is not part of an assignment set", assignmentID)
		}
		if a.Activity == nil {
			return models.Validationf("assignment %d has no activity", assignmentID)
		}

		var err error
		pe, err = loadAssignmentSet(tx, *a.ParticipantExperimentID)
		if err != nil {
			return err
		}
		if !pe.OwnedBy(participantID) {
			return models.Forbiddenf("assignment %d belongs to another participant", assignmentID)
		}
		if pe.Complete {
			return models.Validationf("assignment set %d is already complete", pe.ID)
		}

		result, err := buildResult(tx, a.Activity, ans)
		if err != nil {
			return err
		}
		if err := a.SetResult(result); err != nil {
			return err
		}
		if err := replaceResult(tx, result); err != nil {
			return err
		}
		if err := tx.Model(&models.Assignment{}).Where("id = ?", a.ID).
			Update("comment", ans.Comment).Error; err != nil {
			return err
		}

		idx = pe.IndexOf(a.ID)
		if idx == pe.Progress {
			res := tx.Model(&models.ParticipantExperiment{}).
				Where("id = ? AND progress = ? AND complete = ?", pe.ID, idx, false).
				UpdateColumn("progress", gorm.Expr("progress + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				pe.Progress++
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	slog.Info("Answer recorded", "assignment_id", assignmentID, "participant_id", participantID,
		"assignment_set_id", pe.ID, "progress", pe.Progress)
	return pe, idx, nil
}

func buildResult(tx *gorm.DB, act *models.Activity, ans Answer) (*models.Result, error) {
	result := &models.Result{Type: act.ResultType()}

	switch result.Type {
	case models.ResultMultipleChoice:
		if ans.ChoiceID == nil {
			return nil, models.Validationf("choice_id is required")
		}
		var c models.Choice
		if err := tx.First(&c, *ans.ChoiceID).Error; err != nil {
			return nil, orNotFound(err, "choice", *ans.ChoiceID)
		}
		result.Choice = &c
	case models.ResultMultiSelect:
		ids := uniqueIDs(ans.ChoiceIDs)
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Find(&result.Choices).Error; err != nil {
				return nil, err
			}
		}
		if len(result.Choices) != len(ids) {
			return nil, models.NotFoundf("some of choices %v do not exist", ids)
		}
	case models.ResultFreeAnswer:
		result.Text = ans.Text
	case models.ResultInteger:
		if ans.Integer == nil {
			return nil, models.Validationf("integer is required")
		}
		result.Integer = ans.Integer
	case models.ResultScorecard:
	default:
		return nil, models.Validationf("activity %d of type %q accepts no answers", act.ID, act.Type)
	}
	return result, nil
}

// replaceResult hard-deletes the assignment's previous result and inserts r.
func replaceResult(tx *gorm.DB, r *models.Result) error {
	var old models.Result
	err := tx.Unscoped().Where("assignment_id = ?", r.AssignmentID).First(&old).Error
	switch {
	case err == nil:
		if err := tx.Model(&old).Association("Choices").Clear(); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&old).Error; err != nil {
			return err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return tx.Omit("Choice", "Choices.*").Create(r).Error
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NextURL is where a participant goes after the assignment at index: the
// following assignment, the completion confirmation, or, once the set is
// complete, the experiment landing page.
func NextURL(pe *models.ParticipantExperiment, index int) string {
	next := index + 1
	if next >= 0 && next < len(pe.Assignments) {
		return fmt.Sprintf("/experiments/%d/assignments/%d", pe.ExperimentID, pe.Assignments[next].ID)
	}
	if !pe.Complete {
		return fmt.Sprintf("/experiments/%d/confirm_done", pe.ExperimentID)
	}
	return fmt.Sprintf("/experiments/%d", pe.ExperimentID)
}

// Finalize marks the participant's set complete. It is one-shot: a second
// call fails with ErrValidation.
func Finalize(db *gorm.DB, participantID, experimentID uint) (*models.ParticipantExperiment, error) {
	pe, err := FindAssignmentSet(db, participantID, experimentID)
	if err != nil {
		return nil, err
	}

	res := db.Model(&models.ParticipantExperiment{}).
		Where("id = ? AND complete = ?", pe.ID, false).
		Update("complete", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.Validationf("assignment set %d is already complete", pe.ID)
	}
	pe.Complete = true

	slog.Info("Assignment set finalized", "assignment_set_id", pe.ID,
		"participant_id", participantID, "experiment_id", experimentID)
	return pe, nil
}

// AssignmentView is what a participant sees for one assignment.
type AssignmentView struct {
	Assignment         *models.Assignment `json:"assignment"`
	Choices            []models.Choice    `json:"choices"`
	Index              int                `json:"index"`
	PreviousAssignment *uint              `json:"previous_assignment_id"`
	Complete           bool               `json:"experiment_complete"`
	Explanation        string             `json:"explanation,omitempty"`
	NextURL            string             `json:"next_url,omitempty"`
}

// OpenAssignment loads an assignment for its owner. While the set is not
// complete the choice order shown is persisted; once complete the view also
// carries the explanation and the link onward.
func OpenAssignment(db *gorm.DB, participantID, experimentID, assignmentID uint) (*AssignmentView, error) {
	var a models.Assignment
	err := db.Preload("Activity.Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("choices.id ASC")
	}).Preload("MediaItems").Preload("Result.Choice").Preload("Result.Choices").
		First(&a, assignmentID).Error
	if err != nil {
		return nil, orNotFound(err, "assignment", assignmentID)
	}
	if a.ExperimentID != experimentID || a.ParticipantExperimentID == nil {
		return nil, models.NotFoundf("assignment %d is not part of experiment %d", assignmentID, experimentID)
	}

	pe, err := loadAssignmentSet(db, *a.ParticipantExperimentID)
	if err != nil {
		return nil, err
	}
	if !pe.OwnedBy(participantID) {
		return nil, models.Forbiddenf("assignment %d belongs to another participant", assignmentID)
	}

	view := &AssignmentView{
		Assignment: &a,
		Index:      pe.IndexOf(a.ID),
		Complete:   pe.Complete,
	}
	if view.Index > 0 {
		prev := pe.Assignments[view.Index-1].ID
		view.PreviousAssignment = &prev
	}

	if !pe.Complete {
		if a.Activity != nil && len(a.GetChoiceOrder()) == 0 && len(a.Activity.Choices) > 0 {
			order := make([]uint, 0, len(a.Activity.Choices))
			for _, c := range a.Activity.Choices {
				order = append(order, c.ID)
			}
			if err := a.SetChoiceOrder(order); err != nil {
				return nil, err
			}
			if err := db.Model(&models.Assignment{}).Where("id = ?", a.ID).
				Update("choice_order", a.ChoiceOrder).Error; err != nil {
				return nil, err
			}
		}
	} else {
		view.NextURL = NextURL(pe, view.Index)
		if a.Activity != nil {
			view.Explanation = a.Activity.Explanation
		}
	}
	view.Choices = a.OrderedChoices()
	if a.Activity != nil {
		a.Activity.Choices = nil
		if !pe.Complete {
			// the key is only revealed for review
			a.Activity.Answer = nil
			a.Activity.Explanation = ""
			for i := range view.Choices {
				view.Choices[i].Correct = false
			}
		}
	}
	if a.Result != nil && !pe.Complete {
		if a.Result.Choice != nil {
			a.Result.Choice.Correct = false
		}
		for i := range a.Result.Choices {
			a.Result.Choices[i].Correct = false
		}
	}
	return view, nil
}
