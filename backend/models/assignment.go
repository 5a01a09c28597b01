package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assignment is one activity scheduled for a participant at a fixed position
// of an assignment set.
type Assignment struct {
	gorm.Model
	ExperimentID            uint                   `gorm:"not null;index" json:"experiment_id"`
	ParticipantExperimentID *uint                  `gorm:"index" json:"participant_experiment_id"`
	ParticipantExperiment   *ParticipantExperiment `json:"-"`
	ActivityID              uint                   `gorm:"not null;index" json:"activity_id"`
	Activity                *Activity              `json:"activity,omitempty"`
	MediaItems              []MediaItem            `gorm:"many2many:assignment_media_items;" json:"media_items,omitempty"`
	ChoiceOrder             datatypes.JSON         `json:"choice_order,omitempty"`
	Result                  *Result                `json:"result,omitempty"`
	Comment                 string                 `json:"comment"`
}

func checkMediaItemCount(act *Activity, n int) error {
	if act.NumMediaItems >= 0 && act.NumMediaItems != n {
		return Validationf("activity %d requires %d media items, assignment has %d",
			act.ID, act.NumMediaItems, n)
	}
	return nil
}

// SetActivity attaches act, enforcing its media item count.
func (a *Assignment) SetActivity(act *Activity) error {
	if act == nil {
		return Validationf("assignment needs an activity")
	}
	if err := checkMediaItemCount(act, len(a.MediaItems)); err != nil {
		return err
	}
	a.Activity = act
	a.ActivityID = act.ID
	return nil
}

// SetMediaItems replaces the media items, enforcing the attached activity's count.
func (a *Assignment) SetMediaItems(items []MediaItem) error {
	if a.Activity != nil {
		if err := checkMediaItemCount(a.Activity, len(items)); err != nil {
			return err
		}
	}
	a.MediaItems = items
	return nil
}

// SetResult attaches r after checking that it is the result variant the
// activity accepts and that any referenced choices belong to the activity.
func (a *Assignment) SetResult(r *Result) error {
	if a.Activity == nil {
		return Validationf("assignment %d has no activity", a.ID)
	}
	if r == nil {
		return Validationf("missing result")
	}
	if want := a.Activity.ResultType(); r.Type != want {
		return Validationf("activity %d expects a %q result, got %q", a.Activity.ID, want, r.Type)
	}

	switch r.Type {
	case ResultMultipleChoice:
		var id uint
		switch {
		case r.Choice != nil:
			id = r.Choice.ID
		case r.ChoiceID != nil:
			id = *r.ChoiceID
		default:
			return Validationf("no choice selected")
		}
		if !a.Activity.HasChoice(id) {
			return Validationf("choice %d does not belong to activity %d", id, a.Activity.ID)
		}
		r.ChoiceID = &id
	case ResultMultiSelect:
		for _, c := range r.Choices {
			if !a.Activity.HasChoice(c.ID) {
				return Validationf("choice %d does not belong to activity %d", c.ID, a.Activity.ID)
			}
		}
	}

	r.AssignmentID = a.ID
	a.Result = r
	return nil
}

// Validate re-checks the invariants between the loaded activity, media items and result.
func (a *Assignment) Validate() error {
	if a.Activity == nil {
		return nil
	}
	if err := checkMediaItemCount(a.Activity, len(a.MediaItems)); err != nil {
		return err
	}
	if a.Result != nil && a.Result.Type != a.Activity.ResultType() {
		return Validationf("result type %q does not match activity %d", a.Result.Type, a.Activity.ID)
	}
	return nil
}

func (a *Assignment) Correct() bool {
	if a.Activity == nil {
		return false
	}
	return a.Activity.IsCorrect(a.Result)
}

func (a *Assignment) Score() *int {
	if a.Activity == nil {
		return nil
	}
	return a.Activity.GetScore(a.Result)
}

func (a *Assignment) SetChoiceOrder(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.ChoiceOrder = datatypes.JSON(data)
	return nil
}

func (a *Assignment) GetChoiceOrder() []uint {
	var ids []uint
	if len(a.ChoiceOrder) == 0 {
		return ids
	}
	_ = json.Unmarshal(a.ChoiceOrder, &ids)
	return ids
}

// OrderedChoices returns the activity's choices in the stored order. Choices
// missing from the stored order keep their natural order at the end.
func (a *Assignment) OrderedChoices() []Choice {
	if a.Activity == nil {
		return nil
	}
	order := a.GetChoiceOrder()
	if len(order) == 0 {
		return a.Activity.Choices
	}
	byID := make(map[uint]Choice, len(a.Activity.Choices))
	for _, c := range a.Activity.Choices {
		byID[c.ID] = c
	}
	out := make([]Choice, 0, len(a.Activity.Choices))
	for _, id := range order {
		if c, ok := byID[id]; ok {
			out = append(out, c)
			delete(byID, id)
		}
	}
	for _, c := range a.Activity.Choices {
		if _, ok := byID[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}
