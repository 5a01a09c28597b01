package services

import (
	"errors"
	"testing"
	"time"

	"quizapp/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultsWithoutParticipants(t *testing.T) {
	db := newTestDB(t)
	exp := seedExperiment(t, db, "empty")

	res, err := Results(db, exp.ID)
	require.NoError(t, err)
	assert.Zero(t, res.NumParticipants)
	assert.Zero(t, res.PercentFinished)
	assert.Empty(t, res.QuestionStats)

	_, err = Results(db, exp.ID+1)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestResultsCountsFinishedAndCorrect(t *testing.T) {
	db := newTestDB(t)
	exp := seedExperiment(t, db, "stats")
	mc := seedQuestion(t, db, models.TypeMultipleChoice)
	card := seedQuestion(t, db, models.TypeScorecard)
	seedTemplate(t, db, exp.ID, mc, card)
	seedTemplate(t, db, exp.ID, mc, card)
	seedTemplate(t, db, exp.ID, mc, card)

	answers := []uint{mc.Choices[0].ID, mc.Choices[1].ID}
	for i, choiceID := range answers {
		p := seedParticipant(t, db, []string{"ann", "bob"}[i])
		pe, err := GetOrCreateAssignmentSet(db, p.ID, exp.ID)
		require.NoError(t, err)
		_, _, err = RecordAnswer(db, p.ID, exp.ID, pe.Assignments[0].ID, Answer{ChoiceID: uintPtr(choiceID)})
		require.NoError(t, err)
		if i == 0 {
			_, err = Finalize(db, p.ID, exp.ID)
			require.NoError(t, err)
		}
	}

	res, err := Results(db, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.NumParticipants)
	assert.Equal(t, int64(1), res.NumFinished)
	assert.InDelta(t, 50.0, res.PercentFinished, 0.001)

	require.Len(t, res.QuestionStats, 1, "scorecards are not questions")
	st := res.QuestionStats[0]
	assert.Equal(t, mc.ID, st.ActivityID)
	assert.Equal(t, mc.Question, st.QuestionText)
	assert.Equal(t, 2, st.NumResponses)
	assert.Equal(t, 1, st.NumCorrect)
}

func TestListExperimentsByPhase(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	orig := now
	now = func() time.Time { return base }
	t.Cleanup(func() { now = orig })

	for _, e := range []models.Experiment{
		{Name: "old", Start: base.Add(-10 * day), Stop: base.Add(-5 * day)},
		{Name: "live", Start: base.Add(-day), Stop: base.Add(day)},
		{Name: "edge", Start: base, Stop: base.Add(day)},
		{Name: "soon", Start: base.Add(5 * day), Stop: base.Add(10 * day)},
	} {
		require.NoError(t, db.Create(&e).Error)
	}

	phases, err := ListExperiments(db)
	require.NoError(t, err)
	require.Len(t, phases.Past, 1)
	require.Len(t, phases.Present, 2)
	require.Len(t, phases.Future, 1)
	assert.Equal(t, "old", phases.Past[0].Name)
	assert.Equal(t, "soon", phases.Future[0].Name)
}

func TestDeleteExperimentCascades(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db, models.TypeFreeAnswer)
	p, pe := claimedSet(t, db, q)
	_, _, err := RecordAnswer(db, p.ID, pe.ExperimentID, pe.Assignments[0].ID, Answer{Text: "x"})
	require.NoError(t, err)

	require.NoError(t, DeleteExperiment(db, pe.ExperimentID))

	var sets, assignments, results int64
	require.NoError(t, db.Model(&models.ParticipantExperiment{}).Count(&sets).Error)
	require.NoError(t, db.Model(&models.Assignment{}).Count(&assignments).Error)
	require.NoError(t, db.Model(&models.Result{}).Count(&results).Error)
	assert.Zero(t, sets)
	assert.Zero(t, assignments)
	assert.Zero(t, results)

	assert.True(t, errors.Is(DeleteExperiment(db, pe.ExperimentID), models.ErrNotFound))

	// the activity is free again
	require.NoError(t, DeleteActivity(db, q.ID))
}

func TestDeleteActivityInUse(t *testing.T) {
	db := newTestDB(t)
	used := seedQuestion(t, db, models.TypeMultipleChoice)
	free := seedQuestion(t, db, models.TypeMultipleChoice)
	exp := seedExperiment(t, db, "uses")
	seedTemplate(t, db, exp.ID, used)

	assert.True(t, errors.Is(DeleteActivity(db, used.ID), models.ErrValidation))

	require.NoError(t, DeleteActivity(db, free.ID))
	var choices int64
	require.NoError(t, db.Model(&models.Choice{}).Where("activity_id = ?", free.ID).Count(&choices).Error)
	assert.Zero(t, choices)

	assert.True(t, errors.Is(DeleteActivity(db, free.ID), models.ErrNotFound))
}

func TestDeleteDatasetInUse(t *testing.T) {
	db := newTestDB(t)
	ds := &models.Dataset{Name: "graphs", MediaItems: []models.MediaItem{{Type: models.MediaItemText, Text: "t"}}}
	require.NoError(t, db.Create(ds).Error)
	q := seedQuestion(t, db, models.TypeFreeAnswer)
	exp := seedExperiment(t, db, "uses")

	_, err := CreateTemplateAssignmentSet(db, exp.ID, []AssignmentSpec{
		{ActivityID: q.ID, MediaItemIDs: []uint{ds.MediaItems[0].ID}},
	})
	require.NoError(t, err)

	assert.True(t, errors.Is(DeleteDataset(db, ds.ID), models.ErrValidation))
	assert.True(t, errors.Is(DeleteMediaItem(db, ds.ID, ds.MediaItems[0].ID), models.ErrValidation))

	require.NoError(t, DeleteExperiment(db, exp.ID))
	require.NoError(t, DeleteDataset(db, ds.ID))

	var items int64
	require.NoError(t, db.Model(&models.MediaItem{}).Where("dataset_id = ?", ds.ID).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCreateTemplateAssignmentSetChecksMediaItems(t *testing.T) {
	db := newTestDB(t)
	exp := seedExperiment(t, db, "strict")
	strict := models.NewActivity(models.TypeFreeAnswer)
	strict.NumMediaItems = 1
	require.NoError(t, db.Create(strict).Error)

	_, err := CreateTemplateAssignmentSet(db, exp.ID, []AssignmentSpec{{ActivityID: strict.ID}})
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = CreateTemplateAssignmentSet(db, exp.ID, []AssignmentSpec{{ActivityID: strict.ID, MediaItemIDs: []uint{42}}})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = CreateTemplateAssignmentSet(db, exp.ID, nil)
	assert.True(t, errors.Is(err, models.ErrValidation))

	sets, err := ListAssignmentSets(db, exp.ID)
	require.NoError(t, err)
	assert.Empty(t, sets, "failed builds leave nothing behind")
}
