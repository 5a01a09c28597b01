package controllers

import (
	"errors"
	"sort"

	"quizapp/backend/config"
	"quizapp/backend/models"
	"quizapp/backend/services"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ActivitiesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewActivitiesController(db *gorm.DB, cfg *config.Config) *ActivitiesController {
	return &ActivitiesController{DB: db, Cfg: cfg}
}

type ActivityRequest struct {
	Type                models.ActivityType `json:"type" validate:"required"`
	Category            string              `json:"category" validate:"max=255"`
	NumMediaItems       *int                `json:"num_media_items" validate:"omitempty,min=-1"`
	IncludeInScorecards bool                `json:"include_in_scorecards"`
	Question            string              `json:"question"`
	Explanation         string              `json:"explanation"`
	Answer              *int                `json:"answer"`
	LowerBound          *int                `json:"lower_bound"`
	UpperBound          *int                `json:"upper_bound"`
	Title               string              `json:"title" validate:"max=255"`
	Prompt              string              `json:"prompt"`
}

func (r *ActivityRequest) apply(a *models.Activity) {
	a.Category = r.Category
	if r.NumMediaItems != nil {
		a.NumMediaItems = *r.NumMediaItems
	}
	a.IncludeInScorecards = r.IncludeInScorecards
	a.Question = r.Question
	a.Explanation = r.Explanation
	a.Answer = r.Answer
	a.LowerBound = r.LowerBound
	a.UpperBound = r.UpperBound
	a.Title = r.Title
	a.Prompt = r.Prompt
}

type ChoiceRequest struct {
	Choice  string `json:"choice" validate:"required_without=Label"`
	Label   string `json:"label" validate:"max=255"`
	Correct bool   `json:"correct"`
}

// ActivityTypes godoc
// @Summary List activity types
// @Tags activities
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /activities/types [get]
func (ac *ActivitiesController) ActivityTypes(c *fiber.Ctx) error {
	types := make([]fiber.Map, 0, len(models.ActivityTypeNames))
	for t, name := range models.ActivityTypeNames {
		types = append(types, fiber.Map{"type": t, "name": name})
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i]["type"].(models.ActivityType) < types[j]["type"].(models.ActivityType)
	})
	return utils.Success(c, fiber.StatusOK, types)
}

func (ac *ActivitiesController) ListActivities(c *fiber.Ctx) error {
	query := ac.DB.Order("id")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if cat := c.Query("category"); cat != "" {
		query = query.Where("category = ?", cat)
	}

	var activities []models.Activity
	if err := query.Find(&activities).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, activities)
}

func (ac *ActivitiesController) CreateActivity(c *fiber.Ctx) error {
	var input ActivityRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	act := models.NewActivity(input.Type)
	input.apply(act)
	if err := ac.DB.Create(act).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, act)
}

func (ac *ActivitiesController) GetActivity(c *fiber.Ctx) error {
	act, err := ac.loadActivity(c, "Choices", "Datasets")
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"activity":    act,
		"type_name":   models.ActivityTypeNames[act.Type],
		"is_question": act.IsQuestion(),
	})
}

func (ac *ActivitiesController) UpdateActivity(c *fiber.Ctx) error {
	act, err := ac.loadActivity(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input ActivityRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if input.Type != act.Type {
		return utils.HandleError(c, models.Validationf("the type of activity %d cannot change", act.ID))
	}
	if input.NumMediaItems != nil && *input.NumMediaItems != act.NumMediaItems {
		used, err := services.CountActivityAssignments(ac.DB, act.ID)
		if err != nil {
			return utils.HandleError(c, err)
		}
		if used > 0 {
			return utils.HandleError(c, models.Validationf("num_media_items of activity %d cannot change while %d assignments use it", act.ID, used))
		}
	}

	input.apply(act)
	if err := ac.DB.Save(act).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, act)
}

func (ac *ActivitiesController) DeleteActivity(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := services.DeleteActivity(ac.DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

func (ac *ActivitiesController) LinkDataset(c *fiber.Ctx) error {
	act, err := ac.loadActivity(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input struct {
		DatasetID uint `json:"dataset_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var ds models.Dataset
	if err := ac.DB.First(&ds, input.DatasetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.HandleError(c, models.NotFoundf("dataset %d", input.DatasetID))
		}
		return utils.HandleError(c, err)
	}
	if err := ac.DB.Model(act).Association("Datasets").Append(&ds); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"activity_id": act.ID, "dataset_id": ds.ID})
}

func (ac *ActivitiesController) UnlinkDataset(c *fiber.Ctx) error {
	act, err := ac.loadActivity(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dsID, err := paramID(c, "dsid")
	if err != nil {
		return utils.HandleError(c, err)
	}
	ds := models.Dataset{}
	ds.ID = dsID
	if err := ac.DB.Model(act).Association("Datasets").Delete(&ds); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

func (ac *ActivitiesController) CreateChoice(c *fiber.Ctx) error {
	act, err := ac.loadActivity(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	if !act.HasChoices() {
		return utils.HandleError(c, models.Validationf("%s activities have no choices", act.Type))
	}

	var input ChoiceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	choice := models.Choice{ActivityID: act.ID, Choice: input.Choice, Label: input.Label, Correct: input.Correct}
	if err := ac.DB.Create(&choice).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, choice)
}

func (ac *ActivitiesController) UpdateChoice(c *fiber.Ctx) error {
	choice, err := ac.loadChoice(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input ChoiceRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	choice.Choice, choice.Label, choice.Correct = input.Choice, input.Label, input.Correct
	if err := ac.DB.Save(choice).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, choice)
}

func (ac *ActivitiesController) DeleteChoice(c *fiber.Ctx) error {
	choice, err := ac.loadChoice(c)
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := ac.DB.Delete(choice).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

func (ac *ActivitiesController) loadActivity(c *fiber.Ctx, preload ...string) (*models.Activity, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	query := ac.DB
	for _, p := range preload {
		query = query.Preload(p)
	}
	var act models.Activity
	if err := query.First(&act, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundf("activity %d", id)
		}
		return nil, err
	}
	return &act, nil
}

func (ac *ActivitiesController) loadChoice(c *fiber.Ctx) (*models.Choice, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	cid, err := paramID(c, "cid")
	if err != nil {
		return nil, err
	}
	var choice models.Choice
	if err := ac.DB.Where("activity_id = ?", id).First(&choice, cid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundf("choice %d of activity %d", cid, id)
		}
		return nil, err
	}
	return &choice, nil
}
