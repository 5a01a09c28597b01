package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"quizapp/backend/config"
	"quizapp/backend/models"
	"quizapp/backend/services"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DatasetsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewDatasetsController(db *gorm.DB, cfg *config.Config) *DatasetsController {
	return &DatasetsController{DB: db, Cfg: cfg}
}

type DatasetRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Info string `json:"info"`
}

// MediaItemRequest is accepted as JSON or as a multipart form carrying a
// "graph" file.
type MediaItemRequest struct {
	Type string `json:"type" form:"type" validate:"omitempty,oneof=graph text"`
	Name string `json:"name" form:"name" validate:"max=255"`
	Text string `json:"text" form:"text"`
}

func (dc *DatasetsController) ListDatasets(c *fiber.Ctx) error {
	var datasets []models.Dataset
	if err := dc.DB.Order("id").Find(&datasets).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, datasets)
}

func (dc *DatasetsController) CreateDataset(c *fiber.Ctx) error {
	var input DatasetRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	ds := models.Dataset{Name: input.Name, Info: input.Info}
	if err := dc.DB.Create(&ds).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, ds)
}

func (dc *DatasetsController) GetDataset(c *fiber.Ctx) error {
	ds, err := dc.loadDataset(c, "MediaItems")
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, ds)
}

func (dc *DatasetsController) UpdateDataset(c *fiber.Ctx) error {
	ds, err := dc.loadDataset(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input DatasetRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	ds.Name, ds.Info = input.Name, input.Info
	if err := dc.DB.Save(ds).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, ds)
}

func (dc *DatasetsController) DeleteDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := services.DeleteDataset(dc.DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

func (dc *DatasetsController) CreateMediaItem(c *fiber.Ctx) error {
	ds, err := dc.loadDataset(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input MediaItemRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	if input.Type == "" {
		return utils.ValidationError(c, map[string]string{"type": "failed on tag=required"})
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	item := models.MediaItem{DatasetID: ds.ID, Type: input.Type, Name: input.Name, Text: input.Text}
	if err := dc.storeGraph(c, &item); err != nil {
		return utils.HandleError(c, err)
	}
	if err := dc.DB.Create(&item).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, item)
}

// GetMediaItem godoc
// @Summary Show a media item
// @Description Graphs also report the URL their image is served from, or the placeholder image when the file is gone
// @Tags datasets
// @Produce json
// @Param id path int true "Dataset ID"
// @Param mid path int true "Media item ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /datasets/{id}/media_items/{mid} [get]
func (dc *DatasetsController) GetMediaItem(c *fiber.Ctx) error {
	item, err := dc.loadMediaItem(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	out := fiber.Map{
		"media_item": item,
		"type_name":  models.MediaItemTypeNames[item.Type],
	}
	if item.Type == models.MediaItemGraph {
		out["filename"] = item.Filename()
		out["url"] = dc.graphURL(item)
	}
	return utils.Success(c, fiber.StatusOK, out)
}

func (dc *DatasetsController) UpdateMediaItem(c *fiber.Ctx) error {
	item, err := dc.loadMediaItem(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input MediaItemRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if input.Type != "" && input.Type != item.Type {
		return utils.HandleError(c, models.Validationf("the type of media item %d cannot change", item.ID))
	}

	item.Name, item.Text = input.Name, input.Text
	if err := dc.storeGraph(c, item); err != nil {
		return utils.HandleError(c, err)
	}
	if err := dc.DB.Save(item).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, item)
}

func (dc *DatasetsController) DeleteMediaItem(c *fiber.Ctx) error {
	dsID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	mid, err := paramID(c, "mid")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := services.DeleteMediaItem(dc.DB, dsID, mid); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.NoContent(c)
}

// storeGraph saves an uploaded "graph" file under the graph directory and
// records its path on item. Requests without a file leave item untouched.
func (dc *DatasetsController) storeGraph(c *fiber.Ctx, item *models.MediaItem) error {
	header, err := c.FormFile("graph")
	if err != nil {
		return nil
	}
	if item.Type != models.MediaItemGraph {
		return models.Validationf("only graph media items take an image upload")
	}

	if err := os.MkdirAll(dc.Cfg.GraphDir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}
	path := filepath.Join(dc.Cfg.GraphDir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := c.SaveFile(header, path); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	slog.Info("Graph stored", "path", path, "size", header.Size)
	item.Path = path
	return nil
}

func (dc *DatasetsController) graphURL(item *models.MediaItem) string {
	if item.Path != "" {
		if _, err := os.Stat(item.Path); err == nil {
			return "/" + filepath.ToSlash(item.Path)
		}
	}
	return "/" + filepath.ToSlash(filepath.Join(dc.Cfg.GraphDir, dc.Cfg.PlaceholderGraph))
}

func (dc *DatasetsController) loadDataset(c *fiber.Ctx, preload ...string) (*models.Dataset, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	query := dc.DB
	for _, p := range preload {
		query = query.Preload(p)
	}
	var ds models.Dataset
	if err := query.First(&ds, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundf("dataset %d", id)
		}
		return nil, err
	}
	return &ds, nil
}

func (dc *DatasetsController) loadMediaItem(c *fiber.Ctx) (*models.MediaItem, error) {
	dsID, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	mid, err := paramID(c, "mid")
	if err != nil {
		return nil, err
	}
	return services.GetMediaItem(dc.DB, dsID, mid)
}
