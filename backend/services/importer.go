package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"quizapp/backend/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	SheetParticipantExperiments = "Participant Experiments"
	SheetAssignments            = "Assignments"
)

// importSheets lists the sheets an assignment workbook carries, parents first.
var importSheets = []struct {
	name  string
	model interface{}
}{
	{SheetParticipantExperiments, &models.ParticipantExperiment{}},
	{SheetAssignments, &models.Assignment{}},
}

// Workbook is the read side of a spreadsheet. *excelize.File satisfies it.
type Workbook interface {
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
}

// ImportSummary counts the rows created per sheet.
type ImportSummary map[string]int

// importer rebuilds rows from a workbook. Ids written in the sheets are
// local to the workbook: they are never stored, but rows may reference
// each other through them.
type importer struct {
	tx           *gorm.DB
	ctx          context.Context
	experimentID uint
	// table -> sheet-local id -> object created earlier in this import
	mapping map[string]map[uint]reflect.Value
}

// ImportAssignments adds the sets and assignments of wb to the experiment.
// The import is all or nothing.
func ImportAssignments(db *gorm.DB, experimentID uint, wb Workbook) (ImportSummary, error) {
	summary := ImportSummary{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := GetExperiment(tx, experimentID); err != nil {
			return err
		}

		imp := &importer{
			tx:           tx,
			ctx:          tx.Statement.Context,
			experimentID: experimentID,
			mapping:      map[string]map[uint]reflect.Value{},
		}
		if imp.ctx == nil {
			imp.ctx = context.Background()
		}

		for _, sheet := range importSheets {
			rows, err := wb.GetRows(sheet.name)
			if err != nil {
				return models.Validationf("workbook has no sheet %q", sheet.name)
			}
			n, err := imp.importSheet(sheet.name, sheet.model, rows)
			if err != nil {
				return err
			}
			summary[sheet.name] = n
		}
		return nil
	})
	if err != nil {
		slog.Warn("Assignment import rolled back", "experiment_id", experimentID, "error", err)
		return nil, err
	}

	slog.Info("Assignments imported", "experiment_id", experimentID,
		"assignment_sets", summary[SheetParticipantExperiments], "assignments", summary[SheetAssignments])
	return summary, nil
}

func (imp *importer) importSheet(name string, model interface{}, rows [][]string) (int, error) {
	if len(rows) < 2 {
		return 0, nil
	}

	stmt := &gorm.Statement{DB: imp.tx}
	if err := stmt.Parse(model); err != nil {
		return 0, err
	}
	sch := stmt.Schema

	headers := rows[0]
	batch := reflect.MakeSlice(reflect.SliceOf(reflect.PointerTo(sch.ModelType)), 0, len(rows)-1)
	omit := map[string]struct{}{}

	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		obj := reflect.New(sch.ModelType)
		for col, cell := range row {
			if col >= len(headers) {
				break
			}
			header := strings.TrimSpace(headers[col])
			value := strings.TrimSpace(cell)
			if header == "" || value == "" {
				continue
			}
			omitted, err := imp.populate(sch, obj, header, value)
			if errors.Is(err, models.ErrNotFound) {
				return 0, fmt.Errorf("sheet %q row %d column %q: %w", name, i+2, header, err)
			}
			if err != nil {
				return 0, models.Validationf("sheet %q row %d column %q: %v", name, i+2, header, err)
			}
			if omitted != "" {
				omit[omitted] = struct{}{}
			}
		}

		if f := sch.LookUpField("ExperimentID"); f != nil {
			if err := f.Set(imp.ctx, obj.Elem(), imp.experimentID); err != nil {
				return 0, err
			}
		}
		if v, ok := obj.Interface().(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return 0, fmt.Errorf("sheet %q row %d: %w", name, i+2, err)
			}
		}
		batch = reflect.Append(batch, obj)
	}

	if batch.Len() == 0 {
		return 0, nil
	}

	omits := make([]string, 0, len(omit))
	for o := range omit {
		omits = append(omits, o)
	}
	q := imp.tx
	if len(omits) > 0 {
		q = q.Omit(omits...)
	}
	if err := q.Create(batch.Interface()).Error; err != nil {
		return 0, err
	}
	return batch.Len(), nil
}

// populate writes one cell into obj. It returns the association gorm must
// not save on its own, if any.
func (imp *importer) populate(sch *schema.Schema, obj reflect.Value, header, value string) (string, error) {
	rv := obj.Elem()

	if rel := imp.lookupRelationship(sch, header); rel != nil {
		switch rel.Type {
		case schema.BelongsTo:
			id, err := parseID(value)
			if err != nil {
				return "", err
			}
			target, err := imp.resolve(rel.FieldSchema, id)
			if err != nil {
				return "", err
			}
			if err := rel.Field.Set(imp.ctx, rv, target.Interface()); err != nil {
				return "", err
			}
			for _, ref := range rel.References {
				if ref.OwnPrimaryKey || ref.PrimaryKey == nil {
					continue
				}
				key, zero := ref.PrimaryKey.ValueOf(imp.ctx, target.Elem())
				if zero {
					return "", fmt.Errorf("%s %d is not saved yet", rel.FieldSchema.Table, id)
				}
				if err := ref.ForeignKey.Set(imp.ctx, rv, key); err != nil {
					return "", err
				}
			}
			return rel.Name, nil
		case schema.HasMany, schema.Many2Many:
			field := rel.Field.ReflectValueOf(imp.ctx, rv)
			for _, part := range strings.Split(value, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				id, err := parseID(part)
				if err != nil {
					return "", err
				}
				target, err := imp.resolve(rel.FieldSchema, id)
				if err != nil {
					return "", err
				}
				if field.Type().Elem().Kind() == reflect.Ptr {
					field.Set(reflect.Append(field, target))
				} else {
					field.Set(reflect.Append(field, target.Elem()))
				}
			}
			if rel.Type == schema.Many2Many {
				return rel.Name + ".*", nil
			}
			return "", nil
		default:
			return "", fmt.Errorf("relationship %s cannot be imported", rel.Name)
		}
	}

	field := sch.LookUpField(header)
	if field == nil {
		return "", fmt.Errorf("unknown column")
	}
	if field.PrimaryKey {
		id, err := parseID(value)
		if err != nil {
			return "", err
		}
		if imp.mapping[sch.Table] == nil {
			imp.mapping[sch.Table] = map[uint]reflect.Value{}
		}
		imp.mapping[sch.Table][id] = obj
		return "", nil
	}

	coerced, err := coerceCell(field, value)
	if err != nil {
		return "", err
	}
	return "", field.Set(imp.ctx, rv, coerced)
}

// resolve finds the object a sheet-local id refers to: first among the rows
// created by this import, then among persisted rows.
func (imp *importer) resolve(target *schema.Schema, id uint) (reflect.Value, error) {
	if obj, ok := imp.mapping[target.Table][id]; ok {
		return obj, nil
	}
	obj := reflect.New(target.ModelType)
	if err := imp.tx.First(obj.Interface(), id).Error; err != nil {
		return reflect.Value{}, orNotFound(err, target.Table, id)
	}
	if field := target.LookUpField("ExperimentID"); field != nil {
		owner, _ := field.ValueOf(imp.ctx, obj.Elem())
		if expID, ok := owner.(uint); !ok || expID != imp.experimentID {
			return reflect.Value{}, models.NotFoundf("%s %d is not part of experiment %d", target.Table, id, imp.experimentID)
		}
	}
	return obj, nil
}

// lookupRelationship matches a header against a relationship's field name,
// its snake_case name, or the foreign key column of a belongs-to.
func (imp *importer) lookupRelationship(sch *schema.Schema, header string) *schema.Relationship {
	for _, rel := range sch.Relationships.Relations {
		if rel.Name == header || imp.tx.NamingStrategy.ColumnName("", rel.Name) == header {
			return rel
		}
		if rel.Type != schema.BelongsTo {
			continue
		}
		for _, ref := range rel.References {
			if !ref.OwnPrimaryKey && ref.ForeignKey != nil && ref.ForeignKey.DBName == header {
				return rel
			}
		}
	}
	return nil
}

// parseID reads an identifier cell. Spreadsheets store numbers as floats,
// so "3.0" is id 3.
func parseID(value string) (uint, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxUint32 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return uint(f), nil
}

func coerceCell(field *schema.Field, value string) (interface{}, error) {
	switch field.DataType {
	case schema.Int:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		return int64(f), nil
	case schema.Uint:
		return parseID(value)
	case schema.Float:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", value)
		}
		return f, nil
	case schema.Bool:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f != 0, nil
		}
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", value)
		}
		return b, nil
	default:
		return value, nil
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
