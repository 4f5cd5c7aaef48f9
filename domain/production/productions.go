package production

import (
	"errors"

	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/flow"
	"prodflow/event"
	"prodflow/idgen"
	"prodflow/manufacturing"
	"prodflow/persistence"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	productionIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateProductionWithWorkflowFunc = CreateProductionWithWorkflow
	DetailProductionFunc             = DetailProduction
)

// CreateProductionWithWorkflow checks buildability, then creates the
// production record and its workflow in one transaction. A workflow
// initialization failure rolls the production creation back too.
func CreateProductionWithWorkflow(creation *domain.ProductionCreation, s *session.Session) (*domain.ProductionDetail, error) {
	if manufacturing.CheckBuildableFunc != nil {
		buildable, err := manufacturing.CheckBuildableFunc(creation.BomID, creation.Quantity, s)
		if err != nil {
			return nil, err
		}
		if !buildable {
			return nil, bizerror.ErrInsufficientMaterials
		}
	}

	var detail domain.ProductionDetail
	var ev *event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		now := types.CurrentTimestamp()
		prod := domain.Production{
			ID:    idgen.NextID(productionIdWorker),
			BomID: creation.BomID,

			Quantity:     creation.Quantity,
			LaborCost:    creation.LaborCost,
			OverheadCost: creation.OverheadCost,

			Notes:      creation.Notes,
			CreatedBy:  s.Identity.Name,
			CreateTime: now,
		}
		if err := tx.Create(&prod).Error; err != nil {
			return err
		}

		workflow, err := flow.InitializeWorkflowFunc(prod.ID, s, tx)
		if err != nil {
			return err
		}
		detail = domain.ProductionDetail{Production: prod, Workflow: *workflow}

		ev, err = flow.CreateProductionCreatedEvent(workflow, &s.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.DispatchEvent(ev)
	return &detail, nil
}

func DetailProduction(productionID types.ID) (*domain.Production, error) {
	prod := domain.Production{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where("id = ?", productionID).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &prod, nil
}
