package domain

import (
	"github.com/fundwit/go-commons/types"
)

// Production is the work order record the workflow is attached to.
type Production struct {
	ID    types.ID `json:"id" gorm:"primary_key"`
	BomID types.ID `json:"bomId"`

	Quantity     int     `json:"quantity"`
	LaborCost    float64 `json:"laborCost"`
	OverheadCost float64 `json:"overheadCost"`

	Notes     string `json:"notes"`
	CreatedBy string `json:"createdBy"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (p *Production) TableName() string {
	return "productions"
}

type ProductionCreation struct {
	BomID        types.ID `json:"bomId" validate:"required"`
	Quantity     int      `json:"quantity" validate:"required,min=1"`
	LaborCost    float64  `json:"laborCost" validate:"min=0"`
	OverheadCost float64  `json:"overheadCost" validate:"min=0"`
	Notes        string   `json:"notes"`
}
