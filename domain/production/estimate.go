package production

import (
	"time"

	"prodflow/domain"
	"prodflow/domain/status"
	"prodflow/persistence"

	"github.com/fundwit/go-commons/types"
)

// DefaultHoursPerUnit is assumed when no completed production history
// exists yet.
const DefaultHoursPerUnit = 2.0

var (
	EstimateCompletionTimeFunc = EstimateCompletionTime
	HistoricalHoursPerUnitFunc = HistoricalHoursPerUnit
)

// EstimateCompletionTime returns now + quantity * historical hours per
// unit.
func EstimateCompletionTime(productionID types.ID) (types.Timestamp, error) {
	prod, err := DetailProductionFunc(productionID)
	if err != nil {
		return types.Timestamp{}, err
	}

	perUnit, err := HistoricalHoursPerUnitFunc()
	if err != nil {
		return types.Timestamp{}, err
	}

	hours := float64(prod.Quantity) * perUnit
	estimate := time.Now().Add(time.Duration(hours * float64(time.Hour)))
	return types.Timestamp(estimate), nil
}

// HistoricalHoursPerUnit is the mean of (actualEnd - actualStart) / quantity
// across completed workflows carrying both timestamps.
func HistoricalHoursPerUnit() (float64, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	completed := []domain.ProductionWorkflow{}
	if err := db.Where(&domain.ProductionWorkflow{Status: status.Completed}).
		Where("actual_start_date != ? AND actual_end_date != ?", types.Timestamp{}, types.Timestamp{}).
		Find(&completed).Error; err != nil {
		return 0, err
	}

	total := 0.0
	samples := 0
	for _, w := range completed {
		prod := domain.Production{}
		if err := db.Where("id = ?", w.ProductionID).First(&prod).Error; err != nil {
			continue
		}
		if prod.Quantity <= 0 {
			continue
		}
		hours := w.ActualEndDate.Time().Sub(w.ActualStartDate.Time()).Hours()
		total += hours / float64(prod.Quantity)
		samples++
	}
	if samples == 0 {
		return DefaultHoursPerUnit, nil
	}
	return total / float64(samples), nil
}
