package production

import (
	"time"

	"prodflow/domain"
	"prodflow/domain/flow"
	"prodflow/domain/status"
	"prodflow/persistence"

	"github.com/fundwit/go-commons/types"
)

var (
	GetWipDashboardFunc       = GetWipDashboard
	GetProductionTimelineFunc = GetProductionTimeline
	GetActiveProductionsFunc  = GetActiveProductions
	GetOverdueProductionsFunc = GetOverdueProductions
	GetEmployeeWorkloadFunc   = GetEmployeeWorkload
)

var terminalStatuses = []status.Status{status.Completed, status.Cancelled}

// GetWipDashboard aggregates the shop floor picture: per-status counts,
// today's completions, historical completion duration and on-time rate.
// Pure read path, no engine involvement.
func GetWipDashboard() (*domain.WipDashboard, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	dashboard := domain.WipDashboard{StatusCounts: map[status.Status]int{}}

	type statusCount struct {
		Status status.Status
		Count  int
	}
	counts := []statusCount{}
	if err := db.Model(&domain.ProductionWorkflow{}).Select("status, count(*) as count").
		Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		dashboard.StatusCounts[c.Status] = c.Count
		if !c.Status.IsTerminal() {
			dashboard.TotalActive += c.Count
		}
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&domain.ProductionWorkflow{}).
		Where("status = ? AND completed_at >= ?", status.Completed, types.Timestamp(startOfDay)).
		Count(&dashboard.CompletedToday).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&domain.ProductionWorkflow{}).
		Where("status NOT IN (?) AND estimated_completion_date != ? AND estimated_completion_date < ?",
			terminalStatuses, types.Timestamp{}, types.Timestamp(now)).
		Count(&dashboard.TotalOverdue).Error; err != nil {
		return nil, err
	}

	completed := []domain.ProductionWorkflow{}
	if err := db.Where(&domain.ProductionWorkflow{Status: status.Completed}).Find(&completed).Error; err != nil {
		return nil, err
	}

	totalHours := 0.0
	durationSamples := 0
	onTime := 0
	withEstimate := 0
	for _, w := range completed {
		if !w.ActualStartDate.IsZero() && !w.ActualEndDate.IsZero() {
			totalHours += w.ActualEndDate.Time().Sub(w.ActualStartDate.Time()).Hours()
			durationSamples++
		}
		if !w.EstimatedCompletionDate.IsZero() && !w.CompletedAt.IsZero() {
			withEstimate++
			if !w.CompletedAt.Time().After(w.EstimatedCompletionDate.Time()) {
				onTime++
			}
		}
	}
	if durationSamples > 0 {
		dashboard.AverageCompletionHours = totalHours / float64(durationSamples)
	}
	if withEstimate > 0 {
		dashboard.OnTimeRate = float64(onTime) / float64(withEstimate)
	}

	return &dashboard, nil
}

// GetProductionTimeline returns the workflow with its full audit trail,
// ordered by transition time.
func GetProductionTimeline(productionID types.ID) (*domain.ProductionTimeline, error) {
	workflow, err := flow.DetailWorkflowFunc(productionID)
	if err != nil {
		return nil, err
	}

	transitions, err := flow.QueryTransitionsFunc(&domain.TransitionQuery{ProductionID: productionID})
	if err != nil {
		return nil, err
	}
	return &domain.ProductionTimeline{Workflow: *workflow, Transitions: *transitions}, nil
}

func GetActiveProductions() (*[]domain.ProductionSummary, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	workflows := []domain.ProductionWorkflow{}
	if err := db.Where("status NOT IN (?)", terminalStatuses).
		Order("create_time ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return summarize(workflows), nil
}

// GetOverdueProductions overdue means estimate passed and not terminal.
func GetOverdueProductions() (*[]domain.ProductionSummary, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	workflows := []domain.ProductionWorkflow{}
	if err := db.Where("status NOT IN (?) AND estimated_completion_date != ? AND estimated_completion_date < ?",
		terminalStatuses, types.Timestamp{}, types.Timestamp(time.Now())).
		Order("estimated_completion_date ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return summarize(workflows), nil
}

// GetEmployeeWorkload counts non-terminal workflows per assignee. Serves
// the advisory assignment cap and the dashboards.
func GetEmployeeWorkload() ([]domain.EmployeeWorkload, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	workloads := []domain.EmployeeWorkload{}
	if err := db.Model(&domain.ProductionWorkflow{}).
		Select("assigned_to as assignee, count(*) as count").
		Where("status NOT IN (?) AND assigned_to != ''", terminalStatuses).
		Group("assigned_to").Scan(&workloads).Error; err != nil {
		return nil, err
	}
	return workloads, nil
}

func summarize(workflows []domain.ProductionWorkflow) *[]domain.ProductionSummary {
	summaries := make([]domain.ProductionSummary, 0, len(workflows))
	for _, w := range workflows {
		summaries = append(summaries, domain.ProductionSummary{
			ProductionID: w.ProductionID,
			Status:       w.Status,
			Priority:     w.Priority,
			AssignedTo:   w.AssignedTo,

			EstimatedCompletionDate: w.EstimatedCompletionDate,
			StartedAt:               w.StartedAt,
		})
	}
	return &summaries
}

// ListProductions paged listing of raw production records.
func ListProductions(page, size int) ([]domain.Production, error) {
	productions := []domain.Production{}
	db := persistence.ActiveDataSourceManager.GormDB()
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Order("id ASC").Offset(offset).Limit(size).Find(&productions).Error; err != nil {
		return nil, err
	}
	return productions, nil
}
