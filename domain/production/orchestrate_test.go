package production_test

import (
	"errors"
	"os"
	"testing"

	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/flow"
	"prodflow/domain/production"
	"prodflow/domain/status"
	"prodflow/manufacturing"
	"prodflow/session"
	"prodflow/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func restoreStubs() {
	flow.DetailWorkflowFunc = flow.DetailWorkflow
	flow.TransitionStatusFunc = flow.TransitionStatus
	flow.StartProductionFunc = flow.StartProduction
	flow.AssignProductionFunc = flow.AssignProduction
	flow.CompleteQualityCheckFunc = flow.CompleteQualityCheck
	flow.PutOnHoldFunc = flow.PutOnHold
	flow.QueryTransitionsFunc = flow.QueryTransitions

	production.DetailProductionFunc = production.DetailProduction
	production.EstimateCompletionTimeFunc = production.EstimateCompletionTime
	production.GetEmployeeWorkloadFunc = production.GetEmployeeWorkload

	manufacturing.CheckBuildableFunc = nil
	manufacturing.PostFinishedGoodsFunc = nil
	manufacturing.ReturnReservedMaterialsFunc = nil
}

func TestUpdateProductionStatus(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "worker")

	t.Run("should forbid entering QUALITY_CHECK from anything but IN_PROGRESS", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}

		result := production.UpdateProductionStatus(flow.NewStatusCommand(1001, status.QualityCheck, "", "", "worker"), s)
		Expect(result.Success).To(BeFalse())
		Expect(result.ErrorKind).To(Equal(bizerror.KindInvalidState))
	})

	t.Run("should delegate to the engine otherwise", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.InProgress}, nil
		}
		var delegated *flow.TransitionCommand
		flow.TransitionStatusFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			delegated = c
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: c.NewStatus})
		}

		result := production.UpdateProductionStatus(flow.NewStatusCommand(1001, status.QualityCheck, "", "", "worker"), s)
		Expect(result.Success).To(BeTrue())
		Expect(delegated.NewStatus).To(Equal(status.QualityCheck))
	})
}

func TestCanStartProduction(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "worker")

	t.Run("planned and buildable is startable", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}
		production.DetailProductionFunc = func(productionID types.ID) (*domain.Production, error) {
			return &domain.Production{ID: productionID, BomID: 55, Quantity: 10}, nil
		}
		manufacturing.CheckBuildableFunc = func(bomID types.ID, quantity int, s *session.Session) (bool, error) {
			Expect(bomID).To(Equal(types.ID(55)))
			Expect(quantity).To(Equal(10))
			return true, nil
		}

		ok, err := production.CanStartProduction(1001, s)
		Expect(err).To(BeNil())
		Expect(ok).To(BeTrue())
	})

	t.Run("not planned is not startable", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.OnHold}, nil
		}

		ok, err := production.CanStartProduction(1001, s)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	t.Run("short materials is not startable", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}
		production.DetailProductionFunc = func(productionID types.ID) (*domain.Production, error) {
			return &domain.Production{ID: productionID, BomID: 55, Quantity: 10}, nil
		}
		manufacturing.CheckBuildableFunc = func(bomID types.ID, quantity int, s *session.Session) (bool, error) {
			return false, nil
		}

		ok, err := production.CanStartProduction(1001, s)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	t.Run("infrastructure faults propagate", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return nil, errors.New("connection refused")
		}

		ok, err := production.CanStartProduction(1001, s)
		Expect(err).ToNot(BeNil())
		Expect(ok).To(BeFalse())
	})
}

func TestStartProductionOrchestration(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "supervisor")

	t.Run("should fill in a computed estimate when none was supplied", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}
		computed := types.CurrentTimestamp()
		production.EstimateCompletionTimeFunc = func(productionID types.ID) (types.Timestamp, error) {
			return computed, nil
		}
		var delegated *flow.TransitionCommand
		flow.StartProductionFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			delegated = c
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.InProgress})
		}

		result := production.StartProduction(flow.NewStartCommand(1001, "worker-1", types.Timestamp{}, "", "supervisor"), s)
		Expect(result.Success).To(BeTrue())
		Expect(delegated.EstimatedCompletionDate).To(Equal(computed))
	})

	t.Run("should keep a caller supplied estimate", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}
		production.EstimateCompletionTimeFunc = func(productionID types.ID) (types.Timestamp, error) {
			t.Fatal("estimator must not be consulted")
			return types.Timestamp{}, nil
		}
		supplied := types.CurrentTimestamp()
		var delegated *flow.TransitionCommand
		flow.StartProductionFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			delegated = c
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.InProgress})
		}

		result := production.StartProduction(flow.NewStartCommand(1001, "", supplied, "", "supervisor"), s)
		Expect(result.Success).To(BeTrue())
		Expect(delegated.EstimatedCompletionDate).To(Equal(supplied))
	})

	t.Run("should fail fast when materials are short", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.Planned}, nil
		}
		production.DetailProductionFunc = func(productionID types.ID) (*domain.Production, error) {
			return &domain.Production{ID: productionID, BomID: 55, Quantity: 10}, nil
		}
		manufacturing.CheckBuildableFunc = func(bomID types.ID, quantity int, s *session.Session) (bool, error) {
			return false, nil
		}
		flow.StartProductionFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			t.Fatal("engine must not be reached")
			return flow.CommandResult{}
		}

		result := production.StartProduction(flow.NewStartCommand(1001, "", types.Timestamp{}, "", "supervisor"), s)
		Expect(result.Success).To(BeFalse())
		Expect(result.ErrorKind).To(Equal(bizerror.KindInsufficientMaterials))
	})
}

func TestCompleteProduction(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "inspector")

	t.Run("should only complete from QUALITY_CHECK", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.InProgress}, nil
		}

		result := production.CompleteProduction(1001, "inspector", s)
		Expect(result.Success).To(BeFalse())
		Expect(result.ErrorKind).To(Equal(bizerror.KindInvalidState))
	})

	t.Run("should post finished goods on success", func(t *testing.T) {
		flow.DetailWorkflowFunc = func(productionID types.ID) (*domain.ProductionWorkflow, error) {
			return &domain.ProductionWorkflow{ProductionID: productionID, Status: status.QualityCheck}, nil
		}
		flow.TransitionStatusFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			Expect(c.NewStatus).To(Equal(status.Completed))
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.Completed})
		}
		posted := types.ID(0)
		manufacturing.PostFinishedGoodsFunc = func(productionID types.ID, s *session.Session) error {
			posted = productionID
			return nil
		}

		result := production.CompleteProduction(1001, "inspector", s)
		Expect(result.Success).To(BeTrue())
		Expect(posted).To(Equal(types.ID(1001)))
	})
}

func TestProcessQualityCheck(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "inspector")

	t.Run("passing check chains finished goods posting", func(t *testing.T) {
		flow.CompleteQualityCheckFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.Completed})
		}
		posted := false
		manufacturing.PostFinishedGoodsFunc = func(productionID types.ID, s *session.Session) error {
			posted = true
			return nil
		}

		result := production.ProcessQualityCheck(flow.NewQualityCheckCommand(1001, true, "", "qc-1", "inspector"), s)
		Expect(result.Success).To(BeTrue())
		Expect(posted).To(BeTrue())
	})

	t.Run("failing check does not post", func(t *testing.T) {
		flow.CompleteQualityCheckFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.InProgress})
		}
		manufacturing.PostFinishedGoodsFunc = func(productionID types.ID, s *session.Session) error {
			t.Fatal("must not post finished goods of a failed check")
			return nil
		}

		result := production.ProcessQualityCheck(flow.NewQualityCheckCommand(1001, false, "", "qc-1", "inspector"), s)
		Expect(result.Success).To(BeTrue())
	})
}

func TestAssignProductionOrchestration(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "supervisor")

	t.Run("the workload cap is advisory: assignment over cap still proceeds", func(t *testing.T) {
		production.GetEmployeeWorkloadFunc = func() ([]domain.EmployeeWorkload, error) {
			return []domain.EmployeeWorkload{{Assignee: "worker-1", Count: production.DefaultWorkloadSoftCap + 3}}, nil
		}
		flow.AssignProductionFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, AssignedTo: c.AssignTo})
		}

		result := production.AssignProduction(flow.NewAssignCommand(1001, "worker-1", "", "supervisor"), s)
		Expect(result.Success).To(BeTrue())
		Expect(result.Data.AssignedTo).To(Equal("worker-1"))
	})
}

func TestCancelProduction(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "supervisor")

	t.Run("should release reserved materials after cancellation", func(t *testing.T) {
		flow.TransitionStatusFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			Expect(c.Kind).To(Equal(flow.CommandCancel))
			Expect(c.Reason).To(Equal("customer cancelled"))
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.Cancelled})
		}
		returned := types.ID(0)
		manufacturing.ReturnReservedMaterialsFunc = func(productionID types.ID, s *session.Session) error {
			returned = productionID
			return nil
		}

		result := production.CancelProduction(1001, "customer cancelled", "supervisor", s)
		Expect(result.Success).To(BeTrue())
		Expect(returned).To(Equal(types.ID(1001)))
	})

	t.Run("should not release materials when cancellation is rejected", func(t *testing.T) {
		flow.TransitionStatusFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			return flow.FailureResult(bizerror.ErrMissingReason)
		}
		manufacturing.ReturnReservedMaterialsFunc = func(productionID types.ID, s *session.Session) error {
			t.Fatal("must not release materials")
			return nil
		}

		result := production.CancelProduction(1001, "", "supervisor", s)
		Expect(result.Success).To(BeFalse())
	})
}

func TestHandleExceptions(t *testing.T) {
	RegisterTestingT(t)
	defer restoreStubs()

	s := testinfra.BuildSession(100, "worker")

	t.Run("material shortage and equipment issue both hold with tagged reasons", func(t *testing.T) {
		var reasons []string
		flow.PutOnHoldFunc = func(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
			reasons = append(reasons, c.Reason)
			return flow.SuccessResult(&domain.ProductionWorkflow{ProductionID: c.ProductionID, Status: status.OnHold})
		}

		Expect(production.HandleMaterialShortage(1001, "no steel", "worker", s).Success).To(BeTrue())
		Expect(production.HandleEquipmentIssue(1001, "press down", "worker", s).Success).To(BeTrue())
		Expect(reasons).To(Equal([]string{"material shortage: no steel", "equipment issue: press down"}))
	})
}

func TestWorkloadSoftCap(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should fall back to the default on unset or invalid values", func(t *testing.T) {
		os.Unsetenv("WORKLOAD_SOFT_CAP")
		Expect(production.WorkloadSoftCap()).To(Equal(production.DefaultWorkloadSoftCap))

		os.Setenv("WORKLOAD_SOFT_CAP", "not-a-number")
		Expect(production.WorkloadSoftCap()).To(Equal(production.DefaultWorkloadSoftCap))

		os.Setenv("WORKLOAD_SOFT_CAP", "-1")
		Expect(production.WorkloadSoftCap()).To(Equal(production.DefaultWorkloadSoftCap))

		os.Setenv("WORKLOAD_SOFT_CAP", "8")
		Expect(production.WorkloadSoftCap()).To(Equal(8))
		os.Unsetenv("WORKLOAD_SOFT_CAP")
	})
}
