package manufacturing

import (
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
)

// Boundary of the manufacturing/BOM and inventory subsystems. The
// surrounding application assigns real implementations at bootstrap;
// a nil hook is skipped.

// CheckBuildableFunc answers whether enough raw materials exist to build
// the given quantity from the bill of materials.
var CheckBuildableFunc func(bomID types.ID, quantity int, s *session.Session) (bool, error)

// PostFinishedGoodsFunc posts completed units into finished goods
// inventory once a production reaches COMPLETED.
var PostFinishedGoodsFunc func(productionID types.ID, s *session.Session) error

// ReturnReservedMaterialsFunc releases material reservations of a
// cancelled production.
var ReturnReservedMaterialsFunc func(productionID types.ID, s *session.Session) error
