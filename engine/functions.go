package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/viant/sqlite-kd/kdtree"
	"github.com/viant/sqlite-kd/vector"
	sqlite "modernc.org/sqlite"
)

// distanceFunctions maps SQL function names onto the metric they evaluate.
var distanceFunctions = map[string]kdtree.DistanceFunction{
	"vec_l2sq": kdtree.DistanceFunctionSquaredEuclidean,
	"vec_l2":   kdtree.DistanceFunctionEuclidean,
	"vec_l1":   kdtree.DistanceFunctionManhattan,
	"vec_linf": kdtree.DistanceFunctionChebyshev,
}

// registerFunction is the driver hook, swapped in tests.
var registerFunction = sqlite.RegisterDeterministicScalarFunction

// RegisterVectorFunctions registers vec_l2sq, vec_l2, vec_l1 and vec_linf
// with the driver so they are available on new connections opened after this
// call. Each takes two embedding BLOBs and returns the distance between them,
// in the same units the kd virtual table reports. Registering again is a
// no-op; any other driver error is returned.
// Note: existing open connections will not see new functions.
func RegisterVectorFunctions(_ *sql.DB) error {
	for name, kind := range distanceFunctions {
		if err := registerFunction(name, 2, distanceImpl(name, kind)); err != nil {
			if strings.Contains(err.Error(), "already registered") {
				continue
			}
			return fmt.Errorf("engine: register %s: %w", name, err)
		}
	}
	return nil
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	case string:
		return vector.ParseEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func distanceImpl(name string, kind kdtree.DistanceFunction) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asEmbedding(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asEmbedding(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		d, err := vector.Distance(kind, a, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return d, nil
	}
}
