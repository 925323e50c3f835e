package domain

import (
	"fmt"
	"strings"
)

// MissingPolicy decide qué hacer con observaciones ausentes tras el join.
type MissingPolicy int

const (
	MissingDrop MissingPolicy = iota
	MissingInterpolate
)

// String implements fmt.Stringer.
func (m MissingPolicy) String() string {
	switch m {
	case MissingDrop:
		return "drop"
	case MissingInterpolate:
		return "interpolate"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(m))
	}
}

// Valid devuelve true si la política es una variante conocida.
func (m MissingPolicy) Valid() bool {
	return m == MissingDrop || m == MissingInterpolate
}

// ParseMissingPolicy convierte el valor de configuración en una política.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop":
		return MissingDrop, nil
	case "interpolate", "linear_interpolate", "linear":
		return MissingInterpolate, nil
	default:
		return 0, fmt.Errorf("unknown missing policy %q: %w", s, ErrConfiguration)
	}
}

// HedgeMethod selecciona el estimador del ratio de cobertura.
type HedgeMethod int

const (
	MethodMinVariance HedgeMethod = iota
	MethodOLS
	MethodCorrelationAdjusted
)

// String implements fmt.Stringer.
func (m HedgeMethod) String() string {
	switch m {
	case MethodMinVariance:
		return "min_variance"
	case MethodOLS:
		return "ols"
	case MethodCorrelationAdjusted:
		return "correlation_adjusted"
	default:
		return fmt.Sprintf("HedgeMethod(%d)", int(m))
	}
}

// Valid devuelve true si el método es una variante conocida.
func (m HedgeMethod) Valid() bool {
	return m >= MethodMinVariance && m <= MethodCorrelationAdjusted
}

// ParseHedgeMethod convierte el valor de configuración en un método.
func ParseHedgeMethod(s string) (HedgeMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min_variance", "minimum_variance", "mv":
		return MethodMinVariance, nil
	case "ols", "regression":
		return MethodOLS, nil
	case "correlation_adjusted", "correlation", "corr":
		return MethodCorrelationAdjusted, nil
	default:
		return 0, fmt.Errorf("unknown hedge method %q: %w", s, ErrConfiguration)
	}
}

// Direction es el lado de la exposición spot que se cubre.
//   - Inventory: largo spot (stock), cubre vendiendo futuros.
//   - Procurement: compra planificada (corto spot), cubre comprando futuros.
type Direction int

const (
	DirectionInventory Direction = iota
	DirectionProcurement
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case DirectionInventory:
		return "inventory"
	case DirectionProcurement:
		return "procurement"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid devuelve true si la dirección es una variante conocida.
func (d Direction) Valid() bool {
	return d == DirectionInventory || d == DirectionProcurement
}

// SpotSign es el signo de la exposición spot: +1 inventario, -1 compras.
func (d Direction) SpotSign() float64 {
	if d == DirectionProcurement {
		return -1
	}
	return 1
}

// ParseDirection convierte el valor de configuración en una dirección.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inventory", "short_hedge", "sell":
		return DirectionInventory, nil
	case "procurement", "long_hedge", "buy":
		return DirectionProcurement, nil
	default:
		return 0, fmt.Errorf("unknown hedge direction %q: %w", s, ErrConfiguration)
	}
}
