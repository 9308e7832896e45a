// Package carbon converts land-cover areas and predicted canopy heights into
// biomass, carbon stock, sequestration, and a quality tier.
package carbon

import "github.com/rotisserie/eris"

// ErrInsufficientData reports a degenerate input (empty histogram, zero
// total area, or an empty sample partition) that would otherwise surface as
// a division by zero or NaN in the report.
var ErrInsufficientData = eris.New("insufficient data")
