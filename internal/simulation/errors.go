package simulation

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
)

var (
	// ErrNoCandidateProducts is returned when the catalog offers nothing to score.
	ErrNoCandidateProducts = eris.New("no candidate products available")

	// ErrInvalidRequest is returned for non-positive amounts or terms.
	ErrInvalidRequest = model.ErrInvalidRequest
)
