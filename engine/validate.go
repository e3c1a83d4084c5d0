package engine

import (
	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/schema"
)

// Validate checks a plot request against a dataset's columns. It is pure and
// runs before any row is read. Checks run in a fixed order and the first
// failure wins.
func Validate(req PlotRequest, columns schema.Columns) error {
	if !req.PlotType.Valid() {
		return apperrors.Validation("unsupported plot type")
	}

	x, ok := columns.Lookup(req.XAxis)
	if !ok {
		return apperrors.Validation("unknown x-axis column")
	}

	var y schema.Column
	hasY := req.YAxis != ""
	if req.PlotType.RequiresY() && !hasY {
		return apperrors.Validation("y-axis required")
	}
	if hasY {
		if y, ok = columns.Lookup(req.YAxis); !ok {
			if req.PlotType.RequiresY() {
				return apperrors.Validation("y-axis required")
			}
			return apperrors.Validation("unknown y-axis column")
		}
	}

	if err := req.Filters.Check(columns); err != nil {
		return err
	}

	switch req.PlotType {
	case Histogram:
		if x.Type != schema.Numeric {
			return apperrors.Validation("histogram requires numeric column")
		}
	case Bar:
		if hasY && y.Type != schema.Numeric {
			return apperrors.Validation("bar average requires numeric y-axis column")
		}
	case Scatter, Line:
		if y.Type != schema.Numeric {
			return apperrors.Validation("y-axis requires numeric column")
		}
	}

	return nil
}
