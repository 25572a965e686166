package ingest

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(rowStructLevel, model.Row{})
	return v
}

// rowStructLevel checks baseline shares lie in [0,1] and every numeric input
// is finite. Counterfactual shares are not validated: they are unconstrained.
func rowStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(model.Row)
	for _, f := range []struct {
		name  string
		value float64
	}{{"S1", r.S1}, {"S2", r.S2}, {"S3", r.S3}} {
		if f.value < 0 || f.value > 1 || math.IsNaN(f.value) {
			sl.ReportError(f.value, f.name, f.name, "share", "")
		}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{{"Population", r.Population}, {"SN", r.SN}, {"WS", r.WS}, {"XAll", r.XAll}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			sl.ReportError(f.value, f.name, f.name, "finite", "")
		}
	}
}

// ValidateRows checks every joined row and reports all failures keyed by cell.
func ValidateRows(rows []model.Row) error {
	var errs []error
	for _, r := range rows {
		err := validate.Struct(r)
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return eris.Wrap(err, "ingest: validate")
		}
		for _, fe := range fieldErrs {
			errs = append(errs, eris.Errorf("row %s %s: %s failed %q (value %v)",
				r.Key, r.Variable, fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	if len(errs) > 0 {
		return eris.Wrap(errors.Join(errs...), "ingest: validate rows")
	}
	return nil
}
