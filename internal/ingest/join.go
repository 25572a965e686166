package ingest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/model"
)

// ContractViolation reports a join key (or variable) that is present in one
// input table but missing or duplicated in another.
type ContractViolation struct {
	Table    string
	Key      *model.Key
	Variable string
	Reason   string
}

func (e *ContractViolation) Error() string {
	subject := "variable " + e.Variable
	if e.Key != nil {
		subject = "key " + e.Key.String()
	}
	return fmt.Sprintf("ingest: contract violation: %s %s in %s", subject, e.Reason, e.Table)
}

// Violations returns every ContractViolation in err's chain, in order.
func Violations(err error) []*ContractViolation {
	var out []*ContractViolation
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if cv, ok := e.(*ContractViolation); ok {
			out = append(out, cv)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

func missing(table string, k model.Key) error {
	return &ContractViolation{Table: table, Key: &k, Reason: "missing"}
}

func duplicate(table string, k model.Key) error {
	return &ContractViolation{Table: table, Key: &k, Reason: "duplicated"}
}

// Variables lists the target variables that have both a value column and a
// parameters entry, in column order, minus exclude. A parameters entry with
// no value column is a ContractViolation.
func Variables(values ValueTable, params []ParameterRow, exclude []string) ([]string, error) {
	var errs []error
	for _, p := range params {
		if !slices.Contains(values.Variables, p.Variable) {
			errs = append(errs, &ContractViolation{Table: TableCounterfactual, Variable: p.Variable, Reason: "missing"})
		}
	}
	if len(errs) > 0 {
		return nil, eris.Wrap(errors.Join(errs...), "ingest: variables")
	}

	var out []string
	for _, v := range values.Variables {
		if slices.Contains(exclude, v) {
			continue
		}
		if slices.ContainsFunc(params, func(p ParameterRow) bool { return p.Variable == v }) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Join merges the structure, counterfactual value, parameters and population
// tables on (year, age, sex) for one variable. Rows follow the structure table
// order. Every key must appear exactly once in the structure, value and
// population tables; all violations are reported together.
func Join(
	variable string,
	structure []StructureRow,
	values ValueTable,
	params []ParameterRow,
	population []PopulationRow,
	labels SexLabels,
) ([]model.Row, error) {
	var errs []error

	var param *ParameterRow
	for i := range params {
		if params[i].Variable != variable {
			continue
		}
		if param != nil {
			errs = append(errs, &ContractViolation{Table: TableParameters, Variable: variable, Reason: "duplicated"})
			break
		}
		param = &params[i]
	}
	if param == nil {
		errs = append(errs, &ContractViolation{Table: TableParameters, Variable: variable, Reason: "missing"})
	}
	if !slices.Contains(values.Variables, variable) {
		errs = append(errs, &ContractViolation{Table: TableCounterfactual, Variable: variable, Reason: "missing"})
	}
	if len(errs) > 0 {
		return nil, eris.Wrap(errors.Join(errs...), "ingest: join")
	}

	pop := make(map[model.Key]float64, len(population))
	for _, p := range population {
		if _, dup := pop[p.Key]; dup {
			errs = append(errs, duplicate(TablePopulation, p.Key))
			continue
		}
		pop[p.Key] = p.Population
	}
	seenValues := make(map[model.Key]bool, len(values.Keys))
	for _, k := range values.Keys {
		if seenValues[k] {
			errs = append(errs, duplicate(TableCounterfactual, k))
		}
		seenValues[k] = true
	}

	seen := make(map[model.Key]bool, len(structure))
	rows := make([]model.Row, 0, len(structure))
	for _, s := range structure {
		if seen[s.Key] {
			errs = append(errs, duplicate(TableStructure, s.Key))
			continue
		}
		seen[s.Key] = true

		p, okPop := pop[s.Key]
		if !okPop {
			errs = append(errs, missing(TablePopulation, s.Key))
		}
		vals, okVal := values.Values[s.Key]
		if !okVal {
			errs = append(errs, missing(TableCounterfactual, s.Key))
		}
		if !okPop || !okVal {
			continue
		}

		sn, ws := param.conditional(s.Key, labels)
		rows = append(rows, model.Row{
			Key:        s.Key,
			Variable:   variable,
			Population: p,
			Shares:     s.Shares,
			SN:         sn,
			WS:         ws,
			XAll:       vals[variable],
		})
	}
	for _, p := range population {
		if !seen[p.Key] {
			errs = append(errs, missing(TableStructure, p.Key))
		}
	}
	for _, k := range values.Keys {
		if !seen[k] {
			errs = append(errs, missing(TableStructure, k))
		}
	}

	if len(errs) > 0 {
		return nil, eris.Wrap(errors.Join(errs...), "ingest: join")
	}
	return rows, nil
}

// conditional returns s_n and w_s for a cell; 1, 1 outside the configured ages
// or for sex codes that are neither label.
func (p *ParameterRow) conditional(k model.Key, labels SexLabels) (sn, ws float64) {
	if !slices.Contains(p.Ages, k.Age) {
		return 1, 1
	}
	switch k.Sex {
	case labels.Male:
		return p.SNMen, p.WSMen
	case labels.Female:
		return p.SNWomen, p.WSWomen
	default:
		return 1, 1
	}
}
