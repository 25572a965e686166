// Package model defines the records that flow through a counterfactual simulation run.
package model

import "fmt"

// Key identifies one demographic cell of the input tables.
type Key struct {
	Year int    `json:"year"`
	Age  string `json:"age"`
	Sex  string `json:"sex"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Year, k.Age, k.Sex)
}

// Shares holds the three allocation coefficients of a row.
type Shares struct {
	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	S3 float64 `json:"s3"`
}

// Sum returns S1+S2+S3. Shares are not required to sum to 1.
func (s Shares) Sum() float64 {
	return s.S1 + s.S2 + s.S3
}

// Row is one joined observation for a single target variable.
type Row struct {
	Key
	Variable   string  `json:"variable"`
	Population float64 `json:"population" validate:"gte=0"`
	Shares
	SN   float64 `json:"s_n"`   // secondary conditional share
	WS   float64 `json:"w_s"`   // tertiary conditional weight
	XAll float64 `json:"x_all"` // baseline total to decompose
}

// Flows are the per-row magnitudes x_1, x_2, x_3 derived from x_all.
// They are held fixed between baseline and counterfactual.
type Flows struct {
	X1 float64 `json:"x_1"`
	X2 float64 `json:"x_2"`
	X3 float64 `json:"x_3"`
}

// Combine returns s1*x_1 + s2*x_2 + s3*x_3.
func (f Flows) Combine(s Shares) float64 {
	return s.S1*f.X1 + s.S2*f.X2 + s.S3*f.X3
}
