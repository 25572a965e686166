package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cfsim/internal/model"
)

func TestParseStructure(t *testing.T) {
	t.Parallel()

	rows, err := ParseStructure(structureSheet())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, model.Key{Year: 2023, Age: "20-24", Sex: "M"}, rows[0].Key)
	assert.Equal(t, model.Shares{S1: 0.5, S2: 0.3, S3: 0.2}, rows[0].Shares)
	// comma decimal separator
	assert.InDelta(t, 0.4, rows[1].S1, 1e-12)
}

func TestParseStructure_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rows    [][]string
		wantErr string
	}{
		{
			name:    "empty",
			rows:    nil,
			wantErr: "empty table",
		},
		{
			name:    "missing column",
			rows:    [][]string{{"year", "age", "sex", "s1", "s2"}},
			wantErr: `missing column "s3"`,
		},
		{
			name: "bad number",
			rows: [][]string{
				{"year", "age", "sex", "s1", "s2", "s3"},
				{"2023", "20-24", "M", "abc", "0.3", "0.2"},
			},
			wantErr: "structure line 2: parse s1",
		},
		{
			name: "empty cell",
			rows: [][]string{
				{"year", "age", "sex", "s1", "s2", "s3"},
				{"2023", "20-24", "M", "0.5", "", "0.2"},
			},
			wantErr: "structure line 2: empty s2",
		},
		{
			name: "fractional year",
			rows: [][]string{
				{"year", "age", "sex", "s1", "s2", "s3"},
				{"2023.5", "20-24", "M", "0.5", "0.3", "0.2"},
			},
			wantErr: "is not an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseStructure(tt.rows)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseStructure_SkipsBlankRows(t *testing.T) {
	t.Parallel()

	rows := structureSheet()
	rows = append(rows[:2], append([][]string{{"", " ", ""}}, rows[2:]...)...)

	parsed, err := ParseStructure(rows)
	require.NoError(t, err)
	assert.Len(t, parsed, 3)
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	vt, err := ParseValues(valuesSheet())
	require.NoError(t, err)

	assert.Equal(t, []string{"income", "hours"}, vt.Variables)
	require.Len(t, vt.Keys, 3)
	k := model.Key{Year: 2023, Age: "65+", Sex: "M"}
	assert.Equal(t, 50.0, vt.Values[k]["income"])
	assert.Equal(t, 5.0, vt.Values[k]["hours"])
}

func TestParseValues_HeaderCase(t *testing.T) {
	t.Parallel()

	vt, err := ParseValues([][]string{
		{"Year", "AGE", "Sex", "Income"},
		{"2024", "30-34", "K", "12.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Income"}, vt.Variables)
	assert.Equal(t, 12.5, vt.Values[model.Key{Year: 2024, Age: "30-34", Sex: "K"}]["Income"])
}

func TestParseValues_DuplicateVariableColumns(t *testing.T) {
	t.Parallel()

	for _, header := range [][]string{
		{"year", "age", "sex", "Income", "income"},
		{"year", "age", "sex", "hours", "HOURS "},
	} {
		_, err := ParseValues([][]string{
			header,
			{"2024", "30-34", "K", "12.5", "99"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate variable column")
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{raw: "0.25", want: 0.25},
		{raw: "0,25", want: 0.25},
		{raw: "1234", want: 1234},
		{raw: "-1,5", want: -1.5},
		{raw: "1e-3", want: 0.001},
		{raw: "1,234.5", wantErr: true},
		{raw: "1.234,5", wantErr: true},
		{raw: "1,234,567", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := parseNumber(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParsePopulation_ThousandsSeparatorRejected(t *testing.T) {
	t.Parallel()

	_, err := ParsePopulation([][]string{
		{"year", "age", "sex", "population"},
		{"2023", "20-24", "M", "1,234,000"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population line 2: parse population")
	assert.Contains(t, err.Error(), "ambiguous decimal separator")
}

func TestParseParameters(t *testing.T) {
	t.Parallel()

	params, err := ParseParameters(parametersSheet())
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, ParameterRow{
		Variable: "income",
		SNMen:    0.8, SNWomen: 0.6,
		WSMen: 0.5, WSWomen: 0.4,
		Ages: []string{"20-24"},
	}, params[0])
	assert.Equal(t, []string{"20-24", "25-29"}, params[1].Ages)
}

func TestParseParameters_EmptyVariable(t *testing.T) {
	t.Parallel()

	_, err := ParseParameters([][]string{
		{"variable", "s_n_men", "s_n_women", "w_s_men", "w_s_women"},
		{"", "1", "1", "1", "1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty variable")
}

func TestParsePopulation(t *testing.T) {
	t.Parallel()

	pop, err := ParsePopulation(populationSheet())
	require.NoError(t, err)
	require.Len(t, pop, 3)
	assert.Equal(t, 1100.0, pop[1].Population)
}
