package simulate

import "github.com/sells-group/cfsim/internal/model"

func scenarioRow() model.Row {
	return model.Row{
		Key:        model.Key{Year: 2024, Age: "20-24", Sex: "M"},
		Variable:   "mortality",
		Population: 100,
		Shares:     model.Shares{S1: 0.2, S2: 0.3, S3: 0.5},
		SN:         0.5,
		WS:         0.4,
		XAll:       0.35,
	}
}

func testRows() []model.Row {
	return []model.Row{
		{Key: model.Key{Year: 2025, Age: "20-24", Sex: "M"}, Variable: "v", Population: 100, Shares: model.Shares{S1: 0.2, S2: 0.5, S3: 0.3}, SN: 1.2, WS: 1.1, XAll: 10},
		{Key: model.Key{Year: 2024, Age: "25-29", Sex: "M"}, Variable: "v", Population: 150, Shares: model.Shares{S1: 0.3, S2: 0.4, S3: 0.3}, SN: 1.2, WS: 1.1, XAll: 15},
		{Key: model.Key{Year: 2024, Age: "30-34", Sex: "K"}, Variable: "v", Population: 120, Shares: model.Shares{S1: 0.25, S2: 0.45, S3: 0.3}, SN: 0.9, WS: 0.95, XAll: 12},
		{Key: model.Key{Year: 2025, Age: "35-39", Sex: "K"}, Variable: "v", Population: 180, Shares: model.Shares{S1: 0.35, S2: 0.35, S3: 0.3}, SN: 0.9, WS: 0.95, XAll: 18},
		{Key: model.Key{Year: 2023, Age: "40-44", Sex: "M"}, Variable: "v", Population: 90, Shares: model.Shares{S1: 0.1, S2: 0.6, S3: 0.3}, SN: 1, WS: 1, XAll: 7},
	}
}
