package models

// A single nutrition fact: numeric value plus the unit text it was
// scraped or imported with ("kcal", "g", "mg", …).
type NutritionValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type CarbohydrateInfo struct {
	Total   NutritionValue `json:"total"`
	Sugar   NutritionValue `json:"sugar"`
	Polyols NutritionValue `json:"polyols"`
}

type MineralInfo struct {
	Salt       NutritionValue `json:"salt"`
	Iron       NutritionValue `json:"iron"`
	Zinc       NutritionValue `json:"zinc"`
	Magnesium  NutritionValue `json:"magnesium"`
	Chloride   NutritionValue `json:"chloride"`
	Manganese  NutritionValue `json:"manganese"`
	Sulfur     NutritionValue `json:"sulfur"`
	Potassium  NutritionValue `json:"potassium"`
	Calcium    NutritionValue `json:"calcium"`
	Phosphorus NutritionValue `json:"phosphorus"`
	Copper     NutritionValue `json:"copper"`
	Fluoride   NutritionValue `json:"fluoride"`
	Iodine     NutritionValue `json:"iodine"`
}

// Nested per-100g nutrition view used in API payloads and import records.
type NutritionInfo struct {
	Kilojoules    NutritionValue   `json:"kilojoules"`
	Calories      NutritionValue   `json:"calories"`
	Protein       NutritionValue   `json:"protein"`
	Fat           NutritionValue   `json:"fat"`
	Carbohydrates CarbohydrateInfo `json:"carbohydrates"`
	Fiber         NutritionValue   `json:"fiber"`
	Caffeine      NutritionValue   `json:"caffeine"`
	Minerals      MineralInfo      `json:"minerals"`
}

// Info converts the flat table row into the nested JSON view.
func (n *FoodNutrition) Info() NutritionInfo {
	return NutritionInfo{
		Kilojoules: NutritionValue{Value: n.KilojoulesValue, Unit: n.KilojoulesUnit},
		Calories:   NutritionValue{Value: n.CaloriesValue, Unit: n.CaloriesUnit},
		Protein:    NutritionValue{Value: n.ProteinValue, Unit: n.ProteinUnit},
		Fat:        NutritionValue{Value: n.FatValue, Unit: n.FatUnit},
		Carbohydrates: CarbohydrateInfo{
			Total:   NutritionValue{Value: n.CarbohydratesTotalValue, Unit: n.CarbohydratesTotalUnit},
			Sugar:   NutritionValue{Value: n.CarbohydratesSugarValue, Unit: n.CarbohydratesSugarUnit},
			Polyols: NutritionValue{Value: n.CarbohydratesPolyolsValue, Unit: n.CarbohydratesPolyolsUnit},
		},
		Fiber:    NutritionValue{Value: n.FiberValue, Unit: n.FiberUnit},
		Caffeine: NutritionValue{Value: n.CaffeineValue, Unit: n.CaffeineUnit},
		Minerals: MineralInfo{
			Salt:       NutritionValue{Value: n.SaltValue, Unit: n.SaltUnit},
			Iron:       NutritionValue{Value: n.IronValue, Unit: n.IronUnit},
			Zinc:       NutritionValue{Value: n.ZincValue, Unit: n.ZincUnit},
			Magnesium:  NutritionValue{Value: n.MagnesiumValue, Unit: n.MagnesiumUnit},
			Chloride:   NutritionValue{Value: n.ChlorideValue, Unit: n.ChlorideUnit},
			Manganese:  NutritionValue{Value: n.ManganeseValue, Unit: n.ManganeseUnit},
			Sulfur:     NutritionValue{Value: n.SulfurValue, Unit: n.SulfurUnit},
			Potassium:  NutritionValue{Value: n.PotassiumValue, Unit: n.PotassiumUnit},
			Calcium:    NutritionValue{Value: n.CalciumValue, Unit: n.CalciumUnit},
			Phosphorus: NutritionValue{Value: n.PhosphorusValue, Unit: n.PhosphorusUnit},
			Copper:     NutritionValue{Value: n.CopperValue, Unit: n.CopperUnit},
			Fluoride:   NutritionValue{Value: n.FluorideValue, Unit: n.FluorideUnit},
			Iodine:     NutritionValue{Value: n.IodineValue, Unit: n.IodineUnit},
		},
	}
}

// FoodNutritionFromInfo flattens the nested view into a table row.
func FoodNutritionFromInfo(info NutritionInfo) FoodNutrition {
	return FoodNutrition{
		KilojoulesValue: info.Kilojoules.Value,
		KilojoulesUnit:  info.Kilojoules.Unit,
		CaloriesValue:   info.Calories.Value,
		CaloriesUnit:    info.Calories.Unit,
		ProteinValue:    info.Protein.Value,
		ProteinUnit:     info.Protein.Unit,
		FatValue:        info.Fat.Value,
		FatUnit:         info.Fat.Unit,

		CarbohydratesTotalValue:   info.Carbohydrates.Total.Value,
		CarbohydratesTotalUnit:    info.Carbohydrates.Total.Unit,
		CarbohydratesSugarValue:   info.Carbohydrates.Sugar.Value,
		CarbohydratesSugarUnit:    info.Carbohydrates.Sugar.Unit,
		CarbohydratesPolyolsValue: info.Carbohydrates.Polyols.Value,
		CarbohydratesPolyolsUnit:  info.Carbohydrates.Polyols.Unit,

		FiberValue:    info.Fiber.Value,
		FiberUnit:     info.Fiber.Unit,
		CaffeineValue: info.Caffeine.Value,
		CaffeineUnit:  info.Caffeine.Unit,

		SaltValue:       info.Minerals.Salt.Value,
		SaltUnit:        info.Minerals.Salt.Unit,
		IronValue:       info.Minerals.Iron.Value,
		IronUnit:        info.Minerals.Iron.Unit,
		ZincValue:       info.Minerals.Zinc.Value,
		ZincUnit:        info.Minerals.Zinc.Unit,
		MagnesiumValue:  info.Minerals.Magnesium.Value,
		MagnesiumUnit:   info.Minerals.Magnesium.Unit,
		ChlorideValue:   info.Minerals.Chloride.Value,
		ChlorideUnit:    info.Minerals.Chloride.Unit,
		ManganeseValue:  info.Minerals.Manganese.Value,
		ManganeseUnit:   info.Minerals.Manganese.Unit,
		SulfurValue:     info.Minerals.Sulfur.Value,
		SulfurUnit:      info.Minerals.Sulfur.Unit,
		PotassiumValue:  info.Minerals.Potassium.Value,
		PotassiumUnit:   info.Minerals.Potassium.Unit,
		CalciumValue:    info.Minerals.Calcium.Value,
		CalciumUnit:     info.Minerals.Calcium.Unit,
		PhosphorusValue: info.Minerals.Phosphorus.Value,
		PhosphorusUnit:  info.Minerals.Phosphorus.Unit,
		CopperValue:     info.Minerals.Copper.Value,
		CopperUnit:      info.Minerals.Copper.Unit,
		FluorideValue:   info.Minerals.Fluoride.Value,
		FluorideUnit:    info.Minerals.Fluoride.Unit,
		IodineValue:     info.Minerals.Iodine.Value,
		IodineUnit:      info.Minerals.Iodine.Unit,
	}
}
