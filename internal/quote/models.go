package quote

// QuoteRequest is the raw form submission as posted by the site. Nothing in
// here is trusted until it has been through Validate and SanitizeFormData.
type QuoteRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	City         string      `json:"city,omitempty"`
	ProjectType  ProjectType `json:"projectType"`
	Message      string      `json:"message"`
	Wizard       *WizardData `json:"wizardData,omitempty"`
	CaptchaToken string      `json:"captchaToken,omitempty"`
}

// WizardData carries the optional multi-step configurator answers.
type WizardData struct {
	ServiceType ServiceType     `json:"serviceType,omitempty"`
	PoolType    PoolType        `json:"poolType,omitempty"`
	Dimensions  DimensionBucket `json:"dimensions,omitempty"`
	Terrain     TerrainType     `json:"terrain,omitempty"`
	Budget      BudgetBucket    `json:"budget,omitempty"`
	Timeline    TimelineBucket  `json:"timeline,omitempty"`
	PostalCode  string          `json:"postalCode,omitempty"`
}

// Result is the outcome of field validation: a validity flag plus one
// human-readable French message per violated rule.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// SanitizedQuote mirrors QuoteRequest with every free-text field HTML-escaped
// and email/phone normalized. It is the only shape the mailer accepts.
type SanitizedQuote struct {
	Name        string
	Email       string
	Phone       string
	City        string
	ProjectType ProjectType
	Message     string
	Wizard      *WizardData
}

// ProjectType is the top-level project category of the contact form.
type ProjectType string

const (
	ProjectNewPool     ProjectType = "nouvelle-piscine"
	ProjectRenovation  ProjectType = "renovation"
	ProjectMaintenance ProjectType = "entretien"
	ProjectOther       ProjectType = "autre"
)

func (p ProjectType) Valid() bool {
	switch p {
	case ProjectNewPool, ProjectRenovation, ProjectMaintenance, ProjectOther:
		return true
	}
	return false
}

func (p ProjectType) Label() string {
	switch p {
	case ProjectNewPool:
		return "Nouvelle piscine"
	case ProjectRenovation:
		return "Rénovation"
	case ProjectMaintenance:
		return "Entretien"
	case ProjectOther:
		return "Autre projet"
	}
	return string(p)
}

// ServiceType is the wizard's requested service.
type ServiceType string

const (
	ServiceConstruction ServiceType = "construction"
	ServiceRenovation   ServiceType = "renovation"
	ServiceMaintenance  ServiceType = "entretien"
	ServiceRepair       ServiceType = "depannage"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceConstruction, ServiceRenovation, ServiceMaintenance, ServiceRepair:
		return true
	}
	return false
}

func (s ServiceType) Label() string {
	switch s {
	case ServiceConstruction:
		return "Construction neuve"
	case ServiceRenovation:
		return "Rénovation"
	case ServiceMaintenance:
		return "Entretien"
	case ServiceRepair:
		return "Dépannage"
	}
	return string(s)
}

// PoolType is the wizard's pool construction type.
type PoolType string

const (
	PoolInGround     PoolType = "enterree"
	PoolSemiInGround PoolType = "semi-enterree"
	PoolAboveGround  PoolType = "hors-sol"
	PoolLapPool      PoolType = "couloir-de-nage"
	PoolIndoor       PoolType = "interieure"
)

func (p PoolType) Valid() bool {
	switch p {
	case PoolInGround, PoolSemiInGround, PoolAboveGround, PoolLapPool, PoolIndoor:
		return true
	}
	return false
}

func (p PoolType) Label() string {
	switch p {
	case PoolInGround:
		return "Piscine enterrée"
	case PoolSemiInGround:
		return "Piscine semi-enterrée"
	case PoolAboveGround:
		return "Piscine hors-sol"
	case PoolLapPool:
		return "Couloir de nage"
	case PoolIndoor:
		return "Piscine intérieure"
	}
	return string(p)
}

// DimensionBucket is the wizard's surface-area bucket.
type DimensionBucket string

const (
	DimensionSmall  DimensionBucket = "moins-20m2"
	DimensionMedium DimensionBucket = "20-40m2"
	DimensionLarge  DimensionBucket = "40-70m2"
	DimensionXLarge DimensionBucket = "plus-70m2"
	DimensionCustom DimensionBucket = "sur-mesure"
)

func (d DimensionBucket) Valid() bool {
	switch d {
	case DimensionSmall, DimensionMedium, DimensionLarge, DimensionXLarge, DimensionCustom:
		return true
	}
	return false
}

func (d DimensionBucket) Label() string {
	switch d {
	case DimensionSmall:
		return "Moins de 20 m²"
	case DimensionMedium:
		return "20 à 40 m²"
	case DimensionLarge:
		return "40 à 70 m²"
	case DimensionXLarge:
		return "Plus de 70 m²"
	case DimensionCustom:
		return "Sur mesure"
	}
	return string(d)
}

// TerrainType is the wizard's terrain category.
type TerrainType string

const (
	TerrainFlat        TerrainType = "plat"
	TerrainGentleSlope TerrainType = "pente-legere"
	TerrainSteepSlope  TerrainType = "pente-forte"
	TerrainRocky       TerrainType = "rocheux"
	TerrainHardAccess  TerrainType = "acces-difficile"
)

func (t TerrainType) Valid() bool {
	switch t {
	case TerrainFlat, TerrainGentleSlope, TerrainSteepSlope, TerrainRocky, TerrainHardAccess:
		return true
	}
	return false
}

func (t TerrainType) Label() string {
	switch t {
	case TerrainFlat:
		return "Terrain plat"
	case TerrainGentleSlope:
		return "Pente légère"
	case TerrainSteepSlope:
		return "Pente forte"
	case TerrainRocky:
		return "Terrain rocheux"
	case TerrainHardAccess:
		return "Accès difficile"
	}
	return string(t)
}

// BudgetBucket is the wizard's budget range.
type BudgetBucket string

const (
	BudgetUnder20k BudgetBucket = "moins-20k"
	Budget20to35k  BudgetBucket = "20k-35k"
	Budget35to50k  BudgetBucket = "35k-50k"
	Budget50to80k  BudgetBucket = "50k-80k"
	BudgetOver80k  BudgetBucket = "plus-80k"
	BudgetUnknown  BudgetBucket = "a-definir"
)

func (b BudgetBucket) Valid() bool {
	switch b {
	case BudgetUnder20k, Budget20to35k, Budget35to50k, Budget50to80k, BudgetOver80k, BudgetUnknown:
		return true
	}
	return false
}

func (b BudgetBucket) Label() string {
	switch b {
	case BudgetUnder20k:
		return "Moins de 20 000 €"
	case Budget20to35k:
		return "20 000 € à 35 000 €"
	case Budget35to50k:
		return "35 000 € à 50 000 €"
	case Budget50to80k:
		return "50 000 € à 80 000 €"
	case BudgetOver80k:
		return "Plus de 80 000 €"
	case BudgetUnknown:
		return "À définir"
	}
	return string(b)
}

// TimelineBucket is the wizard's desired start window.
type TimelineBucket string

const (
	TimelineUrgent       TimelineBucket = "urgent"
	TimelineThreeMonths  TimelineBucket = "3-mois"
	TimelineSixMonths    TimelineBucket = "6-mois"
	TimelineTwelveMonths TimelineBucket = "12-mois"
	TimelineExploring    TimelineBucket = "exploration"
)

func (t TimelineBucket) Valid() bool {
	switch t {
	case TimelineUrgent, TimelineThreeMonths, TimelineSixMonths, TimelineTwelveMonths, TimelineExploring:
		return true
	}
	return false
}

func (t TimelineBucket) Label() string {
	switch t {
	case TimelineUrgent:
		return "Dès que possible"
	case TimelineThreeMonths:
		return "Dans les 3 mois"
	case TimelineSixMonths:
		return "Dans les 6 mois"
	case TimelineTwelveMonths:
		return "Dans l'année"
	case TimelineExploring:
		return "Simple renseignement"
	}
	return string(t)
}
