package onboarding

import (
	"fmt"

	"github.com/ettle/strcase"
)

// StepDefinition describes a wizard step for rendering and routing.
type StepDefinition struct {
	Step           Step
	Name           string
	Title          string
	TitleLocalized map[string]string
}

var stepDefinitions = []StepDefinition{
	{
		Step:  StepIdentify,
		Name:  "IdentifyCharger",
		Title: "Identify your charger",
		TitleLocalized: map[string]string{
			"es": "Identifica tu cargador",
		},
	},
	{
		Step:  StepNetwork,
		Name:  "NetworkConfiguration",
		Title: "Configure the network",
		TitleLocalized: map[string]string{
			"es": "Configura la red",
		},
	},
	{
		Step:  StepConnection,
		Name:  "ConnectionTest",
		Title: "Test the connection",
		TitleLocalized: map[string]string{
			"es": "Prueba la conexión",
		},
	},
	{
		Step:  StepLocation,
		Name:  "Location",
		Title: "Where is it installed?",
		TitleLocalized: map[string]string{
			"es": "¿Dónde está instalado?",
		},
	},
	{
		Step:  StepCommercialization,
		Name:  "Commercialization",
		Title: "Private or commercial",
		TitleLocalized: map[string]string{
			"es": "Privado o comercial",
		},
	},
	{
		Step:  StepOperational,
		Name:  "OperationalDetails",
		Title: "Pricing and availability",
		TitleLocalized: map[string]string{
			"es": "Precio y disponibilidad",
		},
	},
	{
		Step:  StepSummary,
		Name:  "SummaryAndPublish",
		Title: "Review and publish",
		TitleLocalized: map[string]string{
			"es": "Revisa y publica",
		},
	},
}

// StepDefinitions returns the ordered step table.
func StepDefinitions() []StepDefinition {
	return append([]StepDefinition(nil), stepDefinitions...)
}

// Valid reports whether s is within the wizard bounds.
func (s Step) Valid() bool {
	return s >= StepIdentify && s <= StepSummary
}

// Definition returns the table entry for s.
func (s Step) Definition() (StepDefinition, bool) {
	if !s.Valid() {
		return StepDefinition{}, false
	}
	return stepDefinitions[int(s)-1], true
}

// Slug is the kebab-case step name used in routes and template keys.
func (s Step) Slug() string {
	def, ok := s.Definition()
	if !ok {
		return ""
	}
	return strcase.ToKebab(def.Name)
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return s.Slug()
}

// TitleForLocale returns the localized step title.
func (def StepDefinition) TitleForLocale(locale string) string {
	return ResolveLocalizedValue(def.TitleLocalized, locale, def.Title)
}

func (s Step) next() Step {
	if s >= StepSummary {
		return StepSummary
	}
	return s + 1
}

func (s Step) prev() Step {
	if s <= StepIdentify {
		return StepIdentify
	}
	return s - 1
}
