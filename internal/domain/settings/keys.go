package settings

// Key names a legal constant. The string value is the label stored in the
// legal_settings table.
type Key string

const (
	KeyTichetDeMasa           Key = "Valoare tichet de masa - default clienti BONO"
	KeySalariuCIM             Key = "Salariul CIM clienti Bono"
	KeySalariulMinim          Key = "Salariul minim pe economie"
	KeyDeducereMinor          Key = "Deducere / minor in intretinere"
	KeyDeducereTineri         Key = "Deducere pentru tineri <26 ani"
	KeySumaScutita            Key = "Suma scutita de taxe"
	KeyCAS                    Key = "CAS"
	KeyCASS                   Key = "CASS"
	KeyCotaImpozit            Key = "Cota impozit"
	KeyCAM                    Key = "CAM"
	KeyZileCOOdihna           Key = "Numar zile CO odihna / an - default clienti BONO"
	KeyZileCOMedicalNeplatite Key = "Primele x zile de CO medical neplatite, cf. legii"
	KeyIndemnizatieCOMedical  Key = "Indemnizatie CO medical"
	KeyIndemnizatieCOOdihna   Key = "Indemnizatie CO odihna"

	// legacyKeyTichetDeMasa is the label used before the BONO default existed.
	legacyKeyTichetDeMasa Key = "Valoare tichet de masa"
)

type Section string

const (
	SectionSalariu  Section = "Salariu"
	SectionDeduceri Section = "Deduceri"
	SectionTaxe     Section = "Taxe"
	SectionConcedii Section = "Concedii"
)

type Definition struct {
	Key        Key     `json:"key"`
	Section    Section `json:"section"`
	Default    float64 `json:"default"`
	Percentage bool    `json:"percentage"`
}

// Definitions lists every known constant in display order.
var Definitions = []Definition{
	{Key: KeyTichetDeMasa, Section: SectionSalariu, Default: 40},
	{Key: KeySalariuCIM, Section: SectionSalariu, Default: 4050},
	{Key: KeySalariulMinim, Section: SectionSalariu, Default: 4050},
	{Key: KeyDeducereMinor, Section: SectionDeduceri, Default: 100},
	{Key: KeyDeducereTineri, Section: SectionDeduceri, Default: 607.5},
	{Key: KeySumaScutita, Section: SectionDeduceri, Default: 300},
	{Key: KeyCAS, Section: SectionTaxe, Default: 0.25, Percentage: true},
	{Key: KeyCASS, Section: SectionTaxe, Default: 0.10, Percentage: true},
	{Key: KeyCotaImpozit, Section: SectionTaxe, Default: 0.10, Percentage: true},
	{Key: KeyCAM, Section: SectionTaxe, Default: 0.0225, Percentage: true},
	{Key: KeyZileCOOdihna, Section: SectionConcedii, Default: 0},
	{Key: KeyZileCOMedicalNeplatite, Section: SectionConcedii, Default: 0},
	{Key: KeyIndemnizatieCOMedical, Section: SectionConcedii, Default: 0},
	{Key: KeyIndemnizatieCOOdihna, Section: SectionConcedii, Default: 0},
}

var definitionsByKey = func() map[Key]Definition {
	out := make(map[Key]Definition, len(Definitions))
	for _, def := range Definitions {
		out[def.Key] = def
	}
	return out
}()

// Lookup returns the definition of a key.
func Lookup(key Key) (Definition, bool) {
	def, ok := definitionsByKey[key]
	return def, ok
}

func (k Key) IsPercentage() bool {
	return definitionsByKey[k].Percentage
}

func (k Key) Default() float64 {
	return definitionsByKey[k].Default
}
