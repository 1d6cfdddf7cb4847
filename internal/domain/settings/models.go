package settings

import (
	"errors"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidValue = errors.New("setting value must be a non-negative number")
	ErrUnknownKey   = errors.New("unknown setting")
)

type HistoryEntry struct {
	Value     float64 `json:"value"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// Attribute is one legal constant with its effective-dated history. The last
// history entry is the open one and carries CurrentValue.
type Attribute struct {
	CurrentValue float64        `json:"currentValue"`
	History      []HistoryEntry `json:"history"`
}

type Settings map[Key]Attribute

// Values is the typed view of the settings the payroll chain consumes.
type Values struct {
	TichetDeMasa           float64 `json:"tichetDeMasa"`
	SalariuCIM             float64 `json:"salariuCIM"`
	SalariulMinim          float64 `json:"salariulMinim"`
	DeducereMinor          float64 `json:"deducereMinor"`
	DeducereTineri         float64 `json:"deducereTineri"`
	SumaScutita            float64 `json:"sumaScutita"`
	CAS                    float64 `json:"cas"`
	CASS                   float64 `json:"cass"`
	CotaImpozit            float64 `json:"cotaImpozit"`
	CAM                    float64 `json:"cam"`
	ZileCOOdihna           float64 `json:"zileCOOdihna"`
	ZileCOMedicalNeplatite float64 `json:"zileCOMedicalNeplatite"`
	IndemnizatieCOMedical  float64 `json:"indemnizatieCOMedical"`
	IndemnizatieCOOdihna   float64 `json:"indemnizatieCOOdihna"`
}

// DefaultValues returns Values built only from the documented defaults.
func DefaultValues() Values {
	return Settings{}.Values()
}

func (s Settings) value(key Key) float64 {
	if attr, ok := s[key]; ok {
		return attr.CurrentValue
	}
	return key.Default()
}

// Values resolves every key, falling back to its default when absent. The
// meal-ticket value also honours the legacy label.
func (s Settings) Values() Values {
	tichet := KeyTichetDeMasa.Default()
	if attr, ok := s[KeyTichetDeMasa]; ok {
		tichet = attr.CurrentValue
	} else if attr, ok := s[legacyKeyTichetDeMasa]; ok {
		tichet = attr.CurrentValue
	}
	return Values{
		TichetDeMasa:           tichet,
		SalariuCIM:             s.value(KeySalariuCIM),
		SalariulMinim:          s.value(KeySalariulMinim),
		DeducereMinor:          s.value(KeyDeducereMinor),
		DeducereTineri:         s.value(KeyDeducereTineri),
		SumaScutita:            s.value(KeySumaScutita),
		CAS:                    s.value(KeyCAS),
		CASS:                   s.value(KeyCASS),
		CotaImpozit:            s.value(KeyCotaImpozit),
		CAM:                    s.value(KeyCAM),
		ZileCOOdihna:           s.value(KeyZileCOOdihna),
		ZileCOMedicalNeplatite: s.value(KeyZileCOMedicalNeplatite),
		IndemnizatieCOMedical:  s.value(KeyIndemnizatieCOMedical),
		IndemnizatieCOOdihna:   s.value(KeyIndemnizatieCOOdihna),
	}
}

// Clone deep-copies the settings so callers can edit without aliasing history.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, attr := range s {
		history := make([]HistoryEntry, len(attr.History))
		for i, entry := range attr.History {
			history[i] = entry
			if entry.EndDate != nil {
				end := *entry.EndDate
				history[i].EndDate = &end
			}
		}
		out[k] = Attribute{CurrentValue: attr.CurrentValue, History: history}
	}
	return out
}

func openAttribute(value float64, today string) Attribute {
	return Attribute{
		CurrentValue: value,
		History:      []HistoryEntry{{Value: value, StartDate: today, EndDate: nil}},
	}
}

// Normalize brings stored settings up to date: the legacy meal-ticket label is
// renamed, percentage rates stored as whole numbers become fractions and
// missing constants are added with their default. Running it twice is a no-op.
func Normalize(s Settings, today time.Time) Settings {
	out := s.Clone()
	day := today.Format(dateLayout)

	if legacy, ok := out[legacyKeyTichetDeMasa]; ok {
		if _, exists := out[KeyTichetDeMasa]; !exists {
			out[KeyTichetDeMasa] = legacy
		}
		delete(out, legacyKeyTichetDeMasa)
	}

	for _, def := range Definitions {
		attr, ok := out[def.Key]
		if !ok {
			out[def.Key] = openAttribute(def.Default, day)
			continue
		}
		if def.Percentage && attr.CurrentValue > 1 {
			attr.CurrentValue /= 100
			for i := range attr.History {
				if attr.History[i].Value > 1 {
					attr.History[i].Value /= 100
				}
			}
			out[def.Key] = attr
		}
	}
	return out
}

// Set records a new value for key effective today: the open history entry is
// closed and a new open entry appended.
func Set(s Settings, k Key, value float64, today time.Time) (Settings, error) {
	if _, ok := Lookup(k); !ok {
		return nil, ErrUnknownKey
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil, ErrInvalidValue
	}
	out := s.Clone()
	day := today.Format(dateLayout)

	attr, ok := out[k]
	if !ok {
		attr = openAttribute(k.Default(), day)
	}
	if n := len(attr.History); n > 0 && attr.History[n-1].EndDate == nil {
		end := day
		attr.History[n-1].EndDate = &end
	}
	attr.History = append(attr.History, HistoryEntry{Value: value, StartDate: day, EndDate: nil})
	attr.CurrentValue = value
	out[k] = attr
	return out, nil
}

// SetPercent is Set for values typed as whole percentages: rate keys store the
// fraction, other keys store the value as given.
func SetPercent(s Settings, k Key, value float64, today time.Time) (Settings, error) {
	if k.IsPercentage() {
		value /= 100
	}
	return Set(s, k, value, today)
}

// ValueAt returns the value that was effective on day, using the history.
func (a Attribute) ValueAt(day time.Time) (float64, bool) {
	target := day.Format(dateLayout)
	for i := len(a.History) - 1; i >= 0; i-- {
		entry := a.History[i]
		if entry.StartDate > target {
			continue
		}
		if entry.EndDate == nil || *entry.EndDate >= target {
			return entry.Value, true
		}
	}
	return 0, false
}
