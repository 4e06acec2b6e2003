package models

import (
	"sort"
	"time"
)

// Meal names used in meal preferences
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

// PartyMember is one traveller with per-tag interest weights (0-10)
type PartyMember struct {
	Name            string             `json:"name" validate:"required"`
	Age             int                `json:"age" validate:"gte=0,lte=120"`
	InterestWeights map[string]float64 `json:"interest_weights"`
}

// Interest returns the member's weight for a tag, 0 when unknown
func (m *PartyMember) Interest(tag string) float64 {
	return m.InterestWeights[tag]
}

// MealPreference is a meal window with preferred cuisines
type MealPreference struct {
	WindowStartMin int      `json:"window_start_min"`
	WindowEndMin   int      `json:"window_end_min"`
	Cuisines       []string `json:"cuisines,omitempty"`
	DurationMin    int      `json:"duration_min,omitempty"`
	MaxAverageCost float64  `json:"max_average_cost,omitempty"` // 0 = no ceiling
}

// Window returns the meal window, wrapping past midnight when needed
func (p MealPreference) Window() Window {
	return NewWindow(p.WindowStartMin, p.WindowEndMin)
}

// Dietary captures restrictions that drive restaurant filtering
type Dietary struct {
	Halal         bool     `json:"halal"`
	Vegetarian    bool     `json:"vegetarian"`
	Vegan         bool     `json:"vegan"`
	NutAllergy    bool     `json:"nut_allergy"`
	Avoid         []string `json:"avoid,omitempty"`
	RequiredTerms []string `json:"required_terms,omitempty"`
}

// EnergyLedger tracks remaining party energy (0-100). It is only present for
// clients that opted into energy tracking.
type EnergyLedger struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
	Restore float64 `json:"restore"` // points restored between days
}

// NewEnergyLedger returns a full ledger with the default overnight restore
func NewEnergyLedger() *EnergyLedger {
	return &EnergyLedger{Current: 100, Max: 100, Restore: 80}
}

// Client is a travel party with its preferences and per-day ledgers
type Client struct {
	ID               string                    `json:"id" validate:"required"`
	PartyType        string                    `json:"party_type"`
	Members          map[string]*PartyMember   `json:"members" validate:"required,min=1,dive"`
	Religion         string                    `json:"religion,omitempty"`
	EthnicityCulture []string                  `json:"ethnicity_culture,omitempty"`
	Vibe             string                    `json:"vibe,omitempty"`
	BudgetTotal      float64                   `json:"budget_total" validate:"gte=0"`
	TripStart        time.Time                 `json:"trip_start"`
	TripEnd          time.Time                 `json:"trip_end"`
	HomeBase         Location                  `json:"home_base"`
	AvoidLongTransit int                       `json:"avoid_long_transit"`
	PreferOutdoor    int                       `json:"prefer_outdoor"`
	PreferCultural   int                       `json:"prefer_cultural"`
	DayStartMin      int                       `json:"day_start_min"`
	DayEndMin        int                       `json:"day_end_min"` // before DayStartMin wraps past midnight
	Dietary          Dietary                   `json:"dietary"`
	MealPrefs        map[string]MealPreference `json:"meal_prefs,omitempty"`

	// Ledgers, mutated while planning
	CreditsLeft    map[string]int `json:"credits_left"`
	EngagementTime map[string]int `json:"engagement_time"` // minutes today
	TimesSatisfied map[string]int `json:"times_satisfied"`
	Energy         *EnergyLedger  `json:"energy,omitempty"`

	creditAllotment int
}

// NewClient initialises the ledgers of a client whose static fields are set
func NewClient(c *Client) *Client {
	c.CreditsLeft = make(map[string]int, len(c.Members))
	c.EngagementTime = make(map[string]int, len(c.Members))
	c.TimesSatisfied = make(map[string]int, len(c.Members))
	c.creditAllotment = c.computeAllotment()
	for name := range c.Members {
		c.CreditsLeft[name] = c.creditAllotment
		c.EngagementTime[name] = 0
		c.TimesSatisfied[name] = 0
	}
	return c
}

func (c *Client) computeAllotment() int {
	if c.Size() == 0 {
		return 0
	}
	return c.TripDays() / c.Size()
}

// CreditAllotment returns the per-member credits restored each day
func (c *Client) CreditAllotment() int {
	return c.creditAllotment
}

// Size returns the number of party members
func (c *Client) Size() int {
	return len(c.Members)
}

// MemberNames returns member names in a stable order
func (c *Client) MemberNames() []string {
	names := make([]string, 0, len(c.Members))
	for name := range c.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MinAge returns the youngest member's age
func (c *Client) MinAge() int {
	youngest := -1
	for _, m := range c.Members {
		if youngest < 0 || m.Age < youngest {
			youngest = m.Age
		}
	}
	if youngest < 0 {
		return 0
	}
	return youngest
}

// MinAgeOf returns the youngest age among the named members
func (c *Client) MinAgeOf(names []string) int {
	youngest := -1
	for _, name := range names {
		m, ok := c.Members[name]
		if !ok {
			continue
		}
		if youngest < 0 || m.Age < youngest {
			youngest = m.Age
		}
	}
	if youngest < 0 {
		return c.MinAge()
	}
	return youngest
}

// TripDays returns the number of calendar days in the trip, inclusive
func (c *Client) TripDays() int {
	days := int(DateOf(c.TripEnd).Sub(DateOf(c.TripStart)).Hours()/24+0.5) + 1
	if days < 1 {
		return 1
	}
	return days
}

// TripDates returns every date of the trip in order
func (c *Client) TripDates() []time.Time {
	n := c.TripDays()
	dates := make([]time.Time, 0, n)
	start := DateOf(c.TripStart)
	for i := 0; i < n; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return dates
}

// DayWindow returns the daily engagement window
func (c *Client) DayWindow() Window {
	return NewWindow(c.DayStartMin, c.DayEndMin)
}

// TotalDayDuration returns the length of the daily engagement window in minutes
func (c *Client) TotalDayDuration() int {
	return c.DayWindow().Length()
}

// DailyActTimePerMember returns each member's fair share of the day in minutes
func (c *Client) DailyActTimePerMember() float64 {
	if c.Size() == 0 {
		return 0
	}
	return float64(c.TotalDayDuration()) / float64(c.Size())
}

// ResetDay clears engagement time, restores credits to the allotment and recovers energy
func (c *Client) ResetDay() {
	for name := range c.Members {
		c.EngagementTime[name] = 0
		c.CreditsLeft[name] = c.creditAllotment
	}
	if c.Energy != nil {
		c.Energy.Current += c.Energy.Restore
		if c.Energy.Current > c.Energy.Max {
			c.Energy.Current = c.Energy.Max
		}
	}
}
