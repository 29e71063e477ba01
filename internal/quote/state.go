package quote

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/recophone/recophone-backend/internal/catalog"
	"github.com/recophone/recophone-backend/internal/travelfee"
)

// Step identifies one wizard step.
type Step string

const (
	StepDevice   Step = "device"
	StepRepairs  Step = "repairs"
	StepInfo     Step = "info"
	StepSchedule Step = "schedule"
	StepResume   Step = "resume"
)

// StepsFor returns the ordered step list. The schedule step exists only
// for at-home interventions; membership is recomputed from the flag on
// every evaluation rather than spliced into a stored list.
func StepsFor(atHome bool) []Step {
	steps := []Step{StepDevice, StepRepairs, StepInfo}
	if atHome {
		steps = append(steps, StepSchedule)
	}
	return append(steps, StepResume)
}

// ItemMeta carries the color choice for repairs that need one. A nil
// Color means "unknown/unspecified", which is distinct from an empty
// string the user actively picked.
type ItemMeta struct {
	Color    *string          `json:"color"`
	PartKind catalog.PartKind `json:"partKind"`
}

// Item is one selected repair on a device. Key is the repair label and
// is unique within the device.
type Item struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Meta     *ItemMeta       `json:"meta,omitempty"`
}

// Device is one device tab in the wizard.
type Device struct {
	ID       string `json:"id"`
	Category string `json:"category,omitempty"`
	Model    string `json:"model,omitempty"`
	Items    []Item `json:"items"`
}

// NewDevice allocates a blank device tab.
func NewDevice() Device {
	return Device{ID: uuid.NewString(), Items: []Item{}}
}

// ClientInfo is everything collected on the info step.
type ClientInfo struct {
	FirstName        string             `json:"firstName"`
	LastName         string             `json:"lastName"`
	Email            string             `json:"email"`
	Phone            string             `json:"phone"`
	Notes            string             `json:"notes,omitempty"`
	PayInTwo         bool               `json:"payInTwo"`
	SignatureDataURL string             `json:"signatureDataUrl,omitempty"`
	AtHome           bool               `json:"aDomicile"`
	Address          *travelfee.Address `json:"address,omitempty"`
	CGVAccepted      bool               `json:"cgvAccepted"`
	DistanceKm       *float64           `json:"distanceKm,omitempty"`
	TravelFee        *decimal.Decimal   `json:"travelFee,omitempty"`
}

var emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

func emailOK(v string) bool {
	return emailRe.MatchString(v)
}

func phoneOK(v string) bool {
	digits := 0
	for _, r := range v {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 8
}

// Valid reports whether the info step may be left. Base contact fields
// must be plausible, pay-in-two requires a signature, at-home requires a
// complete address plus accepted terms.
func (c ClientInfo) Valid() bool {
	base := strings.TrimSpace(c.FirstName) != "" &&
		strings.TrimSpace(c.LastName) != "" &&
		emailOK(c.Email) &&
		phoneOK(c.Phone)
	payInTwo := !c.PayInTwo || c.SignatureDataURL != ""
	atHome := !c.AtHome || (c.Address != nil && c.Address.Complete() && c.CGVAccepted)
	return base && payInTwo && atHome
}

// Draft is the whole wizard state, persisted as one JSON blob per
// session with an update timestamp for the staleness check.
type Draft struct {
	Devices     []Device   `json:"devices"`
	ActiveIndex int        `json:"activeIndex"`
	Client      ClientInfo `json:"client"`
	SlotISO     string     `json:"slotISO,omitempty"`
	Current     int        `json:"current"`
	UpdatedAt   int64      `json:"updatedAt"`
}

// NewDraft returns a blank wizard with a single empty device.
func NewDraft(now time.Time) *Draft {
	return &Draft{
		Devices:   []Device{NewDevice()},
		UpdatedAt: now.UnixMilli(),
	}
}

// Steps returns the step list for the draft's current at-home flag.
func (d *Draft) Steps() []Step {
	return StepsFor(d.Client.AtHome)
}

// CurrentStep resolves the step key at the clamped current index.
func (d *Draft) CurrentStep() Step {
	steps := d.Steps()
	idx := clamp(d.Current, 0, len(steps)-1)
	return steps[idx]
}

// ActiveDevice returns the device the tabs point at.
func (d *Draft) ActiveDevice() *Device {
	if len(d.Devices) == 0 {
		return nil
	}
	idx := clamp(d.ActiveIndex, 0, len(d.Devices)-1)
	return &d.Devices[idx]
}

// CanAdvance evaluates the gate of a single step.
func (d *Draft) CanAdvance(step Step) bool {
	switch step {
	case StepDevice:
		dev := d.ActiveDevice()
		return dev != nil && dev.Category != "" && dev.Model != ""
	case StepRepairs:
		for _, dev := range d.Devices {
			if len(dev.Items) > 0 {
				return true
			}
		}
		return false
	case StepInfo:
		return d.Client.Valid()
	case StepSchedule:
		return !d.Client.AtHome || d.SlotISO != ""
	case StepResume:
		return true
	default:
		return false
	}
}

// CanNavigateTo applies the free-form navigation rule: backward jumps
// are always allowed, forward jumps require every intermediate step to
// pass its own gate.
func (d *Draft) CanNavigateTo(target int) bool {
	steps := d.Steps()
	if target < 0 || target >= len(steps) {
		return false
	}
	if target <= d.Current {
		return true
	}
	for i := d.Current; i < target; i++ {
		if !d.CanAdvance(steps[i]) {
			return false
		}
	}
	return true
}

// AddDevice appends a blank device tab, activates it and returns to the
// device step.
func (d *Draft) AddDevice() {
	d.Devices = append(d.Devices, NewDevice())
	d.ActiveIndex = len(d.Devices) - 1
	d.Current = 0
}

// RemoveDevice deletes the tab at index. The wizard never holds zero
// devices: removing the last one substitutes a blank device. The active
// index re-targets a valid neighbor.
func (d *Draft) RemoveDevice(index int) {
	if index < 0 || index >= len(d.Devices) {
		return
	}
	d.Devices = append(d.Devices[:index], d.Devices[index+1:]...)
	if len(d.Devices) == 0 {
		d.Devices = []Device{NewDevice()}
	}
	switch {
	case index < d.ActiveIndex:
		d.ActiveIndex--
	case index == d.ActiveIndex:
		d.ActiveIndex = max(0, d.ActiveIndex-1)
	}
	d.ActiveIndex = clamp(d.ActiveIndex, 0, len(d.Devices)-1)
}

// Normalize repairs structural invariants after deserialization or a
// client-supplied update: at least one device, indexes in range, and
// the at-home dependent fields cleared when at-home is off.
func (d *Draft) Normalize(now time.Time) {
	if len(d.Devices) == 0 {
		d.Devices = []Device{NewDevice()}
	}
	for i := range d.Devices {
		if d.Devices[i].ID == "" {
			d.Devices[i].ID = uuid.NewString()
		}
		if d.Devices[i].Items == nil {
			d.Devices[i].Items = []Item{}
		}
		for j := range d.Devices[i].Items {
			if d.Devices[i].Items[j].Quantity < 1 {
				d.Devices[i].Items[j].Quantity = 1
			}
		}
	}
	d.ActiveIndex = clamp(d.ActiveIndex, 0, len(d.Devices)-1)

	if !d.Client.AtHome {
		d.Client.Address = nil
		d.Client.CGVAccepted = false
		d.Client.DistanceKm = nil
		d.Client.TravelFee = nil
		d.SlotISO = ""
	}

	d.Current = clamp(d.Current, 0, len(d.Steps())-1)
	d.UpdatedAt = now.UnixMilli()
}

// Total sums price x quantity across all selected items plus the travel
// fee when present.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, dev := range d.Devices {
		for _, it := range dev.Items {
			qty := it.Quantity
			if qty < 1 {
				qty = 1
			}
			total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	if d.Client.AtHome && d.Client.TravelFee != nil {
		total = total.Add(*d.Client.TravelFee)
	}
	return total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
