package models

// DefaultCASlotMax is used for each slot when no configuration exists.
const DefaultCASlotMax = 20

// MaxCATotal is the hard ceiling on the sum of the four CA slots.
const MaxCATotal = 40

// CALimits are the four per-slot maxima.
type CALimits struct {
	CA1Max float64 `json:"ca_slot1_max" validate:"gte=0,lte=40"`
	CA2Max float64 `json:"ca_slot2_max" validate:"gte=0,lte=40"`
	CA3Max float64 `json:"ca_slot3_max" validate:"gte=0,lte=40"`
	CA4Max float64 `json:"ca_slot4_max" validate:"gte=0,lte=40"`
}

// DefaultCALimits returns 20 per slot.
func DefaultCALimits() CALimits {
	return CALimits{CA1Max: DefaultCASlotMax, CA2Max: DefaultCASlotMax, CA3Max: DefaultCASlotMax, CA4Max: DefaultCASlotMax}
}

// Slot returns the maximum for slot 1..4.
func (l CALimits) Slot(slot int) float64 {
	switch slot {
	case 1:
		return l.CA1Max
	case 2:
		return l.CA2Max
	case 3:
		return l.CA3Max
	case 4:
		return l.CA4Max
	}
	return 0
}

// WithSlot returns a copy with slot 1..4 set to v.
func (l CALimits) WithSlot(slot int, v float64) CALimits {
	switch slot {
	case 1:
		l.CA1Max = v
	case 2:
		l.CA2Max = v
	case 3:
		l.CA3Max = v
	case 4:
		l.CA4Max = v
	}
	return l
}

// CAConfigRecord is the remote ca_max row. Slots may be null.
type CAConfigRecord struct {
	ID         int64    `json:"id"`
	CASlot1Max *float64 `json:"ca_slot1_max"`
	CASlot2Max *float64 `json:"ca_slot2_max"`
	CASlot3Max *float64 `json:"ca_slot3_max"`
	CASlot4Max *float64 `json:"ca_slot4_max"`
}

// Limits converts the record, replacing null or zero slots with the default.
func (r CAConfigRecord) Limits() CALimits {
	pick := func(v *float64) float64 {
		if v == nil || *v == 0 {
			return DefaultCASlotMax
		}
		return *v
	}
	return CALimits{
		CA1Max: pick(r.CASlot1Max),
		CA2Max: pick(r.CASlot2Max),
		CA3Max: pick(r.CASlot3Max),
		CA4Max: pick(r.CASlot4Max),
	}
}

// NoticeKind classifies a transient banner.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message shown after a save.
type Notice struct {
	Kind NoticeKind `json:"type"`
	Text string     `json:"text"`
}

// CAConfigState is the manager's snapshot.
type CAConfigState struct {
	RecordID  *int64   `json:"record_id,omitempty"`
	Limits    CALimits `json:"limits"`
	Loaded    bool     `json:"loaded"`
	Saved     bool     `json:"saved"`
	Dirty     bool     `json:"dirty"`
	IsDefault bool     `json:"is_default"`
	Saving    bool     `json:"saving"`
	Notice    *Notice  `json:"notice,omitempty"`
}
