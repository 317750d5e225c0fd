package entities

import "strings"

// BloodType is an ABO/Rh group such as "O-".
type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// AllBloodTypes lists every supported group.
var AllBloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

// donors each recipient can receive red cells from
var compatibleDonors = map[BloodType][]BloodType{
	BloodTypeONeg:  {BloodTypeONeg},
	BloodTypeOPos:  {BloodTypeONeg, BloodTypeOPos},
	BloodTypeANeg:  {BloodTypeONeg, BloodTypeANeg},
	BloodTypeAPos:  {BloodTypeONeg, BloodTypeOPos, BloodTypeANeg, BloodTypeAPos},
	BloodTypeBNeg:  {BloodTypeONeg, BloodTypeBNeg},
	BloodTypeBPos:  {BloodTypeONeg, BloodTypeOPos, BloodTypeBNeg, BloodTypeBPos},
	BloodTypeABNeg: {BloodTypeONeg, BloodTypeANeg, BloodTypeBNeg, BloodTypeABNeg},
	BloodTypeABPos: AllBloodTypes,
}

// ParseBloodType normalizes case and whitespace ("ab +" -> "AB+").
func ParseBloodType(raw string) (BloodType, bool) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	bt := BloodType(cleaned)
	if _, ok := compatibleDonors[bt]; !ok {
		return "", false
	}
	return bt, true
}

// Valid reports whether b is one of the eight supported groups.
func (b BloodType) Valid() bool {
	_, ok := compatibleDonors[b]
	return ok
}

// CompatibleDonors returns the donor groups a recipient of b can receive.
func (b BloodType) CompatibleDonors() []BloodType {
	return compatibleDonors[b]
}

// CanReceiveFrom reports whether a recipient of b can receive from donor.
func (b BloodType) CanReceiveFrom(donor BloodType) bool {
	for _, d := range compatibleDonors[b] {
		if d == donor {
			return true
		}
	}
	return false
}
