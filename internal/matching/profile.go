// Package matching ranks roommate candidates by weighted compatibility.
//
// Everything here is pure: profiles go in as values, scored slices come out,
// and nothing touches storage, the clock or randomness. Calls are safe from
// any number of goroutines.
package matching

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field names recognized on a profile.
const (
	FieldUserID      = "user_id"
	FieldUsername    = "username"
	FieldLocation    = "location"
	FieldBudget      = "budget"
	FieldLifestyle   = "lifestyle"
	FieldSmoking     = "smoking"
	FieldPets        = "pets"
	FieldCleanliness = "cleanliness"
)

// Profile is the subset of a user's stored preferences the ranker reads.
// An empty string means "no information".
type Profile struct {
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Location    string `json:"location,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Lifestyle   string `json:"lifestyle,omitempty"`
	Smoking     string `json:"smoking,omitempty"`
	Pets        string `json:"pets,omitempty"`
	Cleanliness string `json:"cleanliness,omitempty"`
}

// Fields lists every recognized field name in rendering order.
func Fields() []string {
	return []string{
		FieldUserID, FieldUsername, FieldLocation, FieldBudget,
		FieldLifestyle, FieldSmoking, FieldPets, FieldCleanliness,
	}
}

// IsField reports whether name is a recognized profile field.
func IsField(name string) bool {
	for _, f := range Fields() {
		if f == name {
			return true
		}
	}
	return false
}

// Field returns the raw value stored under name. Unknown names read as empty.
func Field(p Profile, name string) string {
	switch name {
	case FieldUserID:
		return p.UserID
	case FieldUsername:
		return p.Username
	case FieldLocation:
		return p.Location
	case FieldBudget:
		return p.Budget
	case FieldLifestyle:
		return p.Lifestyle
	case FieldSmoking:
		return p.Smoking
	case FieldPets:
		return p.Pets
	case FieldCleanliness:
		return p.Cleanliness
	}
	return ""
}

func (p *Profile) set(name, value string) bool {
	switch name {
	case FieldUserID:
		p.UserID = value
	case FieldUsername:
		p.Username = value
	case FieldLocation:
		p.Location = value
	case FieldBudget:
		p.Budget = value
	case FieldLifestyle:
		p.Lifestyle = value
	case FieldSmoking:
		p.Smoking = value
	case FieldPets:
		p.Pets = value
	case FieldCleanliness:
		p.Cleanliness = value
	default:
		return false
	}
	return true
}

// FromFields builds a Profile out of an untyped field mapping. Floats are
// rendered in plain decimal notation, other non-string values with fmt.Sprint,
// and nil counts as absent. Keys that are
// not profile fields are left out of the result and returned, sorted, so the
// caller decides whether to reject or ignore them.
func FromFields(fields map[string]any) (Profile, []string) {
	var p Profile
	var unknown []string
	for k, v := range fields {
		var s string
		switch tv := v.(type) {
		case nil:
		case string:
			s = tv
		case float64:
			s = strconv.FormatFloat(tv, 'f', -1, 64)
		case float32:
			s = strconv.FormatFloat(float64(tv), 'f', -1, 32)
		case json.Number:
			s = tv.String()
		default:
			s = fmt.Sprint(tv)
		}
		if !p.set(k, s) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return p, unknown
}

// String renders every field in a fixed order with quoted values, so distinct
// profiles never render alike. Used as the last-resort tie-break.
func (p Profile) String() string {
	var b strings.Builder
	for i, f := range Fields() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(f)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(Field(p, f)))
	}
	return b.String()
}
