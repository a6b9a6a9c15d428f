package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrProfileVariant = errors.New("profile contains fields that don't belong to the user's role")

// Common holds the profile fields every role shares
type Common struct {
	Bio          string   `json:"bio,omitempty"`
	Location     string   `json:"location,omitempty"`
	Links        []string `json:"links,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type EntrepreneurProfile struct {
	StartupName string `json:"startupName,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Stage       string `json:"stage,omitempty"`
	TeamSize    int    `json:"teamSize,omitempty"`
	Website     string `json:"website,omitempty"`
}

type InvestorProfile struct {
	Firm            string   `json:"firm,omitempty"`
	InvestmentFocus []string `json:"investmentFocus,omitempty"`
	TicketMin       int64    `json:"ticketMin,omitempty"`
	TicketMax       int64    `json:"ticketMax,omitempty"`
	Website         string   `json:"website,omitempty"`
}

type MentorProfile struct {
	Expertise         []string `json:"expertise,omitempty"`
	YearsOfExperience int      `json:"yearsOfExperience,omitempty"`
	Availability      string   `json:"availability,omitempty"`
}

type AdminProfile struct {
	Department string `json:"department,omitempty"`
}

// Profile is a variant keyed by Role. Only the sub-object matching Role may
// be set.
type Profile struct {
	Role Role `json:"role"`
	Common

	Entrepreneur *EntrepreneurProfile `json:"entrepreneur,omitempty"`
	Investor     *InvestorProfile     `json:"investor,omitempty"`
	Mentor       *MentorProfile       `json:"mentor,omitempty"`
	Admin        *AdminProfile        `json:"admin,omitempty"`
}

func NewProfile(r Role) Profile {
	p := Profile{Role: r}

	switch r {
	case RoleEntrepreneur:
		p.Entrepreneur = &EntrepreneurProfile{}
	case RoleInvestor:
		p.Investor = &InvestorProfile{}
	case RoleMentor:
		p.Mentor = &MentorProfile{}
	case RoleAdmin:
		p.Admin = &AdminProfile{}
	}

	return p
}

func (p Profile) Validate() error {
	if !p.Role.Valid() {
		return fmt.Errorf("invalid profile role %q", p.Role)
	}

	set := map[Role]bool{
		RoleEntrepreneur: p.Entrepreneur != nil,
		RoleInvestor:     p.Investor != nil,
		RoleMentor:       p.Mentor != nil,
		RoleAdmin:        p.Admin != nil,
	}

	for r, ok := range set {
		if ok && r != p.Role {
			return ErrProfileVariant
		}
	}

	return nil
}

// Value implements the driver.Valuer interface.
func (p Profile) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (p *Profile) Scan(value any) error {
	if value == nil {
		*p = Profile{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("failed to scan Profile, %v", value)
	}

	if len(b) == 0 {
		*p = Profile{}
		return nil
	}

	return json.Unmarshal(b, p)
}
