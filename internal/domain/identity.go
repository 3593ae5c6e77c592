package domain

// Identity is the set of routing attributes bound to a live connection.
// A zero field means the attribute does not apply.
type Identity struct {
	UserID   int64 `json:"userId,omitempty"`
	TalentID int64 `json:"talentId,omitempty"`
	ClubID   int64 `json:"clubId,omitempty"`
	AgentID  int64 `json:"agentId,omitempty"`
	DoctorID int64 `json:"doctorId,omitempty"`
}

// IsZero reports whether no attribute is set (guest connection).
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// Intersects reports whether both identities share at least one non-zero attribute value.
func (i Identity) Intersects(o Identity) bool {
	return same(i.UserID, o.UserID) ||
		same(i.TalentID, o.TalentID) ||
		same(i.ClubID, o.ClubID) ||
		same(i.AgentID, o.AgentID) ||
		same(i.DoctorID, o.DoctorID)
}

// HasRoleID reports whether id occupies any of the four role slots.
func (i Identity) HasRoleID(id int64) bool {
	if id == 0 {
		return false
	}
	return i.TalentID == id || i.ClubID == id || i.AgentID == id || i.DoctorID == id
}

// CounterpartID returns the conversation's other party, the first set role id.
func (i Identity) CounterpartID() int64 {
	for _, id := range []int64{i.ClubID, i.TalentID, i.AgentID, i.DoctorID} {
		if id != 0 {
			return id
		}
	}
	return 0
}

func same(a, b int64) bool {
	return a != 0 && a == b
}

// Principal is an authenticated caller.
type Principal struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// IsAdmin reports whether the principal holds the administrative role.
func (p *Principal) IsAdmin(adminRole string) bool {
	return p != nil && adminRole != "" && p.Role == adminRole
}
