package services

import (
	"github.com/mediafolio/mediafolio/internal/models"
)

// Role is a team membership role.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleEditor    Role = "editor"
	RoleViewer    Role = "viewer"
	RoleCommenter Role = "commenter"
)

// Capability is a permission a role may grant on team projects.
type Capability uint8

const (
	CapView Capability = 1 << iota
	CapEdit
	CapComment
)

var roleCapabilities = map[Role]Capability{
	RoleOwner:     CapView | CapEdit | CapComment,
	RoleEditor:    CapView | CapEdit | CapComment,
	RoleViewer:    CapView,
	RoleCommenter: CapView | CapComment,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether r grants c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r]&c == c
}

// Actor is the identity a request acts as. The zero value is anonymous.
type Actor struct {
	UserID uint
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Is reports whether a is the authenticated user id.
func (a Actor) Is(id uint) bool {
	return a.Authenticated() && a.UserID == id
}

// memberRole returns the actor's role in the project's team, or "" when the
// project has no team or m is not the actor's membership in it.
func memberRole(a Actor, p *models.Project, m *models.TeamMembership) Role {
	if !a.Authenticated() || p.TeamID == nil || m == nil {
		return ""
	}
	if m.TeamID != *p.TeamID || m.UserID != a.UserID {
		return ""
	}
	return Role(m.Role)
}

// CanViewProject: public projects are visible to everyone; private ones to
// the creator and members of the owning team.
func CanViewProject(a Actor, p *models.Project, m *models.TeamMembership) bool {
	if p.IsPublic {
		return true
	}
	if !a.Authenticated() {
		return false
	}
	if a.Is(p.CreatorID) {
		return true
	}
	return memberRole(a, p, m).Can(CapView)
}

// CanEditProject: the creator, or a team member whose role grants edit.
func CanEditProject(a Actor, p *models.Project, m *models.TeamMembership) bool {
	if a.Is(p.CreatorID) {
		return true
	}
	return memberRole(a, p, m).Can(CapEdit)
}

// CanCommentProject: the creator; a team member whose role grants comment;
// any other authenticated user when the project is public. Team viewers
// stay read-only on their team's projects.
func CanCommentProject(a Actor, p *models.Project, m *models.TeamMembership) bool {
	if !a.Authenticated() {
		return false
	}
	if a.Is(p.CreatorID) {
		return true
	}
	if role := memberRole(a, p, m); role != "" {
		return role.Can(CapComment)
	}
	return p.IsPublic
}

// CanViewTeam: any member of the team, owner included.
func CanViewTeam(a Actor, t *models.Team, m *models.TeamMembership) bool {
	if a.Is(t.OwnerID) {
		return true
	}
	return a.Authenticated() && m != nil && m.TeamID == t.ID && m.UserID == a.UserID
}

// CanEditTeam: only the team owner.
func CanEditTeam(a Actor, t *models.Team) bool {
	return a.Is(t.OwnerID)
}
