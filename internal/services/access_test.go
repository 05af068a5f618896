package services

import (
	"testing"

	"github.com/mediafolio/mediafolio/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		role    Role
		view    bool
		edit    bool
		comment bool
	}{
		{RoleOwner, true, true, true},
		{RoleEditor, true, true, true},
		{RoleViewer, true, false, false},
		{RoleCommenter, true, false, true},
		{Role("admin"), false, false, false},
		{Role(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Can(CapView); got != tt.view {
				t.Errorf("Can(view) = %v, expected %v", got, tt.view)
			}
			if got := tt.role.Can(CapEdit); got != tt.edit {
				t.Errorf("Can(edit) = %v, expected %v", got, tt.edit)
			}
			if got := tt.role.Can(CapComment); got != tt.comment {
				t.Errorf("Can(comment) = %v, expected %v", got, tt.comment)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleEditor, RoleViewer, RoleCommenter} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("maintainer").Valid() {
		t.Error("maintainer should not be valid")
	}
}

func TestActor(t *testing.T) {
	var anon Actor
	if anon.Authenticated() {
		t.Error("zero actor should be anonymous")
	}
	if anon.Is(0) {
		t.Error("anonymous actor must not match user id 0")
	}
	if !(Actor{UserID: 3}).Is(3) {
		t.Error("actor 3 should match user id 3")
	}
}

func TestCanViewProject_CreatorAlwaysSees(t *testing.T) {
	creator := Actor{UserID: 1}
	for _, public := range []bool{true, false} {
		for _, status := range []string{models.ProjectStatusDraft, models.ProjectStatusPublished, models.ProjectStatusArchived} {
			p := &models.Project{CreatorID: 1, IsPublic: public, Status: status, TeamID: uintPtr(9)}
			if !CanViewProject(creator, p, nil) {
				t.Errorf("creator cannot view project public=%v status=%s", public, status)
			}
		}
	}
}

func TestCanViewProject_PrivateHiddenFromOutsiders(t *testing.T) {
	p := &models.Project{CreatorID: 1, IsPublic: false, TeamID: uintPtr(5)}
	otherTeam := &models.TeamMembership{TeamID: 6, UserID: 2, Role: string(RoleOwner)}
	foreignRow := &models.TeamMembership{TeamID: 5, UserID: 3, Role: string(RoleOwner)}

	tests := []struct {
		name  string
		actor Actor
		m     *models.TeamMembership
	}{
		{"anonymous", Actor{}, nil},
		{"non-member", Actor{UserID: 2}, nil},
		{"member of another team", Actor{UserID: 2}, otherTeam},
		{"someone else's membership", Actor{UserID: 2}, foreignRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CanViewProject(tt.actor, p, tt.m) {
				t.Error("expected private project to be hidden")
			}
		})
	}

	if !CanViewProject(Actor{}, &models.Project{CreatorID: 1, IsPublic: true}, nil) {
		t.Error("anonymous actor should see public projects")
	}
}

func TestProjectPredicates_TeamRoles(t *testing.T) {
	p := &models.Project{CreatorID: 1, IsPublic: false, TeamID: uintPtr(5)}

	tests := []struct {
		role    Role
		view    bool
		edit    bool
		comment bool
	}{
		{RoleOwner, true, true, true},
		{RoleEditor, true, true, true},
		{RoleViewer, true, false, false},
		{RoleCommenter, true, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			a := Actor{UserID: 2}
			m := &models.TeamMembership{TeamID: 5, UserID: 2, Role: string(tt.role)}
			if got := CanViewProject(a, p, m); got != tt.view {
				t.Errorf("CanViewProject = %v, expected %v", got, tt.view)
			}
			if got := CanEditProject(a, p, m); got != tt.edit {
				t.Errorf("CanEditProject = %v, expected %v", got, tt.edit)
			}
			if got := CanCommentProject(a, p, m); got != tt.comment {
				t.Errorf("CanCommentProject = %v, expected %v", got, tt.comment)
			}
		})
	}
}

func TestCanEditProject_NoTeam(t *testing.T) {
	p := &models.Project{CreatorID: 1, IsPublic: true}
	if !CanEditProject(Actor{UserID: 1}, p, nil) {
		t.Error("creator should edit")
	}
	if CanEditProject(Actor{UserID: 2}, p, nil) {
		t.Error("stranger must not edit a public project")
	}
	if CanEditProject(Actor{}, p, nil) {
		t.Error("anonymous must not edit")
	}
}

func TestCanCommentProject_Outsiders(t *testing.T) {
	public := &models.Project{CreatorID: 1, IsPublic: true}
	private := &models.Project{CreatorID: 1, IsPublic: false}

	if !CanCommentProject(Actor{UserID: 2}, public, nil) {
		t.Error("authenticated outsider should comment on public project")
	}
	if CanCommentProject(Actor{UserID: 2}, private, nil) {
		t.Error("outsider must not comment on private project")
	}
	if CanCommentProject(Actor{}, public, nil) {
		t.Error("anonymous must not comment")
	}

	publicTeam := &models.Project{CreatorID: 1, IsPublic: true, TeamID: uintPtr(5)}
	viewer := &models.TeamMembership{TeamID: 5, UserID: 2, Role: string(RoleViewer)}
	if CanCommentProject(Actor{UserID: 2}, publicTeam, viewer) {
		t.Error("team viewer stays read-only even on a public team project")
	}
}

func TestTeamPredicates(t *testing.T) {
	team := &models.Team{ID: 5, OwnerID: 1}
	editor := &models.TeamMembership{TeamID: 5, UserID: 2, Role: string(RoleEditor)}

	if !CanViewTeam(Actor{UserID: 1}, team, nil) {
		t.Error("owner should view the team")
	}
	if !CanViewTeam(Actor{UserID: 2}, team, editor) {
		t.Error("member should view the team")
	}
	if CanViewTeam(Actor{UserID: 3}, team, nil) {
		t.Error("non-member must not view the team")
	}
	if CanViewTeam(Actor{}, team, nil) {
		t.Error("anonymous must not view the team")
	}

	if !CanEditTeam(Actor{UserID: 1}, team) {
		t.Error("owner should edit the team")
	}
	if CanEditTeam(Actor{UserID: 2}, team) {
		t.Error("editor role must not grant team edit")
	}
}
