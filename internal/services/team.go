package services

import (
	"strings"

	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=500"`
	IsPublic    bool   `json:"is_public"`
}

type AddMemberRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

type TeamSummary struct {
	models.Team
	MemberCount int64  `json:"member_count"`
	MyRole      string `json:"my_role"`
}

type TeamDetail struct {
	Team     *models.Team            `json:"team"`
	Members  []models.TeamMembership `json:"members"`
	Projects []models.Project        `json:"projects"`
	IsOwner  bool                    `json:"is_owner"`
	MyRole   string                  `json:"my_role,omitempty"`
}

// loadMembership returns the user's membership in the team, or nil.
func loadMembership(db *gorm.DB, teamID *uint, userID uint) (*models.TeamMembership, error) {
	if teamID == nil || userID == 0 {
		return nil, nil
	}
	var m models.TeamMembership
	err := db.Where("team_id = ? AND user_id = ?", *teamID, userID).First(&m).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTeam creates the team and the creator's owner membership together.
func (s *TeamService) CreateTeam(actor Actor, req *CreateTeamRequest) (*models.Team, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("team name is required")
	}

	var n int64
	if err := s.db.Model(&models.Team{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, response.NewConflict("team name already taken")
	}

	team := models.Team{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     actor.UserID,
		IsPublic:    req.IsPublic,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMembership{
			TeamID: team.ID,
			UserID: actor.UserID,
			Role:   string(RoleOwner),
		}).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("team name already taken")
		}
		return nil, err
	}
	return &team, nil
}

// ListTeams returns the teams the actor owns or belongs to.
func (s *TeamService) ListTeams(actor Actor) ([]TeamSummary, error) {
	var teams []models.Team
	if err := s.db.
		Where("owner_id = ? OR id IN (?)", actor.UserID,
			s.db.Model(&models.TeamMembership{}).Select("team_id").Where("user_id = ?", actor.UserID)).
		Order("name ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		summary := TeamSummary{Team: t}
		if err := s.db.Model(&models.TeamMembership{}).Where("team_id = ?", t.ID).Count(&summary.MemberCount).Error; err != nil {
			return nil, err
		}
		teamID := t.ID
		m, err := loadMembership(s.db, &teamID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			summary.MyRole = m.Role
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *TeamService) loadTeam(id uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.First(&team, id).Error; err != nil {
		return nil, notFoundOr(err, ErrTeamNotFound)
	}
	return &team, nil
}

// GetTeam returns a team page for members, or for anyone when the team is public.
func (s *TeamService) GetTeam(actor Actor, id uint) (*TeamDetail, error) {
	team, err := s.loadTeam(id)
	if err != nil {
		return nil, err
	}
	m, err := loadMembership(s.db, &team.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !team.IsPublic && !CanViewTeam(actor, team, m) {
		return nil, ErrPermissionDenied
	}

	var members []models.TeamMembership
	if err := s.db.Preload("User").Where("team_id = ?", team.ID).Order("joined_at ASC, id ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	var all []models.Project
	if err := s.db.Where("team_id = ?", team.ID).Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(all))
	for i := range all {
		if CanViewProject(actor, &all[i], m) {
			projects = append(projects, all[i])
		}
	}

	detail := &TeamDetail{
		Team:     team,
		Members:  members,
		Projects: projects,
		IsOwner:  CanEditTeam(actor, team),
	}
	if m != nil {
		detail.MyRole = m.Role
	}
	return detail, nil
}

// grantableRole validates a role the owner may hand out; "" means viewer.
func grantableRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if role == "" {
		role = RoleViewer
	}
	if !role.Valid() || role == RoleOwner {
		return "", response.NewBadRequest("role must be one of editor, viewer, commenter")
	}
	return role, nil
}

func (s *TeamService) ownedTeam(actor Actor, id uint) (*models.Team, error) {
	team, err := s.loadTeam(id)
	if err != nil {
		return nil, err
	}
	if !CanEditTeam(actor, team) {
		return nil, response.NewForbidden("only the team owner can manage members")
	}
	return team, nil
}

// AddMember adds a user to the team. Only the owner may do this.
func (s *TeamService) AddMember(actor Actor, teamID uint, req *AddMemberRequest) (*models.TeamMembership, error) {
	team, err := s.ownedTeam(actor, teamID)
	if err != nil {
		return nil, err
	}
	role, err := grantableRole(req.Role)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}

	existing, err := loadMembership(s.db, &team.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	membership := models.TeamMembership{TeamID: team.ID, UserID: user.ID, Role: string(role)}
	if err := s.db.Create(&membership).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	membership.User = &user
	return &membership, nil
}

// UpdateMemberRole changes a member's role. The owner's own membership is fixed.
func (s *TeamService) UpdateMemberRole(actor Actor, teamID, userID uint, req *UpdateMemberRequest) (*models.TeamMembership, error) {
	team, err := s.ownedTeam(actor, teamID)
	if err != nil {
		return nil, err
	}
	if userID == team.OwnerID {
		return nil, response.NewBadRequest("the owner's membership cannot be changed")
	}
	role, err := grantableRole(req.Role)
	if err != nil {
		return nil, err
	}

	m, err := loadMembership(s.db, &team.ID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, response.NewNotFound("membership not found")
	}
	if err := s.db.Model(m).Update("role", string(role)).Error; err != nil {
		return nil, err
	}
	m.Role = string(role)
	return m, nil
}

// RemoveMember removes a member. The owner cannot be removed.
func (s *TeamService) RemoveMember(actor Actor, teamID, userID uint) error {
	team, err := s.ownedTeam(actor, teamID)
	if err != nil {
		return err
	}
	if userID == team.OwnerID {
		return response.NewBadRequest("the owner cannot be removed from the team")
	}
	result := s.db.Where("team_id = ? AND user_id = ?", team.ID, userID).Delete(&models.TeamMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("membership not found")
	}
	return nil
}

// DeleteTeam removes the team. Memberships go with it; its projects stay
// with their creators and lose the team link.
func (s *TeamService) DeleteTeam(actor Actor, id uint) error {
	team, err := s.loadTeam(id)
	if err != nil {
		return err
	}
	if !CanEditTeam(actor, team) {
		return response.NewForbidden("only the team owner can delete the team")
	}
	return s.db.Delete(team).Error
}
