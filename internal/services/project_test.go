package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProjectService(t *testing.T, db *gorm.DB) *ProjectService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cfg := config.DefaultConfig().Storage
	return NewProjectService(db, store, &cfg)
}

// createMedia inserts a ready asset owned by owner.
func createMedia(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.MediaAsset {
	t.Helper()
	asset := &models.MediaAsset{
		Title:        title,
		FileKey:      "media/" + title + ".png",
		OriginalName: title + ".png",
		FileType:     models.FileTypeImage,
		OwnerID:      owner.ID,
		Status:       models.MediaStatusReady,
	}
	require.NoError(t, db.Create(asset).Error)
	return asset
}

func category(t *testing.T, db *gorm.DB, slug string) *models.ProjectCategory {
	t.Helper()
	require.NoError(t, models.SeedDefaultData(db))
	var c models.ProjectCategory
	require.NoError(t, db.Where("slug = ?", slug).First(&c).Error)
	return &c
}

func totalProjects(t *testing.T, db *gorm.DB, u *models.User) int64 {
	t.Helper()
	var p models.Profile
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&p).Error)
	return p.TotalProjects
}

// publishedProject creates and publishes a public project.
func publishedProject(t *testing.T, svc *ProjectService, owner *models.User, title string) *models.Project {
	t.Helper()
	p, err := svc.Create(actorOf(owner), &CreateProjectRequest{Title: title, IsPublic: true})
	require.NoError(t, err)
	p, err = svc.Publish(actorOf(owner), p.Slug)
	require.NoError(t, err)
	return p
}

func TestCreateProject_SlugAndCounter(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")

	first, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Brand Identity", Tags: "logo, ,brand,Logo"})
	require.NoError(t, err)
	assert.Equal(t, "brand-identity", first.Slug)
	assert.Equal(t, models.ProjectStatusDraft, first.Status)
	assert.Equal(t, "logo,brand", first.Tags)
	assert.Nil(t, first.PublishedAt)

	second, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Brand Identity"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "brand-identity-"), second.Slug)
	assert.Len(t, second.Slug, len("brand-identity-")+6)

	symbols, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "!!!"})
	require.NoError(t, err)
	assert.Equal(t, "project", symbols.Slug)

	assert.Equal(t, int64(3), totalProjects(t, db, alice))
}

func TestCreateProject_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	teams := NewTeamService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	_, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "   "})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(actorOf(alice), &CreateProjectRequest{Title: "X", CategoryID: uintPtr(999)})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(actorOf(alice), &CreateProjectRequest{Title: "X", TeamID: uintPtr(999)})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(Actor{}, &CreateProjectRequest{Title: "X"})
	requireStatus(t, err, http.StatusUnauthorized)

	team, err := teams.CreateTeam(actorOf(alice), &CreateTeamRequest{Name: "Design"})
	require.NoError(t, err)
	_, err = teams.AddMember(actorOf(alice), team.ID, &AddMemberRequest{Username: "bob", Role: "viewer"})
	require.NoError(t, err)
	_, err = teams.AddMember(actorOf(alice), team.ID, &AddMemberRequest{Username: "carol", Role: "editor"})
	require.NoError(t, err)

	_, err = svc.Create(actorOf(bob), &CreateProjectRequest{Title: "X", TeamID: &team.ID})
	requireStatus(t, err, http.StatusForbidden)

	p, err := svc.Create(actorOf(carol), &CreateProjectRequest{Title: "Team Work", TeamID: &team.ID})
	require.NoError(t, err)
	assert.Equal(t, team.ID, *p.TeamID)

	photo := category(t, db, "photography")
	p, err = svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Shots", CategoryID: &photo.ID})
	require.NoError(t, err)
	assert.Equal(t, photo.ID, *p.CategoryID)

	assert.Equal(t, int64(0), totalProjects(t, db, bob))
}

func TestPublish_StampsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Logo", IsPublic: true})
	require.NoError(t, err)

	_, err = svc.Publish(actorOf(bob), p.Slug)
	requireStatus(t, err, http.StatusForbidden)

	first, err := svc.Publish(actorOf(alice), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPublished, first.Status)
	require.NotNil(t, first.PublishedAt)

	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{Status: strPtr(models.ProjectStatusDraft)})
	require.NoError(t, err)
	again, err := svc.Publish(actorOf(alice), p.Slug)
	require.NoError(t, err)
	require.NotNil(t, again.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(*again.PublishedAt), "published_at must not move")

	archived, err := svc.Archive(actorOf(alice), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, archived.Status)

	_, err = svc.Publish(actorOf(alice), p.Slug)
	requireStatus(t, err, http.StatusConflict)
	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{Status: strPtr(models.ProjectStatusDraft)})
	requireStatus(t, err, http.StatusConflict)
}

func TestUpdateProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	photo := category(t, db, "photography")

	p, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Logo", CategoryID: &photo.ID})
	require.NoError(t, err)

	// private draft: bob cannot see it at all
	_, err = svc.Update(actorOf(bob), p.Slug, &UpdateProjectRequest{Title: strPtr("x")})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{IsPublic: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Update(actorOf(bob), p.Slug, &UpdateProjectRequest{Title: strPtr("x")})
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{Status: strPtr(models.ProjectStatusPublished)})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{Title: strPtr(" ")})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{CategoryID: uintPtr(999)})
	requireStatus(t, err, http.StatusNotFound)

	updated, err := svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{
		Title:      strPtr("New Logo"),
		Tags:       strPtr("a,b,a"),
		IsFeatured: boolPtr(true),
		CategoryID: uintPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Logo", updated.Title)
	assert.Equal(t, "logo", updated.Slug, "slug is stable across renames")
	assert.Equal(t, "a,b", updated.Tags)
	assert.True(t, updated.IsFeatured)
	assert.Nil(t, updated.CategoryID)
}

func TestDeleteProject_CascadesAndCounter(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	assoc := NewAssociationService(db)
	interactions := NewInteractionService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p := publishedProject(t, svc, alice, "Logo")
	media := createMedia(t, db, alice, "mark")
	_, err := assoc.AddMedia(actorOf(alice), p.Slug, &AddMediaRequest{MediaID: media.ID})
	require.NoError(t, err)
	_, err = interactions.Comment(actorOf(bob), p.Slug, &CommentRequest{Content: "nice"})
	require.NoError(t, err)
	_, err = interactions.ToggleLike(actorOf(bob), p.Slug)
	require.NoError(t, err)

	requireStatus(t, svc.Delete(actorOf(bob), p.Slug), http.StatusForbidden)
	require.NoError(t, svc.Delete(actorOf(alice), p.Slug))

	assert.Equal(t, int64(0), count(t, db, &models.Project{}, ""))
	assert.Equal(t, int64(0), count(t, db, &models.ProjectMedia{}, ""))
	assert.Equal(t, int64(0), count(t, db, &models.ProjectComment{}, ""))
	assert.Equal(t, int64(0), count(t, db, &models.ProjectLike{}, ""))
	assert.Equal(t, int64(1), count(t, db, &models.MediaAsset{}, ""), "media survives its project")
	assert.Equal(t, int64(0), totalProjects(t, db, alice))

	// the counter never goes negative
	p2, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Other"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", alice.ID).Update("total_projects", 0).Error)
	require.NoError(t, svc.Delete(actorOf(alice), p2.Slug))
	assert.Equal(t, int64(0), totalProjects(t, db, alice))
}

func TestUpdateThumbnail(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	ctx := context.Background()

	p, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Poster"})
	require.NoError(t, err)

	_, _, err = svc.OpenThumbnail(ctx, actorOf(alice), p.Slug)
	requireStatus(t, err, http.StatusNotFound)
	_, err = svc.UpdateThumbnail(ctx, actorOf(alice), p.Slug, "cover.exe", 3, bytes.NewReader([]byte("bad")))
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.UpdateThumbnail(ctx, actorOf(bob), p.Slug, "cover.png", 3, bytes.NewReader([]byte("bob")))
	requireStatus(t, err, http.StatusNotFound)

	first, err := svc.UpdateThumbnail(ctx, actorOf(alice), p.Slug, "cover.png", 3, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	oldKey := first.ThumbnailKey
	require.True(t, strings.HasPrefix(oldKey, "thumbnails/"))

	second, err := svc.UpdateThumbnail(ctx, actorOf(alice), p.Slug, "cover.jpg", 3, bytes.NewReader([]byte("two")))
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, second.ThumbnailKey)
	_, err = svc.store.Size(ctx, oldKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// drafts stay hidden from everyone but their editors
	_, _, err = svc.OpenThumbnail(ctx, Actor{}, p.Slug)
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Update(actorOf(alice), p.Slug, &UpdateProjectRequest{IsPublic: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Publish(actorOf(alice), p.Slug)
	require.NoError(t, err)

	rc, key, err := svc.OpenThumbnail(ctx, Actor{}, p.Slug)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "two", string(data))
	assert.Equal(t, second.ThumbnailKey, key)

	_, err = svc.UpdateThumbnail(ctx, actorOf(bob), p.Slug, "cover.png", 3, bytes.NewReader([]byte("bob")))
	requireStatus(t, err, http.StatusForbidden)

	require.NoError(t, svc.Delete(actorOf(alice), p.Slug))
	_, err = svc.store.Size(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "thumbnail is removed with its project")
}

func TestDetail(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	assoc := NewAssociationService(db)
	interactions := NewInteractionService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p := publishedProject(t, svc, alice, "Logo")
	for _, title := range []string{"first", "second"} {
		m := createMedia(t, db, alice, title)
		_, err := assoc.AddMedia(actorOf(alice), p.Slug, &AddMediaRequest{MediaID: m.ID})
		require.NoError(t, err)
	}
	_, err := interactions.Comment(actorOf(bob), p.Slug, &CommentRequest{Content: "older"})
	require.NoError(t, err)
	_, err = interactions.Comment(actorOf(alice), p.Slug, &CommentRequest{Content: "newer"})
	require.NoError(t, err)
	_, err = interactions.ToggleLike(actorOf(bob), p.Slug)
	require.NoError(t, err)

	detail, err := svc.Detail(actorOf(bob), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Project.ViewCount)
	assert.True(t, detail.UserLiked)
	assert.False(t, detail.CanEdit)
	assert.True(t, detail.CanComment)
	require.Len(t, detail.Media, 2)
	assert.Equal(t, "first", detail.Media[0].Media.Title)
	assert.Equal(t, 0, detail.Media[0].Order)
	assert.Equal(t, 1, detail.Media[1].Order)
	require.Equal(t, 2, detail.CommentCount)
	assert.Equal(t, "newer", detail.Comments[0].Content)
	assert.Equal(t, "alice", detail.Project.Creator.Username)

	detail, err = svc.Detail(Actor{}, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.Project.ViewCount)
	assert.False(t, detail.UserLiked)
	assert.False(t, detail.CanComment)

	draft, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Secret"})
	require.NoError(t, err)
	_, err = svc.Detail(actorOf(bob), draft.Slug)
	requireStatus(t, err, http.StatusNotFound)
	_, err = svc.Detail(actorOf(bob), "missing")
	requireStatus(t, err, http.StatusNotFound)
}

func TestBrowse(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")
	photo := category(t, db, "photography")

	for i := 0; i < 14; i++ {
		publishedProject(t, svc, alice, fmt.Sprintf("Shot %02d", i))
	}
	inCat, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Aurora", CategoryID: &photo.ID, IsPublic: true, Tags: "night"})
	require.NoError(t, err)
	_, err = svc.Publish(actorOf(alice), inCat.Slug)
	require.NoError(t, err)
	_, err = svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Draft", IsPublic: true})
	require.NoError(t, err)
	private, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: "Private"})
	require.NoError(t, err)
	_, err = svc.Publish(actorOf(alice), private.Slug)
	require.NoError(t, err)

	page, err := svc.Browse(&BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(15), page.Total)
	assert.Len(t, page.Items, BrowsePageSize)
	assert.Equal(t, "-created_at", page.Sort)
	assert.Equal(t, "Aurora", page.Items[0].Title)

	page, err = svc.Browse(&BrowseRequest{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = svc.Browse(&BrowseRequest{Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, "Aurora", page.Items[0].Title)
	page, err = svc.Browse(&BrowseRequest{Sort: "-title"})
	require.NoError(t, err)
	assert.Equal(t, "Shot 13", page.Items[0].Title)

	page, err = svc.Browse(&BrowseRequest{Sort: "password; DROP TABLE users"})
	require.NoError(t, err)
	assert.Equal(t, "-created_at", page.Sort)

	page, err = svc.Browse(&BrowseRequest{Search: "night"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Aurora", page.Items[0].Title)

	cat, err := svc.Category("photography", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cat.Total)
	assert.Equal(t, "Photography", cat.Category.Name)

	_, err = svc.Category("nope", 1)
	requireStatus(t, err, http.StatusNotFound)
}

func TestDashboard(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	for i := 0; i < 7; i++ {
		_, err := svc.Create(actorOf(alice), &CreateProjectRequest{Title: fmt.Sprintf("Draft %d", i)})
		require.NoError(t, err)
	}
	publishedProject(t, svc, alice, "Live")
	publishedProject(t, svc, bob, "Not mine")

	dash, err := svc.Dashboard(actorOf(alice))
	require.NoError(t, err)
	assert.Equal(t, int64(8), dash.TotalProjects)
	assert.Equal(t, int64(7), dash.DraftCount)
	assert.Equal(t, int64(1), dash.PublishedCount)
	assert.Len(t, dash.Recent, 6)
	assert.Equal(t, "Live", dash.Recent[0].Title)
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	require.NoError(t, models.SeedDefaultData(db))

	c, err := svc.CreateCategory(&CreateCategoryRequest{Name: "3D Art", Icon: "cube"})
	require.NoError(t, err)
	assert.Equal(t, "3d-art", c.Slug)

	_, err = svc.CreateCategory(&CreateCategoryRequest{Name: "3D Art"})
	requireStatus(t, err, http.StatusConflict)
	_, err = svc.CreateCategory(&CreateCategoryRequest{Name: "***"})
	requireStatus(t, err, http.StatusBadRequest)

	all, err := svc.ListCategories()
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, "3D Art", all[0].Name)
}
