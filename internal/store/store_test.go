package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayschool-dev/sundayschool/internal/models"
)

func user(id, first string) models.User {
	return models.User{BaseModel: models.BaseModel{ID: id}, FirstName: first, Role: models.RoleUser}
}

func TestUsers_Lifecycle(t *testing.T) {
	s := NewUsers()

	s.Dispatch(LoadUsers{Users: []models.User{user("u1", "Abebe"), user("u2", "Almaz")}})
	s.Dispatch(AddUser{User: user("u3", "Sara")})
	require.Len(t, s.State(), 3)
	assert.Equal(t, "u3", s.State()[2].ID)

	s.Dispatch(UpdateUser{ID: "u2", Patch: models.UserPatch{FirstName: models.Ptr("Almaz T.")}})
	assert.Equal(t, "Almaz T.", s.State()[1].FirstName)
	assert.Equal(t, "Abebe", s.State()[0].FirstName)

	s.Dispatch(DeleteUser{ID: "u1"})
	require.Len(t, s.State(), 2)
	assert.Equal(t, "u2", s.State()[0].ID)

	// Unknown ids are no-ops
	s.Dispatch(DeleteUser{ID: "missing"})
	s.Dispatch(UpdateUser{ID: "missing", Patch: models.UserPatch{FirstName: models.Ptr("x")}})
	assert.Len(t, s.State(), 2)
}

func TestReduceUsers_DoesNotMutateInput(t *testing.T) {
	before := []models.User{user("u1", "Abebe")}

	after := ReduceUsers(before, UpdateUser{ID: "u1", Patch: models.UserPatch{FirstName: models.Ptr("Kebede")}})
	assert.Equal(t, "Abebe", before[0].FirstName)
	assert.Equal(t, "Kebede", after[0].FirstName)

	_ = ReduceUsers(before, AddUser{User: user("u2", "Sara")})
	assert.Len(t, before, 1)
}

func TestAssets_Lifecycle(t *testing.T) {
	s := NewAssets()

	s.Dispatch(AddAsset{Asset: models.Asset{ID: "a1", Name: "Projector", Status: "available"}})
	s.Dispatch(AddAsset{Asset: models.Asset{ID: "a2", Name: "Piano", Status: "available"}})
	s.Dispatch(UpdateAsset{ID: "a1", Patch: models.AssetPatch{
		Status:     models.Ptr("assigned"),
		AssignedTo: models.Ptr("u1"),
		Tags:       &[]string{"av"},
	}})

	got := s.State()
	require.Len(t, got, 2)
	assert.Equal(t, "assigned", got[0].Status)
	assert.Equal(t, "u1", got[0].AssignedTo)
	assert.Equal(t, []string{"av"}, got[0].Tags)
	assert.Equal(t, "available", got[1].Status)

	s.Dispatch(DeleteAsset{ID: "a2"})
	assert.Len(t, s.State(), 1)

	s.Dispatch(LoadAssets{Assets: nil})
	assert.Empty(t, s.State())
}

func TestPosts_AddPrepends(t *testing.T) {
	s := NewPosts()
	s.Dispatch(AddPost{Post: models.Post{ID: "p1"}})
	s.Dispatch(AddPost{Post: models.Post{ID: "p2"}})

	got := s.State()
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, "p1", got[1].ID)
}

func TestPosts_LikeToggles(t *testing.T) {
	s := NewPosts()
	s.Dispatch(LoadPosts{Posts: []models.Post{{ID: "p1", Likes: []string{"u9"}}}})

	s.Dispatch(LikePost{PostID: "p1", UserID: "u1"})
	assert.Equal(t, []string{"u9", "u1"}, s.State()[0].Likes)

	s.Dispatch(LikePost{PostID: "p1", UserID: "u1"})
	assert.Equal(t, []string{"u9"}, s.State()[0].Likes)
}

func TestPosts_Comments(t *testing.T) {
	s := NewPosts()
	s.Dispatch(LoadPosts{Posts: []models.Post{{ID: "p1"}, {ID: "p2"}}})

	s.Dispatch(AddComment{PostID: "p1", Comment: models.Comment{ID: "c1", PostID: "p1", Text: "Amen"}})
	s.Dispatch(AddComment{PostID: "p1", Comment: models.Comment{ID: "c2", PostID: "p1", Text: "Thanks"}})
	require.Len(t, s.State()[0].Comments, 2)
	assert.Empty(t, s.State()[1].Comments)

	s.Dispatch(LikeComment{PostID: "p1", CommentID: "c2", UserID: "u1"})
	assert.Equal(t, []string{"u1"}, s.State()[0].Comments[1].Likes)
	assert.Empty(t, s.State()[0].Comments[0].Likes)

	s.Dispatch(LikeComment{PostID: "p1", CommentID: "c2", UserID: "u1"})
	assert.Empty(t, s.State()[0].Comments[1].Likes)
}

func TestPosts_UpdateAndDelete(t *testing.T) {
	s := NewPosts()
	s.Dispatch(LoadPosts{Posts: []models.Post{{ID: "p1", Title: "Old", IsPinned: false}}})

	s.Dispatch(UpdatePost{ID: "p1", Patch: models.PostPatch{Title: models.Ptr("New"), IsPinned: models.Ptr(true)}})
	assert.Equal(t, "New", s.State()[0].Title)
	assert.True(t, s.State()[0].IsPinned)

	s.Dispatch(DeletePost{ID: "p1"})
	assert.Empty(t, s.State())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewUsers()

	var seen [][]models.User
	unsubscribe := s.Subscribe(func(state []models.User) {
		seen = append(seen, state)
	})

	s.Dispatch(AddUser{User: user("u1", "Abebe")})
	unsubscribe()
	s.Dispatch(AddUser{User: user("u2", "Sara")})

	require.Len(t, seen, 1)
	assert.Len(t, seen[0], 1)
}
