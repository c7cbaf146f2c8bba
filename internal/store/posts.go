package store

import "github.com/sundayschool-dev/sundayschool/internal/models"

// PostAction covers the feed: post CRUD, likes and comments
type PostAction interface {
	postAction()
}

type LoadPosts struct{ Posts []models.Post }

// AddPost puts the post at the top of the feed
type AddPost struct{ Post models.Post }

type UpdatePost struct {
	ID    string
	Patch models.PostPatch
}

type DeletePost struct{ ID string }

// LikePost toggles UserID in the post's likes
type LikePost struct {
	PostID string
	UserID string
}

type AddComment struct {
	PostID  string
	Comment models.Comment
}

// LikeComment toggles UserID in a top-level comment's likes
type LikeComment struct {
	PostID    string
	CommentID string
	UserID    string
}

func (LoadPosts) postAction()   {}
func (AddPost) postAction()     {}
func (UpdatePost) postAction()  {}
func (DeletePost) postAction()  {}
func (LikePost) postAction()    {}
func (AddComment) postAction()  {}
func (LikeComment) postAction() {}

func postID(p models.Post) string       { return p.ID }
func commentID(c models.Comment) string { return c.ID }

// ReducePosts is the feed reducer
func ReducePosts(state []models.Post, action PostAction) []models.Post {
	switch a := action.(type) {
	case LoadPosts:
		return append([]models.Post(nil), a.Posts...)
	case AddPost:
		return append([]models.Post{a.Post}, state...)
	case UpdatePost:
		return updated(state, a.ID, postID, func(p *models.Post) {
			a.Patch.Apply(p)
		})
	case DeletePost:
		return without(state, a.ID, postID)
	case LikePost:
		return updated(state, a.PostID, postID, func(p *models.Post) {
			p.Likes = toggle(p.Likes, a.UserID)
		})
	case AddComment:
		return updated(state, a.PostID, postID, func(p *models.Post) {
			p.Comments = append(append(make([]models.Comment, 0, len(p.Comments)+1), p.Comments...), a.Comment)
		})
	case LikeComment:
		return updated(state, a.PostID, postID, func(p *models.Post) {
			p.Comments = updated(p.Comments, a.CommentID, commentID, func(c *models.Comment) {
				c.Likes = toggle(c.Likes, a.UserID)
			})
		})
	default:
		return state
	}
}

// Posts is a store over the feed
type Posts = Store[[]models.Post, PostAction]

// NewPosts creates an empty feed store
func NewPosts() *Posts {
	return New[[]models.Post, PostAction](nil, ReducePosts)
}
