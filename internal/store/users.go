package store

import "github.com/sundayschool-dev/sundayschool/internal/models"

// UserAction is one of LoadUsers, AddUser, UpdateUser, DeleteUser
type UserAction interface {
	userAction()
}

type LoadUsers struct{ Users []models.User }

type AddUser struct{ User models.User }

type UpdateUser struct {
	ID    string
	Patch models.UserPatch
}

type DeleteUser struct{ ID string }

func (LoadUsers) userAction()  {}
func (AddUser) userAction()    {}
func (UpdateUser) userAction() {}
func (DeleteUser) userAction() {}

func userID(u models.User) string { return u.ID }

// ReduceUsers is the user list reducer
func ReduceUsers(state []models.User, action UserAction) []models.User {
	switch a := action.(type) {
	case LoadUsers:
		return append([]models.User(nil), a.Users...)
	case AddUser:
		return append(append(make([]models.User, 0, len(state)+1), state...), a.User)
	case UpdateUser:
		return updated(state, a.ID, userID, func(u *models.User) {
			a.Patch.Apply(u)
		})
	case DeleteUser:
		return without(state, a.ID, userID)
	default:
		return state
	}
}

// Users is a store over the user list
type Users = Store[[]models.User, UserAction]

// NewUsers creates an empty user store
func NewUsers() *Users {
	return New[[]models.User, UserAction](nil, ReduceUsers)
}
