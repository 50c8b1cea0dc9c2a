package store

import (
	"sort"

	"github.com/amterp/postdeck/internal/model"
)

// MemoryUserDirectory implements UserDirectory over a fixed user list.
type MemoryUserDirectory struct {
	byID  map[int]*model.User
	order []int
}

// NewUserDirectory indexes users by ID. Later duplicates win.
func NewUserDirectory(users []model.User) *MemoryUserDirectory {
	d := &MemoryUserDirectory{byID: make(map[int]*model.User, len(users))}
	for i := range users {
		u := users[i]
		if _, exists := d.byID[u.ID]; !exists {
			d.order = append(d.order, u.ID)
		}
		d.byID[u.ID] = &u
	}
	sort.Ints(d.order)
	return d
}

// Get returns the user with the given ID.
func (d *MemoryUserDirectory) Get(id int) (*model.User, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// List returns the users ordered by ID.
func (d *MemoryUserDirectory) List() []model.User {
	out := make([]model.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.byID[id])
	}
	return out
}
