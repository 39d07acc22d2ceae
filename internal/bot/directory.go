package bot

// AllowList is the set of users allowed to schedule and list posts.
type AllowList map[int64]struct{}

// NewAllowList builds an AllowList from ids.
func NewAllowList(ids ...int64) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// IsAuthorized implements wizard.Directory.
func (a AllowList) IsAuthorized(userID int64) bool {
	_, ok := a[userID]
	return ok
}
