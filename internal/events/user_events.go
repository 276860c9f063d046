package events

const (
	UserAccessChanged = "user.access.changed"
	UserDeleted       = "user.deleted"
)

// UserAccessChangedEvent is published after a role or permission write.
// Change is "role" or "permission"; Value is the new role or the granted tag.
type UserAccessChangedEvent struct {
	UserID  uint64
	ActorID uint64
	Change  string
	Value   string
}

func (e UserAccessChangedEvent) Name() string {
	return UserAccessChanged
}

type UserDeletedEvent struct {
	UserID  uint64
	ActorID uint64
}

func (e UserDeletedEvent) Name() string {
	return UserDeleted
}
