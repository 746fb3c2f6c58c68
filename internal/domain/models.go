package domain

// Models lists every persisted model in migration order
func Models() []any {
	return []any{
		&User{},
		&Student{},
		&Club{},
		&Event{},
		&Registration{},
		&Payment{},
		&Notification{},
	}
}
