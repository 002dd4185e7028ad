package domain

import "time"

// Instruction is a user-saved, reusable generation instruction.
type Instruction struct {
	ID        string
	Title     string
	Text      string
	CreatedAt time.Time
}
