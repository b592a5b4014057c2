package views

import "fmt"

// Placeholder fills the occupant columns of a free locker.
const Placeholder = "--- free ---"

const (
	MsgNoFreeLockers     = "No lockers are currently free."
	MsgNoRegisterTargets = "There are no free lockers to register."
	MsgNoOccupied        = "No lockers are currently in use."
	MsgMissingFields     = "Enter both student ID and name."
	MsgLoginPrompt       = "Log in with username and password to access administrator functions."
	MsgLoginFailed       = "Username/password is incorrect"
	MsgNotAdmin          = "You are not registered as an administrator."
	MsgTooManyAttempts   = "Too many login attempts. Wait a moment and try again."
	MsgAlreadyFree       = "That locker is already free."
	MsgAlreadyTaken      = "That locker was taken in the meantime. Pick another one."
	MsgUnknownLocker     = "No such locker."
)

func MsgRegistered(no, name string) string {
	return fmt.Sprintf("Registered %s to locker %s.", name, no)
}

func MsgReleased(no string) string {
	return fmt.Sprintf("Removed the occupant of locker %s.", no)
}

func MsgWelcome(identity string) string {
	return fmt.Sprintf("Welcome %s (Admin)", identity)
}
