package repository

// Window is a limit/offset slice of an ordered listing.
type Window struct {
	Limit  int
	Offset int
}
