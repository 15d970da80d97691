package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Title   ThreadTitle
	Message MsgText
	Image   *PendingImage
}

type Thread struct {
	Id        ThreadId
	Title     ThreadTitle
	Message   MsgText
	Image     *Attachment // nil when the thread has no image
	CreatedAt time.Time
}

// ThreadPage is one bounded slice of the thread sequence, newest first,
// plus the page-index metadata the view branches on.
type ThreadPage struct {
	Threads     []Thread
	CurrentPage int
	TotalPages  int
}

// Empty reports whether the page holds no threads. Pre-computed emptiness
// check for the view's "no threads found" branch; an empty page is a valid
// result, not an error.
func (p ThreadPage) Empty() bool {
	return len(p.Threads) == 0
}
