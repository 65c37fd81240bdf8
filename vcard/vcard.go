package vcard

// Status codes reported by a session when executing commands. The zero value
// means success; everything else is carried to the guest as a card error.
type Status uint64

const (
	StatusOK Status = iota
	StatusGeneralError
	StatusNoCard
	StatusNoReader
	StatusNoMemory
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusGeneralError:
		return "general error"
	case StatusNoCard:
		return "no card"
	case StatusNoReader:
		return "no reader"
	case StatusNoMemory:
		return "out of memory"
	}
	return "unknown"
}

// Session is an active connection to a virtual reader and its card. PowerOn
// and Transmit may block; Release must be safe to call while another
// goroutine is mid-Transmit.
type Session interface {
	Name() string
	PowerOn() ([]byte, Status)
	Transmit(command []byte) ([]byte, Status)
	Release()
}

type NotificationKind int

const (
	NotifyReaderAttach NotificationKind = iota
	NotifyReaderDetach
	NotifyCardInsert
	NotifyCardRemove
	NotifyQuit
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyReaderAttach:
		return "reader attach"
	case NotifyReaderDetach:
		return "reader detach"
	case NotifyCardInsert:
		return "card insert"
	case NotifyCardRemove:
		return "card remove"
	case NotifyQuit:
		return "quit"
	}
	return "unknown"
}

// Notification is one asynchronous event from the session source. Session
// identifies which reader the notification is about and is nil for quit.
type Notification struct {
	Kind    NotificationKind
	Session Session
}

// NotificationSource delivers reader and card notifications to whoever calls
// WaitNext. PushQuit unblocks a pending WaitNext so the caller can stop.
type NotificationSource interface {
	WaitNext() Notification
	PushQuit()
}
