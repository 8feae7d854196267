package model

type SessionState int

const (
	Idle SessionState = iota
	AwaitPhoto
	AwaitDescription
	AwaitPrice
	AwaitPublish
	AwaitEmployeeID
	AwaitEmployeeRole
	AwaitUpload
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitPhoto:
		return "await_photo"
	case AwaitDescription:
		return "await_description"
	case AwaitPrice:
		return "await_price"
	case AwaitPublish:
		return "await_publish"
	case AwaitEmployeeID:
		return "await_employee_id"
	case AwaitEmployeeRole:
		return "await_employee_role"
	case AwaitUpload:
		return "await_upload"
	}
	return "unknown"
}

// Session is the conversation state of a single user.
type Session struct {
	UserID      int64
	State       SessionState
	PhotoID     string
	Description string
	Draft       *Product
	Employee    *Identity
}

func (s *Session) Reset() {
	*s = Session{UserID: s.UserID}
}

func (s *Session) InIntake() bool {
	return s.State == AwaitPhoto || s.State == AwaitDescription || s.State == AwaitPrice
}
