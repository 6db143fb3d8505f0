package registration

import (
	"fmt"
	"time"
)

// TimestampLayout is the layout of the submission timestamp cell.
const TimestampLayout = "2006-01-02 15:04:05"

type Session struct {
	ID        string           `json:"id"`
	Step      Step             `json:"step"`
	Fields    map[Field]string `json:"fields"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Step:      StepAwaitingName,
		Fields:    make(map[Field]string, len(orderedFields)),
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so stores never share the Fields map with callers.
func (s Session) Clone() Session {
	out := s
	out.Fields = make(map[Field]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	return out
}

type Contact struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	UserID      int64
}

// Input is a single inbound message: free text, a shared contact, or both.
type Input struct {
	Text     string
	Contact  *Contact
	SenderID int64
}

func TextInput(text string) Input {
	return Input{Text: text}
}

func ContactInput(phone string) Input {
	return Input{Contact: &Contact{PhoneNumber: phone}}
}

// Reply is the single outbound message produced by every transition.
type Reply struct {
	Text           string
	Options        [][]string
	RequestContact bool
	Step           Step
	Record         *Record
}

type Record struct {
	FullName    string
	Phone       string
	Region      string
	Direction   string
	Branch      string
	SubmittedAt time.Time
}

// Row returns the record cells in storage order.
func (r Record) Row() []string {
	return []string{
		r.FullName,
		r.Phone,
		r.Region,
		r.Direction,
		r.Branch,
		r.SubmittedAt.Format(TimestampLayout),
	}
}

// newRecord builds a record from a session sitting at the branch step with the branch value
// that has just passed validation.
func newRecord(s Session, branch string, submittedAt time.Time) (Record, error) {
	if s.Step != StepAwaitingBranch {
		return Record{}, fmt.Errorf("newRecord: session %s is at %s", s.ID, s.Step)
	}
	for _, f := range fieldsBefore(StepAwaitingBranch) {
		if _, ok := s.Fields[f]; !ok {
			return Record{}, fmt.Errorf("newRecord: session %s is missing %s", s.ID, f)
		}
	}

	return Record{
		FullName:    s.Fields[FieldName],
		Phone:       s.Fields[FieldPhone],
		Region:      s.Fields[FieldRegion],
		Direction:   s.Fields[FieldDirection],
		Branch:      branch,
		SubmittedAt: submittedAt,
	}, nil
}
