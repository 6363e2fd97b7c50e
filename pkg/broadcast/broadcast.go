package broadcast

import (
	"errors"
	"time"

	"github.com/weekstatus/weekstatus/pkg/chat"
)

var ErrInvalidMethod = errors.New("invalid broadcast method")
var ErrInvalidTarget = errors.New("invalid broadcast target")

// Method is how the admin's message reaches recipients.
type Method string

const (
	Copy    Method = "copy"
	Forward Method = "forward"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case Copy, Forward:
		return Method(s), nil
	}
	return "", ErrInvalidMethod
}

func (m Method) Label() string {
	if m == Forward {
		return "فوروارد"
	}
	return "کپی (از طرف ربات)"
}

type Target string

const (
	AllUsers  Target = "all_users"
	AllGroups Target = "all_groups"
	AllBoth   Target = "all_both"
)

func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case AllUsers, AllGroups, AllBoth:
		return Target(s), nil
	}
	return "", ErrInvalidTarget
}

func (t Target) Description() string {
	switch t {
	case AllUsers:
		return "همه کاربران"
	case AllGroups:
		return "همه گروه‌ها"
	case AllBoth:
		return "همه کاربران و گروه‌ها"
	}
	return string(t)
}

// Kinds lists the registries the target reads recipients from.
func (t Target) Kinds() []chat.Kind {
	switch t {
	case AllUsers:
		return []chat.Kind{chat.Users}
	case AllGroups:
		return []chat.Kind{chat.Groups}
	case AllBoth:
		return []chat.Kind{chat.Users, chat.Groups}
	}
	return nil
}

type Status string

const (
	StatusPending             Status = "pending"
	StatusSending             Status = "sending"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
)

type DeliveryStatus string

const (
	Sent   DeliveryStatus = "sent"
	Failed DeliveryStatus = "failed"
)

type Broadcast struct {
	Id                   int
	AdminMessageId       int
	AdminChatId          int64
	Method               Method
	TargetDescription    string
	Status               Status
	FinalReportMessageId int
	SuccessCount         int
	FailCount            int
	CreatedAt            time.Time
}

// Delivery is one recipient's outcome; SentMessageId is 0 when sending failed.
type Delivery struct {
	BroadcastId     int
	RecipientChatId int64
	SentMessageId   int
	Status          DeliveryStatus
	FailureReason   string
}

// Request is a confirmed broadcast: the admin's message ContentMessageId in ContentChatId goes to Target.
type Request struct {
	AdminId          int64
	Method           Method
	Target           Target
	ContentChatId    int64
	ContentMessageId int
}

type Report struct {
	BroadcastId int
	Total       int
	Succeeded   int
	Failed      int
}

func (r Report) Status() Status {
	if r.Failed == 0 {
		return StatusCompleted
	}
	return StatusCompletedWithErrors
}
