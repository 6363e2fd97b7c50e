package event_bus

const (
	CommandUsedType       EventType = "bot.command_used"
	BroadcastFinishedType EventType = "broadcast.finished"
)

// CommandUsed is published for every command or callback action a chat triggers.
type CommandUsed struct {
	UserId    int64
	FirstName string
	LastName  string
	Username  string
	Command   string
	ChatType  string
	ChatId    int64
	ChatTitle string
}

type BroadcastFinished struct {
	BroadcastId int
	Method      string
	Total       int
	Succeeded   int
	Failed      int
}
