package model

const (
	ChatThreadsTable    = "ChatThreads"
	ChatMessagesTable   = "ChatMessages"
	SupportTicketsTable = "SupportTickets"
	SupportDraftsTable  = "SupportDrafts"
)
