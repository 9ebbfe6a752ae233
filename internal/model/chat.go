package model

import "fmt"

type SenderType string

const (
	SenderUser  SenderType = "user"
	SenderAdmin SenderType = "admin"
)

func ChatMessagePK(userID, messageID string) string {
	return fmt.Sprintf("%s#%s", userID, messageID)
}

// ThreadItem is one conversation per end user. The userId doubles as the
// partition key; display order is derived from lastActivity, never from
// storage order.
type ThreadItem struct {
	UserID       string `dynamodbav:"userId"`
	UserName     string `dynamodbav:"userName,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt"`
	LastActivity string `dynamodbav:"lastActivity"`
}

type ChatMessageItem struct {
	PK          string     `dynamodbav:"pk"`
	UserID      string     `dynamodbav:"userId"`
	MessageID   string     `dynamodbav:"messageId"`
	SenderType  SenderType `dynamodbav:"senderType"`
	Body        string     `dynamodbav:"body"`
	ReadByAdmin bool       `dynamodbav:"readByAdmin"`
	CreatedAt   string     `dynamodbav:"createdAt"`
}
