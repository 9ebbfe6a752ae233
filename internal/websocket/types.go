package websocket

// AgentsRoom carries all dashboard traffic. Every connected agent sees every
// customer thread, so one shared room is enough.
const AgentsRoom = "agents"

// UserRoomID names the private room a single customer widget connects to.
func UserRoomID(userID string) string {
	return "user:" + userID
}

type Room struct {
	Id      string               `json:"id"`
	Clients map[string]*WSClient `json:"clients"`
}

// WSMessage carries an already encoded channel event frame to a room.
type WSMessage struct {
	Data      []byte `json:"data"`
	RoomID    string `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

type RoomRes struct {
	ID string `json:"id"`
}
