package websocket

type Hub struct {
	Rooms      map[string]*Room
	Register   chan *WSClient
	Unregister chan *WSClient
	Broadcast  chan *WSMessage
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		Broadcast:  make(chan *WSMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				// Rooms appear when the first client joins. The agents room
				// and per-user rooms are both created on demand.
				room = &Room{
					Id:      client.RoomID,
					Clients: make(map[string]*WSClient),
				}
				h.Rooms[client.RoomID] = room
				setRooms(len(h.Rooms))
			}
			room.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				continue
			}
			if _, ok := room.Clients[client.ID]; ok {
				delete(room.Clients, client.ID)
				close(client.Message)
				decConnections()
			}

		case message := <-h.Broadcast:
			room, ok := h.Rooms[message.RoomID]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					close(client.Message)
					delete(room.Clients, client.ID)
					decConnections()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
		}
	}
}
