package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"projukti-support-backend/internal/agent"
	"projukti-support-backend/internal/env"
	"projukti-support-backend/internal/model"

	"github.com/joho/godotenv"
)

// agent-console is a terminal client for the support dashboard: it joins the
// push channel as an agent, mirrors every conversation, and lets you answer
// customers from stdin.
func main() {
	godotenv.Load()

	url := env.GetOrDefault(env.WSAgentURL, "ws://localhost:8081/api/v1/ws/agent")
	if token := env.Get(env.AgentToken); token != "" {
		url += "?token=" + token
	}

	store := agent.NewStore()
	selector := agent.NewSelector(store)

	store.SetOnChange(func() {
		if active := selector.Active(); active != "" {
			return
		}
		fmt.Printf("\r[%d unread] > ", store.TotalUnread())
	})

	client := agent.NewChannelClient(url, store)
	if err := client.Connect(context.Background()); err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	fmt.Println("connected. commands: ls, open <userId>, close, quit; anything else sends to the open thread")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "quit" || line == "exit":
			return
		case line == "ls":
			printThreads(store, selector)
		case line == "close":
			selector.Clear()
		case strings.HasPrefix(line, "open "):
			openThread(store, selector, strings.TrimSpace(strings.TrimPrefix(line, "open ")))
		case line != "":
			sendToActive(store, selector, line)
		}
		fmt.Print("> ")
	}
}

func printThreads(store *agent.Store, selector *agent.Selector) {
	threads := selector.Conversations()
	if len(threads) == 0 {
		fmt.Println("no conversations yet")
		return
	}
	for _, thread := range threads {
		marker := " "
		if thread.UserID == selector.Active() {
			marker = "*"
		}
		name := thread.UserName
		if name == "" {
			name = thread.UserID
		}
		fmt.Printf("%s %-20s %-16s unread=%d last=%s\n",
			marker, name, thread.UserID, store.Unread(thread.UserID),
			thread.LastActivity.Local().Format("15:04:05"))
	}
}

func openThread(store *agent.Store, selector *agent.Selector, userID string) {
	thread, ok := store.ThreadFor(userID)
	if !ok {
		fmt.Printf("no thread for %s\n", userID)
		return
	}

	selector.Select(userID)
	for _, msg := range thread.Messages {
		who := thread.UserName
		if msg.Sender == model.SenderAdmin {
			who = "you"
		}
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04:05"), who, msg.Text)
	}
}

func sendToActive(store *agent.Store, selector *agent.Selector, text string) {
	active := selector.Active()
	if active == "" {
		fmt.Println("open a thread first: open <userId>")
		return
	}
	if _, err := store.Send(active, text); err != nil {
		fmt.Printf("send failed: %v\n", err)
	}
}
