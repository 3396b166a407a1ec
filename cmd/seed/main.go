// Seeds a running leafchat server with fake users and a conversation,
// then watches the conversation through the polling client for a few
// intervals. Useful for manual testing against a local instance.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"leafchat/internal/chat/poller"
	"leafchat/internal/dbmysql"
)

var baseURL = envOrDefault("LEAFCHAT_URL", "http://localhost:8080/api/v1")

type account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  dbmysql.User `json:"user"`
}

func main() {
	gofakeit.Seed(time.Now().UnixNano())

	// 1. Register two users.
	alice := account{Name: gofakeit.Name(), Email: gofakeit.Email(), Password: "123456"}
	bob := account{Name: gofakeit.Name(), Email: gofakeit.Email(), Password: "123456"}

	aliceAuth := signup(alice)
	bobAuth := signup(bob)
	log.Printf("registered %s and %s", aliceAuth.User.Name, bobAuth.User.Name)

	// 2. Alice opens a direct conversation with Bob.
	conv := createConversation(aliceAuth, bobAuth.User.ID)
	log.Printf("created conversation %s", conv.ID)

	// 3. Both send a few messages.
	for i := 0; i < 5; i++ {
		sendMessage(aliceAuth, conv.ID, gofakeit.HipsterSentence(6))
		sendMessage(bobAuth, conv.ID, gofakeit.HipsterSentence(6))
	}

	// 4. Watch the conversation the way the browser does: poll and reconcile.
	p := poller.New(conv.ID, 2*time.Second, func(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
		var messages []*dbmysql.Message
		err := doJSON(http.MethodGet, "/messages?conversationId="+conversationID, bobAuth.Token, nil, &messages)
		return messages, err
	})

	ctx, cancel := context.WithTimeout(context.Background(), 7*time.Second)
	defer cancel()
	_ = p.Run(ctx)

	for _, msg := range p.View().Messages() {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format(time.TimeOnly), msg.Sender.Name, msg.Content)
	}
}

func signup(acc account) authResponse {
	var resp authResponse
	if err := doJSON(http.MethodPost, "/auth/signup", "", acc, &resp); err != nil {
		log.Fatalf("signup failed for %s: %v", acc.Email, err)
	}
	return resp
}

func createConversation(auth authResponse, otherUserID string) dbmysql.Conversation {
	payload := map[string]interface{}{
		"title":        "",
		"type":         "DIRECT",
		"participants": []string{otherUserID},
	}
	var conv dbmysql.Conversation
	if err := doJSON(http.MethodPost, "/conversations", auth.Token, payload, &conv); err != nil {
		log.Fatalf("create conversation failed: %v", err)
	}
	return conv
}

func sendMessage(auth authResponse, conversationID, content string) {
	payload := map[string]string{"conversationId": conversationID, "content": content}
	var msg dbmysql.Message
	if err := doJSON(http.MethodPost, "/messages", auth.Token, payload, &msg); err != nil {
		log.Fatalf("send message failed: %v", err)
	}
}

func doJSON(method, path, token string, payload, out interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
