package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	payload := []byte(`{"point_count":1}`)
	hub.Broadcast("session-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != string(payload) {
			t.Fatalf("unexpected message %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubBroadcastIsolatesSessions(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Register("a")
	b := hub.Register("b")
	defer hub.Unregister(a)
	defer hub.Unregister(b)

	hub.Broadcast("a", []byte(`1`))

	select {
	case <-b.Send:
		t.Fatalf("session b must not receive session a payloads")
	case <-time.After(20 * time.Millisecond):
	}
	if hub.Subscribers("a") != 1 || hub.Subscribers("missing") != 0 {
		t.Fatalf("unexpected subscriber counts")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	if sessionIDFromChannel("bad") != "" {
		t.Fatalf("expected empty session id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisRelayBetweenHubs(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	defer rdbB.Close()

	hubA := NewHub(rdbA)
	hubB := NewHub(rdbB)

	local := hubA.Register("session-redis")
	remote := hubB.Register("session-redis")
	defer hubA.Unregister(local)
	defer hubB.Unregister(remote)

	hubA.Broadcast("session-redis", []byte(`"ping"`))

	for name, c := range map[string]*Client{"local": local, "remote": remote} {
		select {
		case msg := <-c.Send:
			if string(msg) != `"ping"` {
				t.Fatalf("%s: unexpected message %s", name, msg)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("%s: timeout waiting for broadcast", name)
		}
	}

	// the origin hub must not deliver its own relayed copy
	select {
	case msg := <-local.Send:
		t.Fatalf("duplicate delivery on origin hub: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRedisForeignPublish(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("session-x")
	defer hub.Unregister(ws)

	msg, _ := json.Marshal(envelope{Origin: "other-replica", Payload: []byte(`"pong"`)})
	if err := client.Publish(context.Background(), redisChannel("session-x"), msg).Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	// garbage is skipped without killing the subscriber
	_ = client.Publish(context.Background(), redisChannel("session-x"), "not-json").Err()

	select {
	case got := <-ws.Send:
		if string(got) != `"pong"` {
			t.Fatalf("unexpected message from redis: %s", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("session-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("session-bad", []byte(`"ping"`))

	select {
	case <-clientNode.Send:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("local delivery must not depend on redis")
	}
}
