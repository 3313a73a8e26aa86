package stream

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Garsondee/Chicken-Arena/internal/game"
	"github.com/Garsondee/Chicken-Arena/internal/geom"
)

func testSnapshot(tick int) game.Snapshot {
	return game.Snapshot{
		Tick:   tick,
		Width:  640,
		Height: 480,
		Chickens: []game.ChickenRecord{
			{ID: 0, Label: "R0", Team: game.TeamRed, Position: geom.V(100, 200), Beak: geom.Wrap(45), HitPoints: 3},
			{ID: 1, Label: "B0", Team: game.TeamBlue, Position: geom.V(400, 200), Beak: geom.Wrap(180), HitPoints: 2},
		},
		Shots:  []game.ShotRecord{{ID: 3, OwnerID: 0, OwnerTeam: game.TeamRed, Position: geom.V(150, 200)}},
		Events: []game.Event{{Tick: tick, Kind: game.EventHit, ChickenID: 1, OtherID: 0, ShotID: 2}},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub("match-1", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitFor(t, func() bool { return hub.Count() == 1 })

	if err := hub.Broadcast(testSnapshot(7)); err != nil {
		t.Fatal(err)
	}
	f := readFrame(t, conn)
	if f.Tick != 7 || f.MatchID != "match-1" || f.Ver != ProtocolVersion {
		t.Fatalf("unexpected frame header %+v", f)
	}
	if len(f.Chickens) != 2 || f.Chickens[1].Team != "blue" || f.Chickens[1].HitPoints != 2 {
		t.Fatalf("unexpected chickens %+v", f.Chickens)
	}
	if len(f.Events) != 1 || f.Events[0].Kind != "hit" {
		t.Fatalf("unexpected events %+v", f.Events)
	}
	if f.Outcome != "" {
		t.Fatalf("both teams alive: outcome should be empty, got %q", f.Outcome)
	}
}

func TestHub_LateJoinerGetsLatestFrame(t *testing.T) {
	hub := NewHub("m", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	if err := hub.Broadcast(testSnapshot(3)); err != nil {
		t.Fatal(err)
	}
	conn := dial(t, srv)
	defer conn.Close()
	if f := readFrame(t, conn); f.Tick != 3 {
		t.Fatalf("late joiner should get tick 3 first, got %d", f.Tick)
	}
}

func TestHub_JoinersNeverSeeTicksGoBackwards(t *testing.T) {
	const lastTick = 200
	hub := NewHub("m", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	if err := hub.Broadcast(testSnapshot(0)); err != nil {
		t.Fatal(err)
	}

	go func() {
		for tick := 1; tick <= lastTick; tick++ {
			hub.Broadcast(testSnapshot(tick))
			time.Sleep(100 * time.Microsecond)
		}
	}()

	const clients = 8
	errs := make(chan error, clients)
	var wg sync.WaitGroup
	for range clients {
		conn := dial(t, srv)
		defer conn.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := -1
			for prev < lastTick {
				conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				_, data, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("read after tick %d: %w", prev, err)
					return
				}
				var f Frame
				if err := json.Unmarshal(data, &f); err != nil {
					errs <- err
					return
				}
				if f.Tick < prev {
					errs <- fmt.Errorf("tick went from %d back to %d", prev, f.Tick)
					return
				}
				prev = f.Tick
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestHub_DropsClosedClient(t *testing.T) {
	hub := NewHub("m", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Count() == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHub_SchemaAndState(t *testing.T) {
	hub := NewHub("m", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("no frame yet: expected 503, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/schema.json")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, field := range []string{`"chickens"`, `"shots"`, `"hp"`, `"required"`} {
		if !strings.Contains(string(body), field) {
			t.Fatalf("schema missing %s:\n%s", field, body)
		}
	}

	if err := hub.Broadcast(testSnapshot(9)); err != nil {
		t.Fatal(err)
	}
	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	var f Frame
	err = json.NewDecoder(resp.Body).Decode(&f)
	resp.Body.Close()
	if err != nil || f.Tick != 9 {
		t.Fatalf("expected latest frame at tick 9, got %d (err %v)", f.Tick, err)
	}
}

func TestNewFrame_Outcome(t *testing.T) {
	s := testSnapshot(1)
	s.Chickens = s.Chickens[:1]
	if f := NewFrame("m", s); f.Outcome != "red_victory" {
		t.Fatalf("expected red_victory, got %q", f.Outcome)
	}
}
