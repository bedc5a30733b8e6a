// Load generator for stress testing.
// Simulates a playing client plus a crowd of spectators hammering the
// WebSocket endpoint with inputs and snapshot reads.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

type action struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - Stress Test Tool")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%d Recv=%d Errors=%d\n", sent, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Receiver goroutine counts everything the server pushes back.
	go func() {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
		}
	}()

	// Everyone tries to join; exactly one client wins the player slot, the
	// rest become spectators and still generate socket pressure.
	join := action{
		Type:    "JOIN",
		Payload: map[string]string{"name": fmt.Sprintf("AGITATOR_%03d", clientID)},
	}
	if err := writeAction(conn, join, stats); err != nil {
		return
	}

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	yaw := rand.Float64() * 2 * math.Pi

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			yaw += (rand.Float64() - 0.5) * 0.4
			var a action
			if rand.Float64() < 0.2 {
				a = action{Type: "SHOOT", Payload: map[string]float64{"yaw": yaw}}
			} else {
				a = action{Type: "INPUT", Payload: map[string]interface{}{
					"forward": rand.Intn(3) - 1,
					"right":   rand.Intn(3) - 1,
					"yaw":     yaw,
					"fire":    rand.Float64() < 0.3,
				}}
			}
			if err := writeAction(conn, a, stats); err != nil {
				return
			}
		}
	}
}

func writeAction(conn *websocket.Conn, a action, stats *Stats) error {
	raw, err := json.Marshal(a.Payload)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return err
	}

	start := time.Now()
	msg := map[string]interface{}{"type": a.Type, "payload": json.RawMessage(raw)}
	if err := conn.WriteJSON(msg); err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return err
	}

	atomic.AddInt64(&stats.MessagesSent, 1)
	stats.mu.Lock()
	stats.Latencies = append(stats.Latencies, time.Since(start))
	stats.mu.Unlock()
	return nil
}

func printResults(stats *Stats, config Config) {
	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Println("\n=========================================")
	fmt.Println("RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Messages sent:     %d\n", sent)
	fmt.Printf("Messages received: %d\n", recv)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Send rate:         %.1f msg/s\n", float64(sent)/config.TestDuration.Seconds())

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if len(stats.Latencies) == 0 {
		return
	}

	sort.Slice(stats.Latencies, func(i, j int) bool {
		return stats.Latencies[i] < stats.Latencies[j]
	})
	p50 := stats.Latencies[len(stats.Latencies)/2]
	p99 := stats.Latencies[len(stats.Latencies)*99/100]
	fmt.Printf("Write latency p50: %v\n", p50)
	fmt.Printf("Write latency p99: %v\n", p99)
}
