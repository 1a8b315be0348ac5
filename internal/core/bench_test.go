package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(HubOptions{QueueSize: 1024})
	go hub.Run(ctx)
	defer func() {
		cancel()
		<-hub.Done()
	}()

	register := func(id string, buffer int) *Client {
		c := NewClient(id, buffer)
		if err := hub.RegisterClient(ctx, c); err != nil {
			b.Fatalf("register %s: %v", id, err)
		}
		<-c.Events
		return c
	}

	sender := register("sender", 1)

	// The first recipient paces the loop; the rest drain in the background.
	target := register("target", 1024)
	for i := 1; i < recipients; i++ {
		c := register(fmt.Sprintf("c%d", i), 1024)
		go func(cl *Client) {
			for {
				select {
				case <-cl.Events:
				case <-cl.Done():
					return
				}
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		raw := fmt.Appendf(nil, `{"type":"message","id":"b%d","name":"bench","text":"payload"}`, i)
		if err := hub.Submit(ctx, sender, raw); err != nil {
			b.Fatalf("submit: %v", err)
		}
		<-target.Events
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
