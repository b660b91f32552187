package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomRelay(b *testing.B, recipients int) {
	rig := newTestRig(PipelineOptions{})
	sender := rig.connect("sender", "1")

	for i := range recipients {
		c := rig.connect(fmt.Sprintf("c%d", i), "1")
		go func(s *Session) {
			for range s.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	sub := validSubmission()
	sub.Tags = []string{"bench"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rig.pipeline.Process(context.Background(), sender, sub)
	}
}

func BenchmarkRoomRelay_10(b *testing.B)  { benchmarkRoomRelay(b, 10) }
func BenchmarkRoomRelay_100(b *testing.B) { benchmarkRoomRelay(b, 100) }
func BenchmarkRoomRelay_500(b *testing.B) { benchmarkRoomRelay(b, 500) }
