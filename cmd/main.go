package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/squadracorsepolito/ringq/alloc"
	"github.com/squadracorsepolito/ringq/blocking"
	"github.com/squadracorsepolito/ringq/internal"
	"github.com/squadracorsepolito/ringq/queue"
	"github.com/squadracorsepolito/ringq/telemetry"
	"github.com/squadracorsepolito/ringq/uqueue"
)

const elemSize = 8

type Config struct {
	Capacity    int
	WindowSize  int
	Producers   int
	Items       int
	ResendEvery int
	MemLimit    int
	Telemetry   bool
}

func NewDefaultConfig() *Config {
	return &Config{
		Capacity:    1024,
		WindowSize:  64,
		Producers:   4,
		Items:       100_000,
		ResendEvery: 10,
		MemLimit:    1 << 20,
	}
}

func parseFlags() *Config {
	cfg := NewDefaultConfig()

	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "capacity in elements of the shared queue")
	flag.IntVar(&cfg.WindowSize, "window", cfg.WindowSize, "size of the duplicate detection window")
	flag.IntVar(&cfg.Producers, "producers", cfg.Producers, "number of producer goroutines")
	flag.IntVar(&cfg.Items, "items", cfg.Items, "items sent by each producer")
	flag.IntVar(&cfg.ResendEvery, "resend", cfg.ResendEvery, "resend every n-th item to create duplicates (0 disables)")
	flag.IntVar(&cfg.MemLimit, "mem", cfg.MemLimit, "allocator byte limit (0 means unlimited)")
	flag.BoolVar(&cfg.Telemetry, "otel", cfg.Telemetry, "export traces and metrics over OTLP")
	flag.Parse()

	return cfg
}

func main() {
	cfg := parseFlags()
	l := internal.NewLogger("cmd", "ringq")

	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg, l)
	cancelCtx()

	if err != nil {
		l.Error("run failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, l *internal.Logger) error {
	if cfg.Telemetry {
		providers, err := telemetry.Init(ctx, telemetry.NewDefaultConfig("ringq"))
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := providers.Close(shutdownCtx); err != nil {
				l.Error("failed to close telemetry", err)
			}
		}()
	}

	counting := alloc.WithStats(alloc.NewHeap(cfg.MemLimit))
	if err := alloc.Register(counting); err != nil {
		return err
	}

	shared, err := queue.New(cfg.Capacity, elemSize)
	if err != nil {
		return err
	}
	defer queue.Destroy(&shared)

	window, err := uqueue.New(cfg.WindowSize, elemSize, func(a, b []byte) bool {
		return binary.LittleEndian.Uint64(a) == binary.LittleEndian.Uint64(b)
	})
	if err != nil {
		return err
	}
	defer uqueue.Destroy(&window)

	bq := blocking.New(shared, blocking.WithName("shared"))

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go bq.RunStats(statsCtx)

	start := time.Now()

	var producerWg sync.WaitGroup
	producerWg.Add(cfg.Producers)
	for id := range cfg.Producers {
		go func() {
			defer producerWg.Done()
			produce(ctx, bq, id, cfg, l)
		}()
	}

	go func() {
		producerWg.Wait()
		bq.Close()
	}()

	// producers must be gone before the deferred destroys run
	defer func() {
		bq.Close()
		producerWg.Wait()
	}()

	unique, duplicates, err := consume(ctx, bq, window)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	stats := counting.Stats()
	l.Info("done",
		"unique", unique,
		"duplicates", duplicates,
		"elapsed", time.Since(start),
		"allocs", stats.Allocs,
		"alloc_failures", stats.Failures,
		"bytes_in_use", stats.InUse,
	)

	return nil
}

func produce(ctx context.Context, bq *blocking.Queue, id int, cfg *Config, l *internal.Logger) {
	elem := make([]byte, elemSize)
	base := uint64(id) << 32

	for i := range cfg.Items {
		binary.LittleEndian.PutUint64(elem, base|uint64(i))

		copies := 1
		if cfg.ResendEvery > 0 && i%cfg.ResendEvery == 0 {
			copies = 2
		}

		for range copies {
			if err := bq.Write(ctx, elem); err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, blocking.ErrClosed) {
					l.Error("producer stopped", err, "producer", id)
				}
				return
			}
		}
	}
}

// consume drains bq and counts items already seen within the window.
func consume(ctx context.Context, bq *blocking.Queue, window *uqueue.Queue) (unique, duplicates int, err error) {
	elem := make([]byte, elemSize)
	evicted := make([]byte, elemSize)

	for {
		if err := bq.Read(ctx, elem); err != nil {
			if errors.Is(err, blocking.ErrClosed) {
				return unique, duplicates, nil
			}
			return unique, duplicates, err
		}

		if window.IsFull() {
			if err := window.Dequeue(evicted); err != nil {
				return unique, duplicates, err
			}
		}

		added, err := window.Add(elem)
		if err != nil {
			return unique, duplicates, err
		}

		if added {
			unique++
		} else {
			duplicates++
		}
	}
}
