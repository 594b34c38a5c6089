package stream

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"examboard-api/internal/broker"
	"examboard-api/internal/models"
)

// Generator publishes synthetic attempt snapshots so the leaderboard UI
// can be exercised without a live attempts page feeding it.
type Generator struct {
	Broker *broker.Broker
	Room   string
}

var demoNames = []string{
	"Alya Putri", "Bagas Nugroho", "Citra Lestari", "Dimas Saputra",
	"Eka Ramadhan", "Farah Azizah", "Gilang Pratama", "Hana Safitri",
}

func (g *Generator) Run(ctx context.Context) {
	room := g.Room
	if room == "" {
		room = "demo"
	}

	t := time.NewTicker(5 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Broker.Publish(room, demoSnapshot())
		}
	}
}

func demoSnapshot() models.Snapshot {
	snap := make(models.Snapshot, 0, len(demoNames))
	for i, name := range demoNames {
		row := models.NewRow()
		row.Set("First name / Last name", name)
		if rand.IntN(4) == 0 {
			row.Set("State", "Finished")
			row.Set("Time taken", fmt.Sprintf("%d mins %d secs", 10+rand.IntN(50), rand.IntN(60)))
		} else {
			row.Set("State", "In progress")
			row.Set("Time taken", "-")
		}
		row.Set("Kelas", fmt.Sprintf("IF-%02d", 40+i%3))
		snap = append(snap, row)
	}
	return snap
}
