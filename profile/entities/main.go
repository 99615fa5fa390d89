// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/profile"
	"github.com/soukolabs/souko"
	"go.uber.org/zap"
)

type scenario struct {
	Rounds   int `toml:"rounds"`
	Iters    int `toml:"iters"`
	Entities int `toml:"entities"`
}

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	sc := scenario{Rounds: 50, Iters: 1000, Entities: 1000}
	if _, err := os.Stat("scenario.toml"); err == nil {
		if _, err := toml.DecodeFile("scenario.toml", &sc); err != nil {
			log.Fatal("bad scenario.toml", zap.Error(err))
		}
	}
	log.Info("entity churn",
		zap.Int("rounds", sc.Rounds),
		zap.Int("iters", sc.Iters),
		zap.Int("entities", sc.Entities))

	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(sc)
	p.Stop()
}

func run(sc scenario) {
	for range sc.Rounds {
		w := souko.NewWorld(souko.Config{EntityCapacity: sc.Entities})
		p1 := souko.GetPool[comp1](w)
		p2 := souko.GetPool[comp2](w)

		for range sc.Iters {
			for range sc.Entities {
				e := w.NewEntity()
				p1.Add(e)
				p2.Add(e)
			}
			buf := w.AllEntities(nil)
			for _, e := range buf {
				w.DelEntity(e)
			}
		}
		w.Destroy()
	}
}
