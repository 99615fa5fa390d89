// Profiling:
// go build ./profile/filters
// go tool pprof -http=":8000" -nodefraction=0.001 ./filters cpu.pprof

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

	sc := scenario{Rounds: 50, Iters: 10000, Entities: 1000}
	if _, err := os.Stat("scenario.toml"); err == nil {
		if _, err := toml.DecodeFile("scenario.toml", &sc); err != nil {
			log.Fatal("bad scenario.toml", zap.Error(err))
		}
	}
	log.Info("filter iteration",
		zap.Int("rounds", sc.Rounds),
		zap.Int("iters", sc.Iters),
		zap.Int("entities", sc.Entities))

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(sc)
	p.Stop()
}

func run(sc scenario) {
	for range sc.Rounds {
		w := souko.NewWorld(souko.Config{EntityCapacity: sc.Entities})
		p1 := souko.GetPool[comp1](w)
		p2 := souko.GetPool[comp2](w)
		both := souko.Inc[comp2](souko.FilterOf[comp1](w)).End(sc.Entities)
		only1 := souko.Exc[comp2](souko.FilterOf[comp1](w)).End(sc.Entities)

		for i := range sc.Entities {
			e := w.NewEntity()
			c := p1.Add(e)
			c.V = int64(i)
			if i%2 == 0 {
				p2.Add(e)
			}
		}
		for range sc.Iters {
			for e := range both.Iter() {
				c1 := p1.Get(e)
				c2 := p2.Get(e)
				c1.V += c2.V
				c1.W += c2.W
			}
			for e := range only1.Iter() {
				p2.Add(e)
			}
			for e := range both.Iter() {
				if p1.Get(e).V%2 != 0 {
					p2.Del(e)
				}
			}
		}
		w.Destroy()
	}
}
