package sharable

import (
	"sync"

	"github.com/otus6-project/otus6/internal/otus/config"
	"github.com/otus6-project/otus6/internal/plugin"
	client "github.com/otus6-project/otus6/plugins/client/api"
)

var (
	Manager map[string]plugin.SharablePlugin
	once    sync.Once
)

func Load(cfg *config.SharableConfig) {
	once.Do(func() {
		Manager = make(map[string]plugin.SharablePlugin)
		for _, c := range cfg.Clients {
			p := client.GetClient(c)
			Manager[p.Name()] = p
		}
	})
}

func PostConstruct() error {
	return nil
}

func Start() error {
	return nil
}

func Close() {}
