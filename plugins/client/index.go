package client

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/plugins/client/api"
	"github.com/otus6-project/otus6/plugins/client/stub"
)

func RegisterExtendedClientModule() {
	plugin.RegisterPluginType(reflect.TypeOf((*api.Client)(nil)).Elem())
	clients := []api.Client{
		new(stub.StubClient),
	}
	for _, client := range clients {
		plugin.RegisterPlugin(client)
	}
}
