package filter

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/plugins/handler/api"
)

func RegisterExtendedFilterModule() {
	plugin.RegisterPluginType(reflect.TypeOf((*api.Handler)(nil)).Elem())
	filters := []api.Handler{}
	for _, filter := range filters {
		plugin.RegisterPlugin(filter)
	}
}
