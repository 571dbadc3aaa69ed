package filter

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/plugins/filter/api"
)

func RegisterExtendedFilterModule() {
	plugin.RegisterPluginType(reflect.TypeOf((*api.Filter)(nil)).Elem())
	filters := []api.Filter{}
	for _, filter := range filters {
		plugin.RegisterPlugin(filter)
	}
}
