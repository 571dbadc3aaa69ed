package fallbacker

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/plugins/fallbacker/api"
	"github.com/otus6-project/otus6/plugins/fallbacker/none"
)

func RegisterExtendedFallbackerModule() {
	plugin.RegisterPluginType(reflect.TypeOf((*api.Fallbacker)(nil)).Elem())
	fallbackers := []api.Fallbacker{
		new(none.Fallbacker),
	}
	for _, f := range fallbackers {
		plugin.RegisterPlugin(f)
	}
}
